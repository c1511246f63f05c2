// SPDX-License-Identifier: GPL-3.0-or-later

package mdnsquery

import "encoding/binary"

// appendUint16 appends value to out in network byte order.
func appendUint16(out []byte, value uint16) []byte {
	return binary.BigEndian.AppendUint16(out, value)
}
