// SPDX-License-Identifier: GPL-3.0-or-later

package mdnsquery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendUint16(t *testing.T) {
	tests := []struct {
		name     string
		value    uint16
		expected []byte
	}{
		{"Zero", 0x0000, []byte{0x00, 0x00}},
		{"LowByteOnly", 0x000c, []byte{0x00, 0x0c}},
		{"HighByteOnly", 0xab00, []byte{0xab, 0x00}},
		{"Mixed", 0x1234, []byte{0x12, 0x34}},
		{"Max", 0xffff, []byte{0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, appendUint16(nil, tt.value))
		})
	}
}

func TestAppendUint16Appends(t *testing.T) {
	out := []byte{0xde, 0xad}
	out = appendUint16(out, 0xbeef)
	out = appendUint16(out, 0x0001)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}, out)
}
