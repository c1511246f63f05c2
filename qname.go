// SPDX-License-Identifier: GPL-3.0-or-later

package mdnsquery

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLabelLength is the maximum length of a single name label.
const MaxLabelLength = 63

// Errors emitted by [AppendQName].
var (
	// ErrLabelTooLong means that a label is longer than [MaxLabelLength].
	ErrLabelTooLong = errors.New("label too long")

	// ErrNonASCIIName means that the name contains non-ASCII bytes.
	ErrNonASCIIName = errors.New("name is not ASCII")
)

// AppendQName appends the RFC 1035 QNAME encoding of name to out.
//
// The name is a dot-separated list of labels. A single trailing dot stands
// for the root label. Each label is written as a length byte followed by its
// bytes, and the name is terminated by a zero byte. Both "" and "." encode
// the root name. Empty interior labels (e.g., "a..b") are not rejected and
// are written as zero-length labels.
//
// Compression pointers are never emitted.
//
// The name is validated before appending anything, hence, on failure, the
// spare capacity of out is left untouched and this function returns a nil
// slice and an error wrapping either [ErrNonASCIIName] or [ErrLabelTooLong].
func AppendQName(out []byte, name string) ([]byte, error) {
	for idx := 0; idx < len(name); idx++ {
		if name[idx] >= 0x80 {
			return nil, fmt.Errorf("%w: %q", ErrNonASCIIName, name)
		}
	}

	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return append(out, 0), nil
	}
	for label := range strings.SplitSeq(name, ".") {
		if len(label) > MaxLabelLength {
			return nil, fmt.Errorf("%w: %q (%d bytes)", ErrLabelTooLong, label, len(label))
		}
	}

	for label := range strings.SplitSeq(name, ".") {
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	return append(out, 0), nil
}
