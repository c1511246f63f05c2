// SPDX-License-Identifier: GPL-3.0-or-later

package mdnsquery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendQName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{
			name:     "ThreeLabels",
			input:    "a.bb.ccc",
			expected: []byte{0x01, 'a', 0x02, 'b', 'b', 0x03, 'c', 'c', 'c', 0x00},
		},

		{
			name:     "TrailingRootDot",
			input:    "a.bb.ccc.",
			expected: []byte{0x01, 'a', 0x02, 'b', 'b', 0x03, 'c', 'c', 'c', 0x00},
		},

		{
			name:  "ServiceName",
			input: ServiceName,
			expected: []byte{
				0x04, '_', 'p', '2', 'p',
				0x04, '_', 'u', 'd', 'p',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},

		{
			name:     "Root",
			input:    ".",
			expected: []byte{0x00},
		},

		{
			name:     "Empty",
			input:    "",
			expected: []byte{0x00},
		},

		{
			name:     "EmptyInteriorLabel",
			input:    "a..b",
			expected: []byte{0x01, 'a', 0x00, 0x01, 'b', 0x00},
		},

		{
			name:     "LeadingDot",
			input:    ".a",
			expected: []byte{0x00, 0x01, 'a', 0x00},
		},

		{
			name:     "CaseIsPreserved",
			input:    "Local",
			expected: []byte{0x05, 'L', 'o', 'c', 'a', 'l', 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := AppendQName(nil, tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.expected, out)
		})
	}
}

func TestAppendQNameAppends(t *testing.T) {
	out, err := AppendQName([]byte{0xca, 0xfe}, "x")
	require.NoError(t, err)
	require.Equal(t, []byte{0xca, 0xfe, 0x01, 'x', 0x00}, out)
}

func TestAppendQNameLabelLength(t *testing.T) {
	t.Run("63BytesIsAccepted", func(t *testing.T) {
		label := strings.Repeat("a", 63)
		out, err := AppendQName(nil, label+".local.")
		require.NoError(t, err)
		require.Len(t, out, 1+63+1+5+1)
		require.Equal(t, byte(63), out[0])
	})

	t.Run("64BytesIsRejected", func(t *testing.T) {
		label := strings.Repeat("a", 64)
		out, err := AppendQName([]byte{0xff}, "x."+label+".local.")
		require.ErrorIs(t, err, ErrLabelTooLong)
		require.Nil(t, out)
	})
}

func TestAppendQNameFailureLeavesBufferUntouched(t *testing.T) {
	buffer := make([]byte, 1, 128)
	buffer[0] = 0xff
	name := "first.second." + strings.Repeat("a", 64) + ".local."

	out, err := AppendQName(buffer, name)
	require.ErrorIs(t, err, ErrLabelTooLong)
	require.Nil(t, out)
	require.Equal(t, make([]byte, 127), buffer[1:cap(buffer)])
}

func TestAppendQNameNonASCII(t *testing.T) {
	out, err := AppendQName(nil, "bücher.local.")
	require.ErrorIs(t, err, ErrNonASCIIName)
	require.Nil(t, out)
}
