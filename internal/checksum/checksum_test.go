package checksum

import (
	"testing"
)

func TestSumAllZero(t *testing.T) {
	for _, n := range []int{0, 2, 8, 20, 64, 1500} {
		if got := Sum(make([]byte, n)); got != 0xffff {
			t.Errorf("Sum(zero[%d]) = %#04x, want 0xffff", n, got)
		}
	}
}

func TestSumKnownVectors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint16
	}{
		{
			// RFC 1071 section 3 example: 0x0001 f203 f4f5 f6f7 sums to 0xddf2.
			name: "rfc1071 example",
			in:   []byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7},
			want: ^uint16(0xddf2),
		},
		{
			name: "odd length pads low byte",
			in:   []byte{0x01},
			want: ^uint16(0x0100),
		},
		{
			name: "echo request id 0 seq 1",
			in:   []byte{0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
			want: 0xf7fe,
		},
		{
			// 20-byte IPv4 header from the Wikipedia checksum example.
			name: "ipv4 header",
			in: []byte{
				0x45, 0x00, 0x00, 0x73, 0x00, 0x00, 0x40, 0x00, 0x40, 0x11,
				0x00, 0x00, 0xc0, 0xa8, 0x00, 0x01, 0xc0, 0xa8, 0x00, 0xc7,
			},
			want: 0xb861,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sum(tt.in); got != tt.want {
				t.Errorf("Sum(% x) = %#04x, want %#04x", tt.in, got, tt.want)
			}
		})
	}
}

func TestSumCarryFold(t *testing.T) {
	b := make([]byte, 64)
	for i := range b {
		b[i] = 0xff
	}
	if got := Sum(b); got != 0 {
		t.Errorf("Sum(0xff * 64) = %#04x, want 0", got)
	}
}

func TestEmbedRoundTrip(t *testing.T) {
	bufs := [][]byte{
		{0x08, 0x00, 0xaa, 0xbb, 0x12, 0x34, 0x00, 0x01},
		{0x45, 0x00, 0x00, 0x1c, 0xbe, 0xef, 0x00, 0x00, 0x40, 0x01, 0x12, 0x34, 0x0a, 0x00, 0x00, 0x01, 0x0a, 0x00, 0x00, 0x02},
		{0x00, 0x00, 0x01, 0x02, 0x03},
	}
	for _, b := range bufs {
		Embed(b, 2)
		if !Verify(b) {
			t.Errorf("Verify after Embed = false for % x (sum %#04x)", b, Sum(b))
		}
	}
}
