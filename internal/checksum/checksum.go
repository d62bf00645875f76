// Package checksum implements the Internet checksum (RFC 1071).
package checksum

import "encoding/binary"

// Sum computes the one's complement checksum over b. A trailing odd byte is
// treated as the high-order byte of a final zero-padded word.
func Sum(b []byte) uint16 {
	var sum uint32
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	if n%2 != 0 {
		sum += uint32(b[n-1]) << 8
	}
	sum = (sum >> 16) + (sum & 0xffff)
	sum += sum >> 16
	return ^uint16(sum)
}

// Verify reports whether b, which already embeds its own checksum, sums to zero.
func Verify(b []byte) bool {
	return Sum(b) == 0
}

// Embed zeroes the two bytes at offset, computes the checksum over b and writes
// it back at offset in network byte order.
func Embed(b []byte, offset int) uint16 {
	b[offset] = 0
	b[offset+1] = 0
	c := Sum(b)
	binary.BigEndian.PutUint16(b[offset:offset+2], c)
	return c
}
