// Package probe builds and transmits the ICMP Echo Request of a resolution attempt.
package probe

import (
	"encoding/binary"

	"getmac/internal/checksum"
)

const (
	// HeaderLen is the size of an ICMP echo header; no payload is sent.
	HeaderLen = 8

	TypeEchoRequest = 8

	// Sequence is the fixed sequence number of the single probe per attempt.
	Sequence uint16 = 1
)

// NewEchoRequest returns an 8-byte Echo Request with its checksum embedded.
func NewEchoRequest(id, seq uint16) []byte {
	b := make([]byte, HeaderLen)
	b[0] = TypeEchoRequest
	b[1] = 0
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], seq)
	checksum.Embed(b, 2)
	return b
}
