package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashing. The version suffix allows the
// algorithm to change without colliding with old values.
const (
	DomainEngineID = "organizer/engine-id/v1"
	DomainDetails  = "organizer/details/v1"
)

// sumWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func sumWithDomain(domain string, data []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashHex returns the hex SHA-256 of the canonical form of v under domain.
func HashHex(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	sum := sumWithDomain(domain, canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Hash64 returns the first eight bytes of the domain-separated SHA-256 of the
// canonical form of v, big endian.
func Hash64(domain string, v any) (uint64, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return 0, fmt.Errorf("hash %s: %w", domain, err)
	}
	sum := sumWithDomain(domain, canonical)
	return binary.BigEndian.Uint64(sum[:8]), nil
}
