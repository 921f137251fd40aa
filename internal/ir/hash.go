package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with stored hashes.
const (
	DomainSpec  = "conventions/spec/v1"
	DomainModel = "conventions/model/v1"
	DomainTrace = "conventions/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashCanonical hashes bytes that are already canonical JSON, such as a
// snapshot read back from the journal.
func HashCanonical(domain string, canonical []byte) string {
	return hashWithDomain(domain, canonical)
}

// SpecHash identifies a compiled model definition.
func SpecHash(spec *ModelSpec) (string, error) {
	canonical, err := Canonicalize(spec)
	if err != nil {
		return "", fmt.Errorf("SpecHash: %w", err)
	}
	return hashWithDomain(DomainSpec, canonical), nil
}

// ModelHash identifies the shape of a built model. Two builds producing the
// same snapshot have the same hash regardless of how they got there.
func ModelHash(snap *ModelSnapshot) (string, error) {
	canonical, err := Canonicalize(snap)
	if err != nil {
		return "", fmt.Errorf("ModelHash: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}

// TraceHash identifies the exact sequence of dispatch observations.
func TraceHash(events []TraceEvent) (string, error) {
	if events == nil {
		events = []TraceEvent{}
	}
	canonical, err := Canonicalize(events)
	if err != nil {
		return "", fmt.Errorf("TraceHash: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustModelHash is like ModelHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustModelHash(snap *ModelSnapshot) string {
	h, err := ModelHash(snap)
	if err != nil {
		panic(err)
	}
	return h
}
