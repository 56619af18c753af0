package expr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
const (
	DomainExpression = "litenc/expression/v1"
	DomainFragment   = "litenc/fragment/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint is the content hash of a single expression.
func Fingerprint(e Expression) (string, error) {
	data, err := Marshal(e)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	canonical, err := canonicalize(data)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	return hashWithDomain(DomainExpression, canonical), nil
}

// FragmentFingerprint is the content hash of an ordered expression list.
func FragmentFingerprint(es []Expression) (string, error) {
	data, err := MarshalList(es)
	if err != nil {
		return "", fmt.Errorf("FragmentFingerprint: %w", err)
	}
	canonical, err := canonicalize(data)
	if err != nil {
		return "", fmt.Errorf("FragmentFingerprint: %w", err)
	}
	return hashWithDomain(DomainFragment, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(e Expression) string {
	fp, err := Fingerprint(e)
	if err != nil {
		panic(err)
	}
	return fp
}

func canonicalize(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return MarshalCanonical(v)
}
