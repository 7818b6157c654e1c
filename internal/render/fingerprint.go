package render

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/querybuilder/internal/querytree"
)

// DomainQuery prefixes query fingerprints. The version suffix allows the
// hashed form to change later without colliding with old fingerprints.
const DomainQuery = "querybuilder/query/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the hex SHA-256 identity of q's compact form. Two
// queries share a fingerprint exactly when they export identically.
func Fingerprint(q querytree.CleanQuery) (string, error) {
	data, err := Compact(q)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainQuery, data), nil
}

// MustFingerprint is like Fingerprint but panics on error.
func MustFingerprint(q querytree.CleanQuery) string {
	fp, err := Fingerprint(q)
	if err != nil {
		panic(err)
	}
	return fp
}
