package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDocument separates document hashes from any other hashed content.
const DomainDocument = "cinemad/document/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes a content hash for a compiled document.
// Two documents that compile to the same graph share a hash regardless of
// source formatting or key order.
func DocumentHash(doc *Document) (string, error) {
	canonical, err := MarshalCanonical(doc.Object())
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}
