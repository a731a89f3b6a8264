package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"staybook/internal/pkg/errs"
)

// RequestHash hashes payload after canonicalising it: object keys sorted at every level.
func RequestHash(payload any) (string, error) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize round-trips payload through a generic tree; encoding/json writes map keys in sorted order.
func Canonicalize(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode idempotency payload")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, errs.Wrap(err, "failed to decode idempotency payload")
	}

	out, err := json.Marshal(tree)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode canonical payload")
	}
	return out, nil
}
