// Copyright (c) The Tofuguard Authors
// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/tofuguard/tofuguard/internal/attrvalue"
)

// Fingerprint computes a stable digest over a flat attribute mapping. The
// mapping is hashed as its canonical key-sorted serialization, so two
// mappings equal as sets of key/value pairs always digest identically no
// matter how they were built up. Value types participate: a string "1" and a
// number 1 produce different digests.
func Fingerprint(flat map[string]cty.Value) (string, error) {
	h := sha256.New()
	for _, key := range attrvalue.SortedKeys(flat) {
		src, err := attrvalue.CanonicalJSON(flat[key])
		if err != nil {
			return "", fmt.Errorf("fingerprinting attribute %q: %w", key, err)
		}
		h.Write([]byte(key))
		h.Write([]byte{'='})
		h.Write(src)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
