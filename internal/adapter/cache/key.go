package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// KeyBuilder derives deterministic cache keys from an operation name and its
// arguments. The backing store identity is mixed into every key so that
// pointing the service at a different store invalidates anything cached
// against the old one.
type KeyBuilder struct {
	storeIdentity string
}

func NewKeyBuilder(storeIdentity string) *KeyBuilder {
	return &KeyBuilder{storeIdentity: storeIdentity}
}

// Build hashes a canonical serialization of op, its positional args and its
// keyword args. Keyword order does not affect the key.
func (b *KeyBuilder) Build(op string, args []any, kwargs map[string]any) string {
	type kv struct {
		Key   string `json:"k"`
		Value any    `json:"v"`
	}

	sorted := make([]kv, 0, len(kwargs))
	for k, v := range kwargs {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	payload := struct {
		Op     string `json:"op"`
		Args   []any  `json:"args,omitempty"`
		Kwargs []kv   `json:"kwargs,omitempty"`
		Store  string `json:"store"`
	}{
		Op:     op,
		Args:   args,
		Kwargs: sorted,
		Store:  b.storeIdentity,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Arguments are primitives in practice; fall back to the op name so a
		// marshal failure degrades to coarser caching rather than a panic.
		data = []byte(op + "|" + b.storeIdentity)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
