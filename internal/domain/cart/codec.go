package cart

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

// ErrMalformedCart is returned when persisted cart data cannot be parsed.
var ErrMalformedCart = shared.NewDomainError("CART_MALFORMED", "Persisted cart data is malformed")

// Encode serializes items as a JSON array of {"id","quantity"} objects.
// An empty cart encodes as "[]", never "null".
func Encode(items Items) ([]byte, error) {
	if items == nil {
		items = Items{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}
	return data, nil
}

// Decode parses data produced by Encode. Empty input and a JSON null decode
// to an empty cart. Anything else that is not an array of items yields an
// error wrapping ErrMalformedCart. The result is normalized.
func Decode(data []byte) (Items, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Items{}, nil
	}

	var items Items
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return Items{}, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	return items.Normalize(), nil
}
