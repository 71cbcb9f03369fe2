package documentdb

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// identity is the pair of top-level fields every document body carries.
type identity struct {
	ID string `json:"id"`
	PK *int   `json:"pk"`
}

// ReadIdentity extracts id and pk from a JSON document body.
func ReadIdentity(body json.RawMessage) (string, int, error) {
	var ident identity
	if err := json.Unmarshal(body, &ident); err != nil {
		return "", 0, fmt.Errorf("decode document identity: %w", err)
	}
	if ident.ID == "" {
		return "", 0, fmt.Errorf("document body has no id")
	}
	if ident.PK == nil {
		return "", 0, fmt.Errorf("document %q body has no pk", ident.ID)
	}
	return ident.ID, *ident.PK, nil
}

// NewETag returns a fresh opaque entity tag for a document write.
func NewETag() string {
	return `"` + uuid.NewString() + `"`
}
