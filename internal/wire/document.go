package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is the untyped form of a wire document: top-level field name to
// raw JSON value.
type Document map[string]json.RawMessage

// Field names shared by every record kind.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// ID returns the numeric record id carried in the document.
func (d Document) ID() (int64, error) {
	raw, ok := d[FieldID]
	if !ok {
		return 0, fmt.Errorf("document has no %q field", FieldID)
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("failed to parse document id: %w", err)
	}
	return id, nil
}

// Time returns the Timestamp stored under key, if present and well formed.
func (d Document) Time(key string) (time.Time, bool) {
	raw, ok := d[key]
	if !ok {
		return time.Time{}, false
	}
	var ts Timestamp
	if err := json.Unmarshal(raw, &ts); err != nil {
		return time.Time{}, false
	}
	return ts.Time(), true
}

// Clone returns a shallow copy of the field map.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Null is the field value that removes a field in a partial update.
var Null = json.RawMessage("null")

// IsNull reports whether a raw field value is the removal marker.
func IsNull(v json.RawMessage) bool {
	return string(v) == "null"
}

// EncodeUpdate turns the next full document into a partial update against
// prev. The creation stamp is dropped so an update never rewrites it, and
// fields present in prev but absent from next are sent as Null so the
// store removes them.
func EncodeUpdate(prev, next Document) Document {
	out := next.Clone()
	for k := range prev {
		if _, ok := next[k]; !ok {
			out[k] = Null
		}
	}
	delete(out, FieldCreatedAt)
	return out
}

func toDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return d, nil
}

func fromDocument(d Document, v any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
