package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ref is a foreign reference returned by the backend either as a bare
// identifier or as a populated sub-document. Display is nil for the bare form.
type Ref struct {
	ID      string
	Display map[string]string
}

// NewRef returns a bare identifier reference.
func NewRef(id string) *Ref {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &Ref{ID: id}
}

// Populated reports whether the backend embedded the referenced document.
func (r *Ref) Populated() bool {
	return r != nil && r.Display != nil
}

// Label returns the most readable display string available.
func (r *Ref) Label() string {
	if r == nil {
		return ""
	}
	for _, k := range []string{"name", "fullName", "storeName", "code", "email"} {
		if v := strings.TrimSpace(r.Display[k]); v != "" {
			return v
		}
	}
	first := strings.TrimSpace(r.Display["firstName"])
	last := strings.TrimSpace(r.Display["lastName"])
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	return r.ID
}

// Field returns a display field of a populated reference.
func (r *Ref) Field(name string) string {
	if r == nil {
		return ""
	}
	return r.Display[name]
}

// RefID normalizes either reference form to its identifier. Every comparison
// between references goes through here.
func RefID(r *Ref) string {
	if r == nil {
		return ""
	}
	return r.ID
}

// SameRef reports whether the reference points at id.
func SameRef(r *Ref, id string) bool {
	return id != "" && RefID(r) == id
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	case '{':
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := Ref{Display: map[string]string{}}
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				out.Display[k] = val
			case float64, bool:
				out.Display[k] = fmt.Sprint(val)
			}
		}
		out.ID = out.Display["_id"]
		if out.ID == "" {
			out.ID = out.Display["id"]
		}
		delete(out.Display, "_id")
		delete(out.Display, "id")
		*r = out
		return nil
	default:
		return fmt.Errorf("domain: reference must be a string or object, got %s", string(data))
	}
}

// MarshalJSON always emits the identifier form; payloads never carry
// populated documents back to the backend.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// IsObjectID reports whether s has the shape of a backend identifier
// (24 hexadecimal characters).
func IsObjectID(s string) bool {
	return primitive.IsValidObjectID(strings.TrimSpace(s))
}
