// Package toy defines the toy inventory entity shared by the REST client, the
// controller, the renderers and the local backend.
package toy

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// PlaceholderImage is displayed when a toy's image fails to load.
const PlaceholderImage = "https://via.placeholder.com/300x300?text=No+Image"

// Toy is a named, imaged, likeable inventory item as returned by the backend.
type Toy struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Likes int    `json:"likes"`
}

// Draft is the payload of a create request. It never carries an ID.
type Draft struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Likes int    `json:"likes"`
}

// NewDraft builds a draft with a zero like count.
func NewDraft(name, image string) Draft {
	return Draft{Name: name, Image: image, Likes: 0}
}

// ID is a server-assigned identifier. The client never interprets it: a
// numeric JSON id stays numeric and a string id stays a string.
type ID struct {
	raw     string
	numeric bool
}

// ErrInvalidID is returned when an id is neither a JSON number nor a string.
var ErrInvalidID = errors.New("toy: invalid id")

// NumericID returns the id the backend assigns as a JSON number.
func NumericID(n int64) ID {
	return ID{raw: strconv.FormatInt(n, 10), numeric: true}
}

// StringID returns an id carried as a JSON string.
func StringID(s string) ID {
	return ID{raw: s}
}

// MakeID rebuilds an id from its parts, e.g. after a round trip through
// component props.
func MakeID(raw string, numeric bool) ID {
	return ID{raw: raw, numeric: numeric}
}

// String returns the id as it appears in a URL path.
func (id ID) String() string { return id.raw }

// IsNumeric reports whether the id was a JSON number.
func (id ID) IsNumeric() bool { return id.numeric }

// IsZero reports whether the id is unset (drafts, not yet persisted toys).
func (id ID) IsZero() bool { return id.raw == "" }

// MarshalJSON encodes the id in the form the backend sent it.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

// UnmarshalJSON accepts a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidID
	}
	*id = ID{raw: n.String(), numeric: true}
	return nil
}
