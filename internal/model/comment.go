package model

import (
	"bytes"
	"encoding/json"
)

// Author is the author of a study comment. Upstream sends either an
// object with an id or a bare display string for imported comments.
type Author struct {
	ID   string // empty for bare string authors
	Name string // contains the title
}

// IsUser reports whether the author is a site user
func (a Author) IsUser() bool {
	return a.ID != ""
}

// Text returns the display text of the author
func (a Author) Text() string {
	if a.Name == "" {
		return "Unknown"
	}
	return a.Name
}

// UnmarshalJSON accepts both {"id","name"} and "name"
func (a *Author) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*a = Author{}
		return json.Unmarshal(b, &a.Name)
	}
	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*a = Author{ID: obj.ID, Name: obj.Name}
	return nil
}

// MarshalJSON writes user authors as objects and others as strings
func (a Author) MarshalJSON() ([]byte, error) {
	if a.IsUser() {
		return json.Marshal(struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}{a.ID, a.Name})
	}
	return json.Marshal(a.Name)
}

// Comment is a comment attached to a move of a study chapter
type Comment struct {
	ID   string `json:"id"`
	By   Author `json:"by"`
	Text string `json:"text"`
}

// Node is a position of a study chapter tree
type Node struct {
	Path     string    `json:"path"`
	Ply      int       `json:"ply"`
	SAN      string    `json:"san,omitempty"`
	Comments []Comment `json:"comments,omitempty"`
}

// StudyNode is a node together with the study permissions needed to edit it
type StudyNode struct {
	Node  Node       `json:"node"`
	Study RelayStudy `json:"study"`
}
