package model

import "time"

// Category groups saved links under a user-chosen name.
//
// OwnerID is always the authenticated caller's ID, never taken from the
// request body. The store enforces that (owner_id, name) is unique, so two
// users can each have a "News" category but one user cannot have two.
//
// Labels is populated on reads; it is not written through this struct.
type Category struct {
	ID        string    `json:"id"        db:"id"`
	OwnerID   string    `json:"owner"     db:"owner_id"`
	Name      string    `json:"name"      db:"name"`
	Labels    []Label   `json:"labels,omitempty"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Label is a colored tag scoped to exactly one category.
// (owner_id, category_id, name) is unique. Deleting the category deletes
// its labels.
type Label struct {
	ID         string `json:"id"       db:"id"`
	OwnerID    string `json:"owner"    db:"owner_id"`
	CategoryID string `json:"category" db:"category_id"`
	Name       string `json:"name"     db:"name"`
	Color      string `json:"color"    db:"color"`
	Checked    bool   `json:"checked"  db:"checked"`
}

// DefaultLabels returns the six labels every new category is seeded with.
// A fresh slice each call; callers fill in IDs and ownership.
func DefaultLabels() []Label {
	return []Label{
		{Name: "Red", Color: "#fc5c65"},
		{Name: "Orange", Color: "#fd9644"},
		{Name: "Yellow", Color: "#fed330"},
		{Name: "Green", Color: "#26de81"},
		{Name: "Blue", Color: "#45aaf2"},
		{Name: "Purple", Color: "#a55eea"},
	}
}
