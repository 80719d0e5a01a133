package model

import "time"

// Post is a saved link. It lives in exactly one category owned by the same
// user; LabelIDs reference labels of that category.
//
// Source is derived from URL at write time (urlx.ExtractHostname); it is
// never accepted from the client. Category is a denormalized copy of the
// owning category, populated on reads.
type Post struct {
	ID           string    `json:"id"           db:"id"`
	OwnerID      string    `json:"owner"        db:"owner_id"`
	CategoryID   string    `json:"categoryId"   db:"category_id"`
	LabelIDs     []string  `json:"labels"`
	Title        string    `json:"title"        db:"title"`
	URL          string    `json:"url"          db:"url"`
	Source       string    `json:"source"       db:"source"` // hostname derived from URL
	OriginalDate time.Time `json:"originalDate" db:"original_date"`
	ImgSrc       string    `json:"imgSrc"       db:"img_src"`
	IsBookmarked bool      `json:"isBookmarked" db:"is_bookmarked"`
	Category     *Category `json:"category,omitempty"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}
