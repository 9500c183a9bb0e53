// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// AnonymousUsername is the owner_username snapshot stored for tresses
// created without an authenticated user.
const AnonymousUsername = "Anonymous"

// PreviewLength is the number of characters of content included in list
// previews. Content longer than this is truncated with an ellipsis.
const PreviewLength = 200

// Tress represents a stored text snippet ("tress" in pastebin parlance).
//
// OwnerID and ExpiresAt are pointers because both are genuinely optional:
// a nil OwnerID means the tress was created anonymously, and a nil
// ExpiresAt means it never expires. The `json` tags use omitempty so
// anonymous/permanent tresses serialise without null noise.
//
// Content is stored already sanitized (HTML-escaped at write time);
// reads return it verbatim.
type Tress struct {
	ID            string     `json:"id"            db:"id"`
	Title         string     `json:"title"         db:"title"`
	Content       string     `json:"content"       db:"content"`
	Language      string     `json:"language"      db:"language"`
	IsPublic      bool       `json:"isPublic"      db:"is_public"`
	OwnerID       *string    `json:"ownerId,omitempty" db:"owner_id"`
	OwnerUsername string     `json:"ownerUsername" db:"owner_username"`
	CreatedAt     time.Time  `json:"createdAt"     db:"created_at"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
}

// Expired reports whether the tress has an expiry in the past (or exactly now).
// A tress with no ExpiresAt never expires.
func (t *Tress) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// Preview returns the list-view projection of the tress: full metadata but
// only the first PreviewLength characters of content, with "..." appended
// when the original is longer.
//
// Truncation counts runes, not bytes — cutting a UTF-8 sequence in half
// would produce invalid text.
func (t *Tress) Preview() TressPreview {
	excerpt := t.Content
	if runes := []rune(t.Content); len(runes) > PreviewLength {
		excerpt = string(runes[:PreviewLength]) + "..."
	}
	return TressPreview{
		ID:             t.ID,
		Title:          t.Title,
		ContentPreview: excerpt,
		Language:       t.Language,
		IsPublic:       t.IsPublic,
		OwnerUsername:  t.OwnerUsername,
		CreatedAt:      t.CreatedAt,
		ExpiresAt:      t.ExpiresAt,
	}
}

// TressPreview is the truncated projection returned by the paginated
// list endpoints.
type TressPreview struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	ContentPreview string     `json:"contentPreview"`
	Language       string     `json:"language"`
	IsPublic       bool       `json:"isPublic"`
	OwnerUsername  string     `json:"ownerUsername"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

// TressPage is one page of previews plus the pagination bookkeeping the
// client needs to render page controls.
type TressPage struct {
	Items      []TressPreview `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
	HasNext    bool           `json:"hasNext"`
	HasPrev    bool           `json:"hasPrev"`
}
