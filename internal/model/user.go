package model

import "time"

// User represents a registered account.
//
// Two login paths populate this struct:
//   - username/password: Username + PasswordHash are set, GitHubID is 0
//   - GitHub OAuth: GitHubID/AvatarURL are set, PasswordHash stays empty
//
// PasswordHash is tagged `json:"-"` so it can never leak through an API
// response, no matter which handler serialises the user.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"-"         db:"github_id"`  // 0 when the account is password-only
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"` // set by the OAuth path, may be empty
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
