package domain

import "time"

// User is a row of the credential store. At least one of PasswordHash and
// GoogleSubject is set.
type User struct {
	ID            string    `db:"id"`
	Email         string    `db:"email"`
	Username      *string   `db:"username"`
	PasswordHash  *string   `db:"password_hash"`
	GoogleSubject *string   `db:"google_subject"`
	Name          *string   `db:"name"`
	Picture       *string   `db:"picture"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// HasPassword reports whether the user can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserSummary is the public view of a user
type UserSummary struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	HasPassword  bool      `json:"has_password"`
	GoogleLinked bool      `json:"google_linked"`
}

// Summary returns the public view of u
func (u *User) Summary() *UserSummary {
	s := &UserSummary{
		ID:           u.ID,
		Email:        u.Email,
		CreatedAt:    u.CreatedAt,
		HasPassword:  u.HasPassword(),
		GoogleLinked: u.GoogleSubject != nil,
	}
	if u.Username != nil {
		s.Username = *u.Username
	}
	return s
}

// Profile is the body of GET /user/profile
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// Profile returns the profile view of u
func (u *User) Profile() *Profile {
	p := &Profile{ID: u.ID, Email: u.Email}
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Picture != nil {
		p.Picture = *u.Picture
	}
	return p
}

// GoogleIdentity is the verified identity asserted by a Google ID token
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by a successful password or Google login.
// Token is empty when the session travels in a cookie.
type LoginResult struct {
	User  *UserSummary
	Token string
}
