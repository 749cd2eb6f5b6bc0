package user

import "time"

// User is a persisted account in one of the three role collections.
// Student/teacher-only fields are zero-valued for the other roles.
type User struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`

	// Student fields. Approved gates login and flips true exactly once.
	Approved bool   `json:"approved,omitempty"`
	Roll     string `json:"roll,omitempty"`
	Course   string `json:"course,omitempty"`
	Year     int    `json:"year,omitempty"`
	Semester int    `json:"semester,omitempty"`

	// Teacher fields.
	Department string   `json:"department,omitempty"`
	Courses    []string `json:"courses,omitempty"`

	PhotoURL string `json:"photo_url,omitempty"`
}

// Profile is the public view returned by login and /me. It never carries
// the password hash.
type Profile struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Public returns the minimal profile for API responses.
func (u *User) Public() Profile {
	return Profile{ID: u.ID, UserID: u.UserID, Name: u.Name, Role: u.Role}
}
