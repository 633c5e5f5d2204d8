package entity

import "github.com/google/uuid"

// Post is a blog entry written by a user.
type Post struct {
	ID     uuid.UUID
	Text   string
	UserID uuid.UUID
	Author *Author // Loaded with the post when available.
	Audit
}

// Author is the public summary of a post's owner.
type Author struct {
	FirstName string
	LastName  string
	UserName  string
}
