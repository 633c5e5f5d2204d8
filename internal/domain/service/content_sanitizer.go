package service

// ContentSanitizer strips unsafe markup from user generated content.
type ContentSanitizer interface {
	Sanitize(content string) string
}
