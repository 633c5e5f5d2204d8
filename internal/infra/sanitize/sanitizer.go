// Package sanitize strips unsafe markup from user supplied content.
package sanitize

import (
	"strings"

	"smartblog/internal/domain/service"

	"github.com/microcosm-cc/bluemonday"
)

type ugcSanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer applying bluemonday's user generated content policy.
func NewSanitizer() service.ContentSanitizer {
	return &ugcSanitizer{policy: bluemonday.UGCPolicy()}
}

func (s *ugcSanitizer) Sanitize(input string) string {
	return strings.TrimSpace(s.policy.Sanitize(input))
}
