package auth

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"smartblog/config"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxLength is the number of bytes bcrypt takes into account.
const bcryptMaxLength = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost   int
	policy *config.PasswordStrengthConfig
}

// NewBcryptHasher builds the hasher from the auth and password strength configuration.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	h := NewBcryptHasherWithCost(bcrypt.DefaultCost)
	if cfg == nil {
		return h
	}
	if cfg.Auth != nil && cfg.Auth.BcryptCost != 0 {
		h.cost = normalizeCost(cfg.Auth.BcryptCost)
	}
	h.policy = cfg.PasswordStrength

	return h
}

// NewBcryptHasherWithCost returns a hasher with an explicit cost and no strength policy.
func NewBcryptHasherWithCost(cost int) *bcryptHasher {
	return &bcryptHasher{cost: normalizeCost(cost)}
}

func normalizeCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}

	return cost
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.Wrap(domainerrors.ErrValidationFailed, "password is required")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength applies the configured policy. Without a policy any non-empty
// password bcrypt can hash is accepted.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	if password == "" {
		return domainerrors.ErrPasswordStrength.WithDetails("password is required")
	}
	if len(password) > bcryptMaxLength {
		return domainerrors.ErrPasswordStrength.WithDetails("password must be at most 72 bytes long")
	}

	p := h.policy
	if p == nil {
		return nil
	}

	length := utf8.RuneCountInString(password)
	var problems []string
	if p.MinLength > 0 && length < p.MinLength {
		problems = append(problems, "must be at least "+strconv.Itoa(p.MinLength)+" characters long")
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		problems = append(problems, "must be at most "+strconv.Itoa(p.MaxLength)+" characters long")
	}
	if p.RequireLowercase && !h.hasLowercase(password) {
		problems = append(problems, "must contain at least one lowercase letter")
	}
	if p.RequireUppercase && !h.hasUppercase(password) {
		problems = append(problems, "must contain at least one uppercase letter")
	}
	if p.RequireNumbers && !h.hasNumbers(password) {
		problems = append(problems, "must contain at least one number")
	}
	if p.RequireSpecial && !h.hasSpecialChars(password) {
		problems = append(problems, "must contain at least one special character")
	}
	if h.containsForbiddenWords(password, p.ForbiddenWords) {
		problems = append(problems, "contains forbidden words")
	}

	if len(problems) > 0 {
		return domainerrors.ErrPasswordStrength.WithDetails("password " + strings.Join(problems, ", "))
	}

	return nil
}

func (h *bcryptHasher) hasUppercase(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0
}

func (h *bcryptHasher) hasLowercase(s string) bool {
	return strings.IndexFunc(s, unicode.IsLower) >= 0
}

func (h *bcryptHasher) hasNumbers(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func (h *bcryptHasher) hasSpecialChars(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) >= 0
}

func (h *bcryptHasher) containsForbiddenWords(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}

	return false
}
