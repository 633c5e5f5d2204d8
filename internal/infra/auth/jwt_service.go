// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"smartblog/config"
	"smartblog/internal/domain/entity"
	"smartblog/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Claim names beyond the registered ones.
const (
	claimUserID = "uid"
	claimRole   = "role"
	claimType   = "type"
)

// jwtService is a concrete implementation of the TokenService interface using HS256 JWTs.
// Access and refresh tokens share one secret and differ by lifetime and type claim.
type jwtService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.JWT == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	accessTTL, refreshTTL := 15*time.Minute, 7*24*time.Hour
	if cfg.Token != nil {
		if cfg.Token.AccessTTL > 0 {
			accessTTL = cfg.Token.AccessTTL
		}
		if cfg.Token.RefreshTTL > 0 {
			refreshTTL = cfg.Token.RefreshTTL
		}
	}

	return &jwtService{
		secret:     []byte(cfg.SecretKey.JWT),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// GenerateToken creates an access token for user.
func (s *jwtService) GenerateToken(user *entity.User) (string, error) {
	return s.generateToken(user, s.accessTTL, service.TokenTypeAccess)
}

// GenerateRefreshToken creates a refresh token for user.
func (s *jwtService) GenerateRefreshToken(user *entity.User) (string, error) {
	return s.generateToken(user, s.refreshTTL, service.TokenTypeRefresh)
}

// ExtractUsername verifies the signature only, so expired tokens still yield their subject.
func (s *jwtService) ExtractUsername(tokenString string) (string, error) {
	claims, err := s.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("token has no subject")
	}

	return subject, nil
}

// IsTokenValid reports whether the token is signed with our secret, unexpired and issued to user.
func (s *jwtService) IsTokenValid(tokenString string, user *entity.User) bool {
	if user == nil {
		return false
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return false
	}

	subject, err := claims.GetSubject()

	return err == nil && subject == user.Email
}

// ParseToken fully validates the token and maps its claims.
func (s *jwtService) ParseToken(tokenString string) (*service.Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, errors.New("token has no subject")
	}

	out := &service.Claims{Subject: subject}
	if raw, ok := claims[claimUserID].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			out.UserID = id
		}
	}
	if raw, ok := claims[claimRole].(string); ok {
		out.Role = entity.Role(raw)
	}
	if raw, ok := claims[claimType].(string); ok {
		out.Type = raw
	}

	return out, nil
}

func (s *jwtService) generateToken(user *entity.User, ttl time.Duration, tokenType string) (string, error) {
	if user == nil || user.Email == "" {
		return "", errors.New("token subject is required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":       user.Email,          // Subject (the login identifier)
		"iat":       now.Unix(),          // Issued At
		"exp":       now.Add(ttl).Unix(), // Expiration Time
		"jti":       uuid.NewString(),    // Keeps tokens issued in the same second distinct
		claimUserID: user.ID.String(),
		claimRole:   user.Role.String(),
		claimType:   tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

func (s *jwtService) parse(tokenString string, opts ...jwt.ParserOption) (jwt.MapClaims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
