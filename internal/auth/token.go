package auth

import (
	"errors"
	"fmt"
	"time"

	"anoa.com/jobapp/internal/entity"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the smallest HMAC-SHA256 key accepted, in bytes.
const MinSecretLength = 32

var ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)

type ClaimMode string

const (
	// ClaimsMinimal carries only the subject and the role.
	ClaimsMinimal ClaimMode = "minimal"
	// ClaimsFull additionally carries the user id, email and profile names.
	ClaimsFull ClaimMode = "full"
)

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Claims ClaimMode
}

type Claims struct {
	Role      string `json:"role,omitempty"`
	UserID    string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company_name,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier is the read side of the token service used by the request pipeline.
type TokenVerifier interface {
	Subject(token string) (string, bool)
	IsValid(token, expectedUsername string) bool
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	mode   ClaimMode
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt expiration must be positive")
	}

	mode := cfg.Claims
	switch mode {
	case "":
		mode = ClaimsMinimal
	case ClaimsMinimal, ClaimsFull:
	default:
		return nil, fmt.Errorf("unknown jwt claims mode %q", cfg.Claims)
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &TokenService{
		secret: secret,
		ttl:    cfg.TTL,
		mode:   mode,
		now:    time.Now,
	}, nil
}

// Issue signs a token whose subject is the user's username.
func (s *TokenService) Issue(user *entity.User) (string, time.Time, error) {
	if user == nil || user.Username == "" {
		return "", time.Time{}, errors.New("cannot issue token without a username")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Role: user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	if s.mode == ClaimsFull {
		claims.UserID = user.ID.String()
		claims.Email = user.Email
		claims.FirstName = deref(user.FirstName)
		claims.LastName = deref(user.LastName)
		claims.Company = deref(user.CompanyName)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Subject returns the username carried by a well-formed, correctly signed,
// unexpired token. Every failure is reported as absence.
func (s *TokenService) Subject(token string) (string, bool) {
	claims, err := s.parse(token, jwt.WithExpirationRequired())
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// IsValid reports whether the token names expectedUsername and has not expired.
func (s *TokenService) IsValid(token, expectedUsername string) bool {
	subject, ok := s.Subject(token)
	if !ok || subject != expectedUsername {
		return false
	}
	return !s.isExpired(token)
}

func (s *TokenService) isExpired(token string) bool {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.After(s.now())
}

func (s *TokenService) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}

	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
