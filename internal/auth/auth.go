package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"movietype-quiz/internal/models"
)

const (
	sessionAudience      = "session"
	continuationAudience = "continuation"

	SessionTTL      = 24 * time.Hour
	ContinuationTTL = 2 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type Manager struct {
	secret []byte
	now    func() time.Time
}

// SessionClaims carry the ephemeral quiz session inside the cookie.
type SessionClaims struct {
	Session models.Session `json:"s"`
	jwt.RegisteredClaims
}

// ContinuationClaims prove that a question URL was issued to an identity.
type ContinuationClaims struct {
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}

func NewManager(secret string) *Manager {
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	return &Manager{secret: []byte(secret), now: time.Now}
}

func (m *Manager) registered(audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func (m *Manager) IssueSession(s models.Session) (string, error) {
	claims := SessionClaims{
		Session:          s,
		RegisteredClaims: m.registered(sessionAudience, SessionTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) ParseSession(token string) (models.Session, error) {
	claims := &SessionClaims{}
	if err := m.parse(token, claims, sessionAudience); err != nil {
		return models.Session{}, err
	}
	return claims.Session, nil
}

// IssueContinuation signs identity + issued-at for embedding in question URLs.
func (m *Manager) IssueContinuation(identity string) (string, error) {
	if identity == "" {
		return "", errors.New("identity is required")
	}
	claims := ContinuationClaims{
		Identity:         identity,
		RegisteredClaims: m.registered(continuationAudience, ContinuationTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseContinuation returns the identity bound to a continuation token.
func (m *Manager) ParseContinuation(token string) (string, error) {
	claims := &ContinuationClaims{}
	if err := m.parse(token, claims, continuationAudience); err != nil {
		return "", err
	}
	if claims.Identity == "" {
		return "", ErrInvalidToken
	}
	return claims.Identity, nil
}

func (m *Manager) parse(token string, claims jwt.Claims, audience string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithAudience(audience), jwt.WithTimeFunc(m.now))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
