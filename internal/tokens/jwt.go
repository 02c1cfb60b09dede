package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Kind distinguishes short-lived access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultIssuer     = "hookrelay"
)

type Claims struct {
	Identity string `json:"identity"`
	Type     Kind   `json:"type"`
	Fresh    bool   `json:"fresh"`
	jwt.RegisteredClaims
}

// Pair is what a successful login or token issue hands back to the client.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     DefaultIssuer,
		now:        time.Now,
	}
}

// IssueAccess signs an access token for identity. Tokens minted directly
// from a login are fresh; tokens minted from a refresh token are not.
func (m *Manager) IssueAccess(identity string, fresh bool) (string, error) {
	return m.sign(identity, KindAccess, fresh, m.accessTTL)
}

func (m *Manager) IssueRefresh(identity string) (string, error) {
	return m.sign(identity, KindRefresh, false, m.refreshTTL)
}

func (m *Manager) IssuePair(identity string) (Pair, error) {
	access, err := m.IssueAccess(identity, true)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.IssueRefresh(identity)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) sign(identity string, kind Kind, fresh bool, ttl time.Duration) (string, error) {
	if identity == "" {
		return "", fmt.Errorf("%w: empty identity", ErrInvalidToken)
	}
	now := m.now()
	claims := Claims{
		Identity: identity,
		Type:     kind,
		Fresh:    fresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses tokenString and checks signature, expiry and kind.
func (m *Manager) Validate(tokenString string, kind Kind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Identity == "" {
		return nil, ErrInvalidToken
	}
	if claims.Type != kind {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
