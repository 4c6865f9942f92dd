package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ash-sxn/Qorlia/internal/domain"
)

// TokenKind distinguishes the two tokens issued per authentication: a
// short-lived access token and a long-lived refresh token. Both are signed
// the same way; the kind is recorded in the claims but not enforced on
// verification unless the caller opts in.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Verification failure reasons. Callers that must not leak detail (the auth
// service) collapse both into one generic message.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carried by every issued token.
type Claims struct {
	Email string    `json:"email"`
	Kind  TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer creates and verifies signed bearer tokens using a single
// process-wide secret (HS256). It is stateless: validity is determined by
// signature and expiry alone, with no revocation list.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates a token issuer. The secret is injected here rather than
// read from ambient state.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{
		secret:     []byte(secret),
		issuer:     "qorlia",
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the issuer's clock. Tests use this to step past expiry.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// TTL returns the validity duration for a token kind.
func (i *Issuer) TTL(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return i.refreshTTL
	}
	return i.accessTTL
}

// Issue signs a token for the subject with the kind's TTL.
func (i *Issuer) Issue(userID, email string, kind TokenKind) (string, error) {
	now := i.now()
	claims := Claims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL(kind))),
			Issuer:    i.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// IssuePair signs a fresh access and refresh token for the subject.
func (i *Issuer) IssuePair(userID, email string) (access, refresh string, err error) {
	access, err = i.Issue(userID, email, TokenKindAccess)
	if err != nil {
		return "", "", err
	}
	refresh, err = i.Issue(userID, email, TokenKindRefresh)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify parses and validates a token, returning its claims. Expired tokens
// fail with ErrTokenExpired; anything else malformed fails with
// ErrTokenInvalid.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// VerifySubject verifies a token and ensures the subject still resolves to an
// existing account in the credential store. A well-formed token whose subject
// is gone is treated as invalid.
func (i *Issuer) VerifySubject(tokenString string, resolve func(id string) (*domain.User, error)) (*domain.User, *Claims, error) {
	claims, err := i.Verify(tokenString)
	if err != nil {
		return nil, nil, err
	}

	user, err := resolve(claims.Subject)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}
	return user, claims, nil
}

// ExtractToken parses a "Bearer <token>" Authorization header value.
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
