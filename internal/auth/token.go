// ABOUTME: JWT access token issuing and verification for the public chat API
// ABOUTME: HMAC-signed tokens carrying the user's email in the user_identifier claim

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SubjectClaim is the claim that carries the token subject (the user's email).
const SubjectClaim = "user_identifier"

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// ErrUnsupportedAlgorithm is returned when constructing a JWT with a non-HMAC algorithm.
var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string) (subject string, err error)
}

// TokenIssuer mints access tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// JWT issues and verifies HMAC-signed access tokens.
type JWT struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
}

var (
	_ TokenVerifier = (*JWT)(nil)
	_ TokenIssuer   = (*JWT)(nil)
)

// NewJWT creates a JWT issuer/verifier. algorithm must be HS256, HS384 or HS512.
func NewJWT(secret []byte, algorithm string, ttl time.Duration) (*JWT, error) {
	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWT{secret: secret, method: method, ttl: ttl}, nil
}

// Verify validates the token and extracts the subject from the user_identifier claim.
// Only the configured algorithm is accepted and an exp claim is mandatory.
func (j *JWT) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Check if it's specifically an expiration error
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	sub, ok := claims[SubjectClaim].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingClaim, SubjectClaim)
	}

	return sub, nil
}

// Issue creates a token for subject that expires after the configured TTL.
func (j *JWT) Issue(subject string) (string, error) {
	return j.IssueWithTTL(subject, j.ttl)
}

// IssueWithTTL creates a token for subject with an explicit lifetime.
func (j *JWT) IssueWithTTL(subject string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		SubjectClaim: subject,
		"iat":        now.Unix(),
		"exp":        now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(j.method, claims)
	return token.SignedString(j.secret)
}
