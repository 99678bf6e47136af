// Package auth provides credential plumbing for rag-gateway.
//
// # Access Tokens
//
// Public API clients authenticate with a JWT obtained from POST /token:
//
//	{ "user_identifier": "<email>", "iat": <unix>, "exp": <unix> }
//
// Tokens are HMAC-signed (HS256, HS384 or HS512) with the configured secret.
// Verify accepts only the configured algorithm and requires an exp claim, so a
// token minted with another key, another algorithm or without expiry is rejected.
//
//	j, _ := auth.NewJWT([]byte(secret), "HS256", time.Hour)
//	token, _ := j.Issue("user@example.com")
//	email, err := j.Verify(token)
//
// Errors:
//
//   - ErrInvalidToken: signature, algorithm or format problem
//   - ErrExpiredToken: exp is in the past
//   - ErrMissingClaim: the token is valid but has no user_identifier
//
// # Passwords
//
// Passwords are stored as bcrypt hashes. BurnPasswordCheck is used on the
// unknown-user login path so response time does not reveal which emails exist.
package auth
