package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopd-io/shopd/internal/crypto"
)

// Claim keys used by the token payloads this service issues.
const (
	ClaimSessionID = "sid"
	ClaimEmail     = "email"
	ClaimName      = "name"
)

// TokenService signs and verifies compact RS256 JWTs. It is the only
// component that touches the key pair; everything else works with opaque
// token strings and decoded claims.
type TokenService struct {
	keys   *crypto.KeyPair
	issuer string
	leeway time.Duration
}

// NewTokenService creates a new TokenService instance. The key pair is
// immutable after startup, so a single instance is shared by all requests.
func NewTokenService(keys *crypto.KeyPair, issuer string, leeway time.Duration) *TokenService {
	return &TokenService{
		keys:   keys,
		issuer: issuer,
		leeway: leeway,
	}
}

// VerifyResult is the three-way outcome of token verification.
//
//	malformed or bad signature: {Valid:false, Expired:false, Claims:nil}
//	well-signed but expired:    {Valid:false, Expired:true,  Claims:nil}
//	well-signed and current:    {Valid:true,  Expired:false, Claims:<decoded>}
type VerifyResult struct {
	Valid   bool
	Expired bool
	Claims  jwt.MapClaims
}

// Issue serializes the payload plus registered claims (iss/exp/iat/jti) and
// signs it with the private key. The payload must not contain keys that
// collide with the registered claims.
func (s *TokenService) Issue(payload map[string]any, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"exp": jwt.NewNumericDate(now.Add(ttl)).Unix(),
		"iat": jwt.NewNumericDate(now).Unix(),
		"jti": uuid.NewString(),
	}
	for k, v := range payload {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.keys.Private)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature against the public key and the expiry against
// wall-clock time. Failures are logged for observability but never escalate:
// callers branch on the result, they do not handle errors.
//
// jwt/v5 verifies the signature before validating claims, so an expired
// result implies the signature was sound.
func (s *TokenService) Verify(tokenValue string) VerifyResult {
	parsed, err := jwt.Parse(tokenValue,
		func(*jwt.Token) (any, error) { return s.keys.Public, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug().Msg("Token verification: token expired")
			return VerifyResult{Expired: true}
		}
		log.Debug().Err(err).Msg("Token verification: malformed or invalid signature")
		return VerifyResult{}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		log.Warn().Msg("Token verification: unexpected claims type")
		return VerifyResult{}
	}
	return VerifyResult{Valid: true, Claims: claims}
}
