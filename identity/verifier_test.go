package identity_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/strata/config"
	"github.com/pitabwire/strata/identity"
)

type VerifierTestSuite struct {
	suite.Suite

	key     *rsa.PrivateKey
	jwkData string
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, &VerifierTestSuite{})
}

func (s *VerifierTestSuite) SetupSuite() {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	s.key = key

	jwks := identity.Jwks{Keys: []identity.JSONWebKeys{{
		Kty: "RSA",
		Kid: "key-1",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
	}}}

	raw, err := json.Marshal(jwks)
	s.Require().NoError(err)
	s.jwkData = string(raw)
}

func (s *VerifierTestSuite) signToken(claims identity.Claims, kid string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(s.key)
	s.Require().NoError(err)
	return signed
}

func (s *VerifierTestSuite) TestUnverifiedExtractionWithoutKeyMaterial() {
	verifier := identity.NewTokenVerifier(&config.PortalConfig{})

	claims, err := verifier.Verify(sampleToken)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "aminah@example.com", claims.Email)
}

func (s *VerifierTestSuite) TestVerifiedExtraction() {
	cfg := &config.PortalConfig{
		IdentityWellKnownJwkData: s.jwkData,
		IdentityVerifyAudience:   []string{"strata-portal"},
		IdentityVerifyIssuer:     "https://identity.example.com",
	}
	verifier := identity.NewTokenVerifier(cfg)

	token := s.signToken(identity.Claims{
		Email: "aminah@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "https://identity.example.com",
			Audience:  jwt.ClaimStrings{"strata-portal"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, "key-1")

	claims, err := verifier.Verify(token)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "aminah@example.com", claims.Email)
	require.Equal(s.T(), "user-1", claims.Subject)
}

func (s *VerifierTestSuite) TestVerificationFailures() {
	cfg := &config.PortalConfig{
		IdentityWellKnownJwkData: s.jwkData,
		IdentityVerifyIssuer:     "https://identity.example.com",
	}
	verifier := identity.NewTokenVerifier(cfg)

	testCases := []struct {
		name   string
		claims identity.Claims
		kid    string
	}{
		{
			name: "unknown signing key",
			claims: identity.Claims{RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "https://identity.example.com",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}},
			kid: "key-2",
		},
		{
			name: "expired token",
			claims: identity.Claims{RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "https://identity.example.com",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			}},
			kid: "key-1",
		},
		{
			name: "wrong issuer",
			claims: identity.Claims{RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "https://attacker.example.com",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}},
			kid: "key-1",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := verifier.Verify(s.signToken(tc.claims, tc.kid))
			require.Error(s.T(), err)
		})
	}
}
