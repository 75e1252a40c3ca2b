package identity

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pitabwire/strata/config"
)

// Claims are the portal-relevant claims carried by an access token.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Jwks is the JSON Web Key Set document published by the identity service.
type Jwks struct {
	Keys []JSONWebKeys `json:"keys"`
}

type JSONWebKeys struct {
	Kty string   `json:"kty"`
	Kid string   `json:"kid"`
	Use string   `json:"use"`
	N   string   `json:"n"`
	E   string   `json:"e"`
	X5c []string `json:"x5c"`
}

// TokenVerifier extracts and, when key material is configured, verifies
// the claims inside an access token issued by the identity service.
type TokenVerifier struct {
	cfg config.ConfigurationIdentity
}

func NewTokenVerifier(cfg config.ConfigurationIdentity) *TokenVerifier {
	return &TokenVerifier{cfg: cfg}
}

// Verify parses the supplied token. Without configured JWK data the
// claims are extracted unverified; the hosted service remains the sole
// arbiter of session validity either way.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	if v.cfg == nil || v.cfg.GetIdentityWellKnownJwkData() == "" {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}

	var parseOptions []jwt.ParserOption
	for _, aud := range v.cfg.GetIdentityVerifyAudience() {
		parseOptions = append(parseOptions, jwt.WithAudience(aud))
	}
	if issuer := v.cfg.GetIdentityVerifyIssuer(); issuer != "" {
		parseOptions = append(parseOptions, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.getPemCert, parseOptions...)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("supplied token was invalid")
	}

	return claims, nil
}

func (v *TokenVerifier) getPemCert(token *jwt.Token) (any, error) {
	wellKnownJWK := v.cfg.GetIdentityWellKnownJwkData()

	var jwks = Jwks{}
	err := json.NewDecoder(strings.NewReader(wellKnownJWK)).Decode(&jwks)
	if err != nil {
		return nil, err
	}

	for k, val := range jwks.Keys {
		if token.Header["kid"] == jwks.Keys[k].Kid {
			var exponent []byte
			if exponent, err = base64.RawURLEncoding.DecodeString(val.E); err != nil {
				return nil, err
			}

			// Decode the modulus from Base64.
			var modulus []byte
			if modulus, err = base64.RawURLEncoding.DecodeString(val.N); err != nil {
				return nil, err
			}

			// Create the RSA public key.
			publicKey := &rsa.PublicKey{}

			// According to RFC 7517, these numbers are in big-endian format.
			// https://tools.ietf.org/html/rfc7517#appendix-A.1
			expUint64 := big.NewInt(0).SetBytes(exponent).Uint64()
			if expUint64 > uint64(int(^uint(0)>>1)) {
				return nil, fmt.Errorf("exponent value %d from token is too large to fit in int type", expUint64)
			}
			publicKey.E = int(expUint64)
			publicKey.N = big.NewInt(0).SetBytes(modulus)

			return publicKey, nil
		}
	}

	return nil, errors.New("unable to find appropriate key")
}
