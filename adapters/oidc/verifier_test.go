package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://cognito-idp.ap-northeast-1.amazonaws.com/ap-northeast-1_test"
	testClientID = "client-id"
)

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestIDTokenVerifier_Verify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verifier := NewIDTokenVerifier(oidc.NewVerifier(
		testIssuer,
		&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}},
		&oidc.Config{ClientID: testClientID},
	))
	now := time.Now()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":              testIssuer,
			"aud":              testClientID,
			"sub":              "user-1",
			"exp":              now.Add(time.Hour).Unix(),
			"iat":              now.Unix(),
			"token_use":        "id",
			"cognito:username": "alice",
			"email":            "alice@example.com",
		}
	}

	tests := []struct {
		name    string
		mutate  func(jwt.MapClaims)
		want    *Identity
		wantErr bool
	}{
		{
			name: "valid id token",
			want: &Identity{Subject: "user-1", Username: "alice"},
		},
		{
			name:   "fallback to username",
			mutate: func(c jwt.MapClaims) { delete(c, "cognito:username"); c["username"] = "bob" },
			want:   &Identity{Subject: "user-1", Username: "bob"},
		},
		{
			name:    "access token",
			mutate:  func(c jwt.MapClaims) { c["token_use"] = "access" },
			wantErr: true,
		},
		{
			name:    "expired",
			mutate:  func(c jwt.MapClaims) { c["exp"] = now.Add(-time.Minute).Unix() },
			wantErr: true,
		},
		{
			name:    "wrong audience",
			mutate:  func(c jwt.MapClaims) { c["aud"] = "other" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := base()
			if tt.mutate != nil {
				tt.mutate(claims)
			}
			identity, err := verifier.Verify(context.Background(), signRS256(t, key, claims))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, identity)
		})
	}

	_, err = verifier.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestHMACVerifier(t *testing.T) {
	_, err := NewHMACVerifier("short", "")
	assert.Error(t, err)

	verifier, err := NewHMACVerifier("0123456789abcdef0123456789abcdef", "labelme-dev")
	require.NoError(t, err)

	token, err := verifier.Issue(Identity{Subject: "user-1", Username: "alice"}, time.Hour)
	require.NoError(t, err)
	identity, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{Subject: "user-1", Username: "alice"}, identity)

	expired, err := verifier.Issue(Identity{Subject: "user-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	other, err := NewHMACVerifier("fedcba9876543210fedcba9876543210", "labelme-dev")
	require.NoError(t, err)
	forged, err := other.Issue(Identity{Subject: "user-1"}, time.Hour)
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), forged)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = verifier.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestCognitoIssuer(t *testing.T) {
	assert.Equal(t, "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_abc", CognitoIssuer("us-east-1", "us-east-1_abc"))
}

func TestCognitoClaims_DisplayName(t *testing.T) {
	claims := CognitoClaims{Email: Email{Email: "a@b.c"}}
	assert.Equal(t, "a@b.c", claims.DisplayName())
	claims.Username = "u"
	assert.Equal(t, "u", claims.DisplayName())
	claims.CognitoUsername = "cu"
	assert.Equal(t, "cu", claims.DisplayName())
}
