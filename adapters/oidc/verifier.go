package oidc

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// IDTokenVerifier 驗證 OIDC ID token 並取出呼叫者身分
type IDTokenVerifier struct {
	idTokenVerifier *oidc.IDTokenVerifier
}

func NewIDTokenVerifier(verifier *oidc.IDTokenVerifier) *IDTokenVerifier {
	return &IDTokenVerifier{idTokenVerifier: verifier}
}

func (v *IDTokenVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	const op = "VerifyIDToken"
	if rawIDToken == "" {
		return nil, ErrMissingToken
	}
	idToken, err := v.idTokenVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("[%s] err=%w", op, err)
	}
	var claims CognitoClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse claims, err=%w", op, err)
	}
	// access token 的 aud 不同，理論上不會走到這裡
	if claims.TokenUse != "" && claims.TokenUse != "id" {
		return nil, fmt.Errorf("[%s] token_use=%s, err=%w", op, claims.TokenUse, ErrTokenUse)
	}
	if idToken.Subject == "" {
		return nil, fmt.Errorf("[%s] err=%w", op, ErrMissingSubject)
	}
	return &Identity{Subject: idToken.Subject, Username: claims.DisplayName()}, nil
}

// HMACVerifier 以共享密鑰驗證 HS256 token，只用於本機開發與測試
type HMACVerifier struct {
	secret []byte
	issuer string
}

type hmacClaims struct {
	jwt.RegisteredClaims
	CognitoUsername string `json:"cognito:username,omitempty"`
	Username        string `json:"username,omitempty"`
	TokenUse        string `json:"token_use,omitempty"`
}

func NewHMACVerifier(secret, issuer string) (*HMACVerifier, error) {
	const op = "NewHMACVerifier"
	if len(secret) < 16 {
		return nil, fmt.Errorf("[%s] secret must be at least 16 bytes", op)
	}
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}, nil
}

func (v *HMACVerifier) Verify(_ context.Context, rawToken string) (*Identity, error) {
	const op = "VerifyHMAC"
	if rawToken == "" {
		return nil, ErrMissingToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &hmacClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (any, error) { return v.secret, nil }, opts...)
	if err != nil {
		return nil, fmt.Errorf("[%s] err=%w", op, err)
	}
	if claims.TokenUse != "" && claims.TokenUse != "id" {
		return nil, fmt.Errorf("[%s] token_use=%s, err=%w", op, claims.TokenUse, ErrTokenUse)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("[%s] err=%w", op, ErrMissingSubject)
	}
	username := claims.CognitoUsername
	if username == "" {
		username = claims.Username
	}
	return &Identity{Subject: claims.Subject, Username: username}, nil
}

// Issue 簽發與 Cognito ID token 欄位相同的 token
func (v *HMACVerifier) Issue(identity Identity, ttl time.Duration) (string, error) {
	const op = "IssueHMAC"
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, hmacClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CognitoUsername: identity.Username,
		TokenUse:        "id",
	})
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to sign token, err=%w", op, err)
	}
	return signed, nil
}
