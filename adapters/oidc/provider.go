package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

var (
	ErrMissingToken   = errors.New("missing token")
	ErrTokenUse       = errors.New("token is not an id token")
	ErrMissingSubject = errors.New("token has no subject")
)

// CognitoIssuer 回傳 user pool 的 issuer URL
func CognitoIssuer(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

// NewCognitoVerifier 建立 Cognito ID token 的驗證器。
// 公鑰在第一次驗證時才會從 JWKS 端點取得，啟動時不需要連線。
func NewCognitoVerifier(ctx context.Context, issuerURL, clientID string) (*IDTokenVerifier, error) {
	const op = "NewCognitoVerifier"
	if issuerURL == "" || clientID == "" {
		return nil, fmt.Errorf("[%s] issuer and client id cannot be empty", op)
	}
	keySet := oidc.NewRemoteKeySet(ctx, issuerURL+"/.well-known/jwks.json")
	return NewIDTokenVerifier(oidc.NewVerifier(issuerURL, keySet, &oidc.Config{ClientID: clientID})), nil
}
