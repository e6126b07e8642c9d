//go:generate mockgen -package=api -destination=mock.go -source=interfaces.go

package api

import (
	"context"

	"labelme/adapters/cognito"
	"labelme/adapters/oidc"
)

// ICredentialService 定義了帳號註冊與登入的操作介面
type ICredentialService interface {
	SignUp(ctx context.Context, email, password string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendConfirmationCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*cognito.Tokens, error)
}

// ITokenVerifier 驗證 ID token 並取出使用者身分
type ITokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*oidc.Identity, error)
}
