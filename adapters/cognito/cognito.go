package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"labelme/models"
)

// IClient 是 CredentialService 用到的 Cognito API 子集
type IClient interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// CredentialService 以 email 作為 Cognito 使用者名稱
type CredentialService struct {
	client       IClient
	clientID     string
	clientSecret string
	logger       *slog.Logger
}

type Option func(*CredentialService)

// WithClientSecret 設置 app client secret，設置後每個請求都會帶上 SECRET_HASH
func WithClientSecret(secret string) Option {
	return func(s *CredentialService) {
		s.clientSecret = secret
	}
}

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) Option {
	return func(s *CredentialService) {
		s.logger = logger
	}
}

func NewCredentialService(client IClient, clientID string, opts ...Option) (*CredentialService, error) {
	const op = "NewCredentialService"
	if client == nil {
		return nil, fmt.Errorf("[%s] cognito client cannot be nil", op)
	}
	if clientID == "" {
		return nil, fmt.Errorf("[%s] client id cannot be empty", op)
	}
	s := &CredentialService{client: client, clientID: clientID, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("caller", "CredentialService"))
	return s, nil
}

func (s *CredentialService) SignUp(ctx context.Context, email, password string) error {
	_, err := s.client.SignUp(ctx, &cip.SignUpInput{
		ClientId:       aws.String(s.clientID),
		Username:       aws.String(email),
		Password:       aws.String(password),
		SecretHash:     s.secretHash(email),
		UserAttributes: []types.AttributeType{{Name: aws.String("email"), Value: aws.String(email)}},
	})
	if err != nil {
		return s.translate("SignUp", err, "Failed to create user")
	}
	return nil
}

func (s *CredentialService) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := s.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(s.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		SecretHash:       s.secretHash(email),
	})
	if err != nil {
		return s.translate("ConfirmSignUp", err, "Failed to verify user")
	}
	return nil
}

func (s *CredentialService) ResendConfirmationCode(ctx context.Context, email string) error {
	_, err := s.client.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(s.clientID),
		Username:   aws.String(email),
		SecretHash: s.secretHash(email),
	})
	if err != nil {
		return s.translate("ResendConfirmationCode", err, "Failed to resend verification code")
	}
	return nil
}

// Login 以 USER_PASSWORD_AUTH 流程登入
func (s *CredentialService) Login(ctx context.Context, email, password string) (*Tokens, error) {
	const op = "Login"
	params := map[string]string{"USERNAME": email, "PASSWORD": password}
	if hash := s.secretHash(email); hash != nil {
		params["SECRET_HASH"] = *hash
	}
	out, err := s.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(s.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, s.translate(op, err, "Failed to login user")
	}
	// 需要額外驗證步驟（例如 MFA）時不會有 AuthenticationResult
	if out.AuthenticationResult == nil {
		return nil, models.NewUpstreamError("Failed to login user",
			fmt.Errorf("[%s] Unsupported challenge, challenge=%s", op, out.ChallengeName))
	}
	return &Tokens{
		AccessToken:  aws.ToString(out.AuthenticationResult.AccessToken),
		IDToken:      aws.ToString(out.AuthenticationResult.IdToken),
		RefreshToken: aws.ToString(out.AuthenticationResult.RefreshToken),
	}, nil
}

func (s *CredentialService) secretHash(username string) *string {
	if s.clientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(s.clientSecret))
	mac.Write([]byte(username + s.clientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// translate 把 Cognito 錯誤轉成對外的錯誤分類
func (s *CredentialService) translate(op string, err error, fallback string) error {
	wrapped := fmt.Errorf("[%s] Fail to call cognito, err=%w", op, err)
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		s.logger.Error("Cognito request failed", slog.String("op", op), slog.Any("err", err))
		return models.NewUpstreamError(fallback, wrapped)
	}

	switch apiErr.ErrorCode() {
	case "UsernameExistsException":
		return models.NewConflictError("User already exists", wrapped)
	case "CodeMismatchException":
		return &models.Error{Kind: models.KindValidation, Message: "Invalid verification code. Please try again.", Err: wrapped}
	case "ExpiredCodeException":
		return &models.Error{Kind: models.KindValidation, Message: "Verification code has expired. Request a new one.", Err: wrapped}
	case "InvalidPasswordException", "InvalidParameterException":
		return &models.Error{Kind: models.KindValidation, Message: apiErr.ErrorMessage(), Err: wrapped}
	case "NotAuthorizedException", "UserNotFoundException":
		return models.NewAuthError("Incorrect email or password", wrapped)
	case "UserNotConfirmedException":
		return models.NewAuthError("User is not confirmed. Please verify your email.", wrapped)
	}
	s.logger.Error("Cognito request failed", slog.String("op", op), slog.String("code", apiErr.ErrorCode()), slog.Any("err", err))
	return models.NewUpstreamError(fallback, wrapped)
}
