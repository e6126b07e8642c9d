// 參考https://docs.aws.amazon.com/cognito/latest/developerguide/amazon-cognito-user-pools-using-the-id-token.html
package oidc

type OpenID struct {
	Sub string `json:"sub"`
	Iss string `json:"iss"`
	Exp int64  `json:"exp"`
	Iat int64  `json:"iat"`
}

type Email struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// CognitoClaims 是 Cognito ID token 中會用到的欄位
type CognitoClaims struct {
	OpenID
	Email

	CognitoUsername string `json:"cognito:username"`
	Username        string `json:"username"`
	TokenUse        string `json:"token_use"`
}

// DisplayName 依序取 cognito:username、username、email
func (c *CognitoClaims) DisplayName() string {
	for _, name := range []string{c.CognitoUsername, c.Username, c.Email.Email} {
		if name != "" {
			return name
		}
	}
	return ""
}

// Identity 是驗證通過的呼叫者
type Identity struct {
	Subject  string
	Username string
}
