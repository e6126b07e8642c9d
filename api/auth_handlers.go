package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resendRequest struct {
	Email string `json:"email"`
}

// SignUp
// (POST /auth/signup)
func (impl *ServerImpl) SignUp(c *gin.Context) {
	var req credentialsRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondMessage(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := impl.deps.Credentials.SignUp(c.Request.Context(), req.Email, req.Password); err != nil {
		respondError(c, err, "Failed to create user")
		return
	}
	respondMessage(c, http.StatusOK, "User created successfully. Please verify your email.")
}

// VerifyUser
// (POST /auth/verify-user)
func (impl *ServerImpl) VerifyUser(c *gin.Context) {
	var req verifyRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Email == "" || req.Code == "" {
		respondMessage(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := impl.deps.Credentials.ConfirmSignUp(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err, "Failed to verify user")
		return
	}
	respondMessage(c, http.StatusOK, "User verified successfully. You can now log in.")
}

// ResendVerification
// (POST /auth/resend-verification)
func (impl *ServerImpl) ResendVerification(c *gin.Context) {
	var req resendRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Email == "" {
		respondMessage(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := impl.deps.Credentials.ResendConfirmationCode(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "Failed to resend verification code")
		return
	}
	respondMessage(c, http.StatusOK, "Verification code resent successfully.")
}

// Login
// (POST /auth/login)
func (impl *ServerImpl) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondMessage(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	tokens, err := impl.deps.Credentials.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Failed to login user")
		return
	}
	c.JSON(http.StatusOK, tokens)
}
