package handler

import (
	"errors"
	"net/http"

	"crypto-analyzer/internal/auth"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type googleSignInRequest struct {
	IDToken string `json:"id_token"`
}

// authStatus maps the closed error-code set onto HTTP statuses. Unknown
// provider failures surface as a bad gateway since the upstream misbehaved.
func authStatus(code auth.ErrorCode) int {
	switch code {
	case auth.CodeEmailInUse:
		return http.StatusConflict
	case auth.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case auth.CodeTooManyAttempts:
		return http.StatusTooManyRequests
	case auth.CodeWeakPassword, auth.CodeInvalidEmail, auth.CodeSignInCancelled:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func respondAuthError(c *gin.Context, err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		c.JSON(authStatus(authErr.Code), gin.H{
			"error": authErr.Message(),
			"code":  authErr.Code,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// SignUp godoc
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  credentialsRequest  true  "Email and password"
// @Success      200  {object}  auth.User
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/auth/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sign-up")
	defer span.End()

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SignIn godoc
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  credentialsRequest  true  "Email and password"
// @Success      200  {object}  auth.User
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/signin [post]
func (h *Handler) SignIn(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sign-in")
	defer span.End()

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SignInWithGoogle godoc
// @Summary      Sign in with a Google ID token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  googleSignInRequest  true  "Google ID token"
// @Success      200  {object}  auth.User
// @Failure      400  {object}  map[string]string
// @Router       /api/auth/google [post]
func (h *Handler) SignInWithGoogle(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sign-in-google")
	defer span.End()

	var req googleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.auth.SignInWithGoogle(ctx, req.IDToken)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SignOut godoc
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/auth/signout [post]
func (h *Handler) SignOut(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sign-out")
	defer span.End()

	if err := h.auth.SignOut(ctx); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}
