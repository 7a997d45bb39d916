package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/discbaboons/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	ResetCode   string `json:"resetCode"`
	NewPassword string `json:"newPassword"`
	Username    string `json:"username"`
	Email       string `json:"email"`
}

type forgotUsernameRequest struct {
	Email string `json:"email"`
}

func (s *HTTPServer) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}

	res, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    res.User,
		"tokens":  res.Tokens,
	})
}

func (s *HTTPServer) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}

	pair, err := s.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (s *HTTPServer) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bind(c, &req) {
		return
	}

	msg, err := s.auth.ForgotPassword(c.Request.Context(), services.ForgotPasswordRequest{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func (s *HTTPServer) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}

	msg, err := s.auth.ChangePassword(c.Request.Context(), services.ChangePasswordRequest{
		ResetCode:   req.ResetCode,
		NewPassword: req.NewPassword,
		Username:    req.Username,
		Email:       req.Email,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func (s *HTTPServer) ForgotUsername(c *gin.Context) {
	var req forgotUsernameRequest
	if !bind(c, &req) {
		return
	}

	msg, err := s.auth.ForgotUsername(c.Request.Context(), req.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func (s *HTTPServer) Me(c *gin.Context) {
	userID, ok := UserIDFromContext(c)
	if !ok {
		abortUnauthorized(c, msgInvalidToken)
		return
	}

	user, err := s.auth.Me(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// bind decodes the JSON body into dst. An empty body decodes as {} so the
// service can report which field is missing.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return false
	}
	return true
}
