package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/gin-gonic/gin"
)

const msgInternal = "Internal server error"

// statusFor maps service errors to a status and a caller-safe message.
func statusFor(err error) (int, string) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, common.ErrAuthentication):
		return http.StatusUnauthorized, common.ErrAuthentication.Error()
	case errors.Is(err, common.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, common.ErrInvalidRefreshToken.Error()
	case errors.Is(err, common.ErrInvalidResetCode):
		return http.StatusBadRequest, common.ErrInvalidResetCode.Error()
	case errors.Is(err, common.ErrAuthorization):
		return http.StatusUnauthorized, msgInvalidToken
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *HTTPServer) respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}
