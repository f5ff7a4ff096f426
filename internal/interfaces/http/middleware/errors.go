package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// ErrorBody is the error envelope every endpoint replies with
type ErrorBody struct {
	Code    apperror.Code   `json:"code"`
	Reason  apperror.Reason `json:"reason,omitempty"`
	Message string          `json:"message"`
	Details any             `json:"details,omitempty"`
}

// AbortWithError renders err and stops the chain. The error is attached to the
// gin context so the request logger records the full cause.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	typed := apperror.As(err)
	if typed == nil {
		typed = apperror.Internal(err, "")
	}
	meta := apperror.MetadataFor(typed.Code())

	body := ErrorBody{
		Code:    typed.Code(),
		Reason:  typed.Reason(),
		Message: typed.Message(),
	}
	if meta.HTTPStatus >= 500 || body.Message == "" {
		body.Message = meta.PublicMessage
	}
	if meta.DetailsAllowed {
		body.Details = typed.Details()
	}

	c.AbortWithStatusJSON(meta.HTTPStatus, gin.H{"error": body})
}
