package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-tracker/internal/constants"
	apierrors "github.com/yukikurage/daily-tracker/internal/errors"
	"github.com/yukikurage/daily-tracker/internal/services"
)

// respondError maps service errors onto the API error envelope. Unknown
// errors are attached to the context for the request logger and reported as
// 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFileContentMissing):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidChannel),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrMessageRequired),
		errors.Is(err, services.ErrInvalidParent),
		errors.Is(err, services.ErrInvalidFolder):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrPhoneTaken):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrDuplicateTask):
		apierrors.Duplicate(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrInvalidOTP):
		apierrors.InvalidOTP(c, err.Error())
	case errors.Is(err, services.ErrQuotaExceeded):
		apierrors.QuotaExceeded(c, err.Error(), nil)
	case errors.Is(err, services.ErrOTPDelivery):
		_ = c.Error(err)
		apierrors.BadGateway(c, services.ErrOTPDelivery.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// respondAIError reports failures of the upstream AI call as 502.
func respondAIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAIServiceNotConfigured),
		errors.Is(err, services.ErrQuotaExceeded),
		errors.Is(err, services.ErrMessageRequired),
		errors.Is(err, services.ErrNotFound):
		respondError(c, err)
	default:
		_ = c.Error(err)
		apierrors.BadGateway(c, "AI request failed")
	}
}
