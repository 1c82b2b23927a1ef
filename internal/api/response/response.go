package response

import (
	"errors"
	"net/http"

	"taskhub/internal/config"
	"taskhub/internal/models"

	"github.com/gin-gonic/gin"
)

var log = config.InitLogger()

const (
	CODE_SUCCESS = 0

	MESSAGE_SUCCESS       = "success"
	MESSAGE_INTERNAL      = "internal_error"
	MESSAGE_UNAUTHORIZED  = "unauthorized"
	MESSAGE_FORBIDDEN     = "forbidden"
	MESSAGE_BAD_REQUEST   = "invalid_request"
	MESSAGE_RATE_LIMITED  = "too_many_requests"
	MESSAGE_NOT_FOUND     = "not_found"
	MESSAGE_INVALID_PARAM = "invalid_parameter"
)

// Response is the envelope of every API reply. On failure Code is the HTTP
// status and Message the reason key.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Page struct {
	Items any `json:"items"`
	Total int `json:"total"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CODE_SUCCESS,
		Message: MESSAGE_SUCCESS,
		Data:    data,
	})
}

func Paginated(c *gin.Context, items any, total int) {
	Success(c, Page{Items: items, Total: total})
}

func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    status,
		Message: message,
	})
}

var (
	notFound = []error{
		models.ErrUserNotFound, models.ErrUserOrVipNotFound, models.ErrTaskOrUserNotFound,
		models.ErrVipNotFound, models.ErrRequestNotFound, models.ErrActivityNotFound,
		models.ErrMessageNotFound, models.ErrWalletNotConfigured,
	}
	conflict = []error{
		models.ErrEmailExists, models.ErrSettingsConflict, models.ErrTelegramAlreadyLinked,
		models.ErrRequestNotPending, models.ErrTaskInProgress, models.ErrVipInUse,
		models.ErrVipAlreadyOwned, models.ErrTaskAlreadyCompleted, models.ErrRewardAlreadyClaimed,
	}
	unauthorized = []error{models.ErrInvalidCredentials, models.ErrInvalidToken}
	forbidden    = []error{models.ErrUserBanned, models.ErrWithdrawalClosed}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// StatusOf maps a reason error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case isAny(err, notFound):
		return http.StatusNotFound
	case isAny(err, conflict):
		return http.StatusConflict
	case isAny(err, unauthorized):
		return http.StatusUnauthorized
	case isAny(err, forbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// Error writes a reason error as a 4xx with its key, anything else as a 500.
func Error(c *gin.Context, err error) {
	if code := models.ReasonCode(err); code != "" {
		Fail(c, StatusOf(err), code)
		return
	}
	log.WithField("path", c.FullPath()).Error("Request failed: ", err)
	Fail(c, http.StatusInternalServerError, MESSAGE_INTERNAL)
}
