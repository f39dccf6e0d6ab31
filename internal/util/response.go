package util

import (
	"errors"
	"net/http"

	"pracas_backend/internal/i18n"
	"pracas_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse wraps one page of a listing.
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: i18n.T(c.Request.Context(), "Success"),
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: i18n.T(c.Request.Context(), "Created"),
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, i18n.T(c.Request.Context(), "Unauthorized"))
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, i18n.T(c.Request.Context(), "Forbidden"))
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, i18n.T(c.Request.Context(), "NotFound"))
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, i18n.T(c.Request.Context(), "InternalError"))
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}

// errorStatus maps sentinel errors to a status and a message id. Order
// matters: the first match wins.
var errorStatus = []struct {
	err    error
	status int
	msgID  string
}{
	{ErrInvalidCredentials, http.StatusUnauthorized, "InvalidCredentials"},
	{ErrInactiveUser, http.StatusForbidden, "InactiveUser"},
	{ErrPermissionDenied, http.StatusForbidden, "Forbidden"},
	{ErrTallyNotInLocation, http.StatusNotFound, "TallyNotInLocation"},
	{ErrNotFound, http.StatusNotFound, "NotFound"},
	{ErrEmailInUse, http.StatusConflict, "EmailInUse"},
	{ErrUsernameTaken, http.StatusConflict, "UsernameTaken"},
	{ErrLocationInUse, http.StatusConflict, "LocationHasAssessments"},
	{ErrConflict, http.StatusConflict, "Conflict"},
	{ErrInviteExpired, http.StatusBadRequest, "InviteExpired"},
	{ErrInviteEmail, http.StatusBadRequest, "InviteEmailMismatch"},
}

// HandleError writes the envelope for err. Unknown errors are logged and
// reported as 500.
func HandleError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var verr *ValidationError
	if errors.As(err, &verr) {
		ErrorWithData(c, http.StatusBadRequest, i18n.T(ctx, "ValidationFailed"), verr.Fields)
		return
	}

	var data interface{}
	var detailed *DetailedError
	if errors.As(err, &detailed) {
		data = detailed.Data
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			ErrorWithData(c, e.status, i18n.T(ctx, e.msgID), data)
			return
		}
	}
	LogInternalError(c, err)
}
