package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coregx/pushcomm"
)

const (
	errCodeBadRequest      = "BAD_REQUEST"
	errCodeUnauthenticated = "UNAUTHENTICATED"
	errCodeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondWithError(c *gin.Context, status int, code, message string, details ...string) {
	resp := ErrorResponse{Error: message, Code: code}
	if len(details) > 0 {
		resp.Message = details[0]
	}
	c.JSON(status, resp)
}

func respondSuccess(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, SuccessResponse{Success: true, Data: data, Message: message})
}

// statusFor maps a directory error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case pushcomm.ErrCodeInvalidArgument, pushcomm.ErrCodeValidation:
		return http.StatusBadRequest
	case pushcomm.ErrCodeUnauthorized:
		return http.StatusForbidden
	case pushcomm.ErrCodeNoData, pushcomm.ErrCodeNotSubscribed, pushcomm.ErrCodeDelegateNotFound:
		return http.StatusNotFound
	case pushcomm.ErrCodeAlreadySubscribed, pushcomm.ErrCodeDelegateAlreadyAdded,
		pushcomm.ErrCodeAlreadyInitialized, pushcomm.ErrCodeNotInitialized,
		pushcomm.ErrCodeAlreadyPaused, pushcomm.ErrCodeNotPaused,
		pushcomm.ErrCodeOverflow, pushcomm.ErrCodeUnderflow:
		return http.StatusConflict
	case pushcomm.ErrCodeContractPaused:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// respondDirectoryError writes err, hiding internal failures from the caller.
func (h *Handler) respondDirectoryError(c *gin.Context, op string, err error) {
	code := pushcomm.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		h.logger.Errorf("%s failed: %v", op, err)
		respondWithError(c, status, errCodeInternal, "Internal server error")
		return
	}
	respondWithError(c, status, code, "Request rejected", err.Error())
}
