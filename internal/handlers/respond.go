package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/store"
	"github.com/gin-gonic/gin"
)

// respondData writes the standard success envelope.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondMessage writes a success envelope with a human message and optional
// payload.
func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindValidation: http.StatusBadRequest,
	apperrors.KindNotFound:   http.StatusNotFound,
	apperrors.KindForbidden:  http.StatusForbidden,
	apperrors.KindConflict:   http.StatusConflict,
	apperrors.KindInternal:   http.StatusInternalServerError,
}

// respondError maps an application error to its HTTP status and envelope.
// Internal failures are logged and returned without detail.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}

	status, known := kindStatus[appErr.Kind]
	if !known {
		status = http.StatusInternalServerError
	}

	if appErr.Kind == apperrors.KindInternal {
		slog.Error("Request failed", "path", c.FullPath(), "error", appErr.Unwrap())
		c.JSON(status, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	if len(appErr.Fields) > 0 {
		c.JSON(status, gin.H{"success": false, "errors": appErr.Fields})
		return
	}
	c.JSON(status, gin.H{"success": false, "message": appErr.Message})
}

// currentRequester extracts the identity set by the auth middleware.
func currentRequester(c *gin.Context) store.Requester {
	return store.Requester{
		ID:   c.GetUint("user_id"),
		Role: c.GetString("role"),
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
