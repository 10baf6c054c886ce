package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// bindJSON decodes the request body. Entries rejected by the timetable
// decoder surface as malformed payloads instead of plain validation errors.
func bindJSON(c *gin.Context, dest interface{}, what string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, bindError(err, "invalid "+what+" payload"))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}, what string) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, bindError(err, "invalid "+what+" query"))
		return false
	}
	return true
}

func bindError(err error, message string) *appErrors.Error {
	if errors.Is(err, timetable.ErrMalformedEntry) {
		return appErrors.Wrap(err, appErrors.ErrMalformedPayload.Code, appErrors.ErrMalformedPayload.Status, err.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}
