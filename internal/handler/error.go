package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tmcalister/crucible/internal/domain"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ENOTIMPL:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON error envelope returned by every endpoint.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrorResponse renders a domain error as a JSON response. Internal error
// details never leak to clients; they are logged upstream.
func ErrorResponse(c echo.Context, err error) error {
	if httpErr, ok := err.(*echo.HTTPError); ok {
		var body errorBody
		body.Error.Code = domain.EINVALID
		body.Error.Message = http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			body.Error.Message = msg
		}
		return c.JSON(httpErr.Code, body)
	}

	code := domain.ErrorCode(err)
	var body errorBody
	body.Error.Code = code
	body.Error.Message = domain.ErrorMessage(err)
	return c.JSON(ErrorCodeToHTTPStatus(code), body)
}
