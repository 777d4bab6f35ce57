package back

import (
	"errors"
	"net/http"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// Response is the uniform JSON envelope returned by every endpoint.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Result maps a (data, err) pair onto the envelope. Domain errors are
// translated to their HTTP-style codes; anything else is a server error.
func Result(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	var ce *xerr.CodeError
	if errors.As(err, &ce) {
		Error(c, ce.Code, ce.Message)
		return
	}

	switch {
	case errors.Is(err, entity.ErrNotFound):
		Error(c, xerr.NotFound, err.Error())
	case errors.Is(err, entity.ErrBackendUnavailable):
		Error(c, xerr.ServiceUnavailable, err.Error())
	case errors.Is(err, entity.ErrDimensionMismatch),
		errors.Is(err, entity.ErrImageNotFound),
		errors.Is(err, entity.ErrUnsupportedFormat):
		Error(c, xerr.BadRequest, err.Error())
	default:
		Error(c, xerr.InternalServerError, err.Error())
	}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    xerr.OK,
		Message: "Success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}
