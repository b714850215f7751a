package httputil

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/unihybrid-router/internal/common"
)

const contentTypeJSON = "application/json; charset=utf-8"

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// render encodes with sonic; gin's encoder is only used for the fallback error.
func render(c *gin.Context, status int, resp Response) {
	body, err := sonic.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to encode response")
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to encode response"})
		return
	}
	c.Data(status, contentTypeJSON, body)
}

func Success(c *gin.Context, data interface{}) {
	render(c, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	render(c, status, Response{
		Success: false,
		Error:   err,
	})
}

func BadRequest(c *gin.Context, err string) {
	Error(c, http.StatusBadRequest, err)
}

// FromError renders err with the status common.HTTPErrorFrom assigns it.
func FromError(c *gin.Context, err error, notFound ...error) {
	httpErr := common.HTTPErrorFrom(err, notFound...)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	Error(c, httpErr.StatusCode, httpErr.Message)
}
