package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/pkg/apperrors"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Status: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Status: true, Message: message, Data: data})
}

// respondError maps an application error onto the envelope. Anything that
// is not an AppError is treated as an internal failure and not echoed to
// the client.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if appErr, ok := apperrors.As(err); ok {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		}
		c.JSON(appErr.HTTPStatus, APIResponse{Status: false, Message: appErr.Message})
		return
	}

	logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled error")
	c.JSON(http.StatusInternalServerError, APIResponse{Status: false, Message: "internal server error"})
}

func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIResponse{Status: false, Message: message})
}
