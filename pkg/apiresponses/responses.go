/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package apiresponses

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeInvalidJSON   = "INVALID_JSON"
	CodeValidation    = "VALIDATION_ERROR"
	CodeTemplate      = "TEMPLATE_ERROR"
	CodeTransport     = "TRANSPORT_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_ERROR"
)

// APIError is the failure envelope. Every error response carries success=false.
type APIError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RespondError sends a failure envelope with the given status.
func RespondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, APIError{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// RespondBadRequest sends a 400 Bad Request response.
// Use this for client errors like a missing recipient or an unknown template.
func RespondBadRequest(c *gin.Context, code, message string) {
	if code == "" {
		code = CodeBadRequest
	}
	RespondError(c, http.StatusBadRequest, code, message)
}

// RespondNotFound sends a 404 Not Found response.
func RespondNotFound(c *gin.Context, message string) {
	RespondError(c, http.StatusNotFound, CodeNotFound, message)
}

// RespondInternalError sends a 500 Internal Server Error response.
// The message is returned to the client as-is and logged when log is set.
func RespondInternalError(c *gin.Context, code, message string, err error, log *zap.SugaredLogger) {
	if log != nil {
		log.Errorw(message, "error", err)
	}
	if code == "" {
		code = CodeInternalError
	}
	RespondError(c, http.StatusInternalServerError, code, message)
}

// RespondOK sends a 200 OK response with the given data.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}
