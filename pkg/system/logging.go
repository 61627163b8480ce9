// SPDX-FileCopyrightText: 2025 CyberShield Pro
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReqLoggerKey is the context key used to store request-scoped logger in gin context.
const ReqLoggerKey = "reqLogger"

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "requestID"

// NewLogger returns a development logger when debug is set and a production logger otherwise.
func NewLogger(debug bool) (*zap.Logger, error) {
	var (
		zlog *zap.Logger
		err  error
	)
	if debug {
		zlog, err = zap.NewDevelopment()
	} else {
		zlog, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return zlog, nil
}

// GetReqLogger returns the request-scoped sugared logger from gin.Context if present,
// otherwise returns the fallback.
func GetReqLogger(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return fallback
	}
	if v, ok := c.Get(ReqLoggerKey); ok {
		if l, ok2 := v.(*zap.SugaredLogger); ok2 {
			return l
		}
	}
	return fallback
}

// NotificationFields returns key/value pairs identifying a notification for
// SugaredLogger.With or Infow/Errorw calls. An empty template is omitted.
func NotificationFields(recipient, template string) []interface{} {
	if template == "" {
		return []interface{}{"recipient", recipient}
	}
	return []interface{}{"recipient", recipient, "type", template}
}
