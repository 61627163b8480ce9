package system

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		logger, err := NewLogger(debug)
		require.NoError(t, err)
		require.NotNil(t, logger)
		require.Equal(t, debug, logger.Core().Enabled(zap.DebugLevel))
	}
}

func TestGetReqLoggerFallbackWhenContextNil(t *testing.T) {
	fallback := zap.NewNop().Sugar()
	require.Same(t, fallback, GetReqLogger(nil, fallback))
}

func TestGetReqLoggerFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewNop().Sugar()
	stored := zap.NewNop().Sugar()
	ctx.Set(ReqLoggerKey, stored)
	require.Same(t, stored, GetReqLogger(ctx, fallback))
}

func TestGetReqLoggerIgnoresInvalidTypes(t *testing.T) {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := zap.NewNop().Sugar()
	ctx.Set(ReqLoggerKey, "not-a-logger")
	require.Same(t, fallback, GetReqLogger(ctx, fallback))
}

func TestNotificationFields(t *testing.T) {
	require.Equal(t, []interface{}{"recipient", "a@b.com", "type", "login"}, NotificationFields("a@b.com", "login"))
	require.Equal(t, []interface{}{"recipient", "a@b.com"}, NotificationFields("a@b.com", ""))

	core, recorded := observer.New(zap.InfoLevel)
	zap.New(core).Sugar().Infow("sent", NotificationFields("a@b.com", "login")...)
	ctx := recorded.All()[0].ContextMap()
	require.Equal(t, "a@b.com", ctx["recipient"])
	require.Equal(t, "login", ctx["type"])
}
