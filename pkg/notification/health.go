package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cybershield/notifier/pkg/mail"
	"github.com/cybershield/notifier/pkg/metrics"
)

// HealthChecker probes the mail transport without sending anything.
type HealthChecker struct {
	sender mail.Sender
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewHealthChecker(sender mail.Sender, log *zap.SugaredLogger) *HealthChecker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HealthChecker{sender: sender, log: log.Named("health"), now: time.Now}
}

// Check opens a connection to the transport. On success it returns the probe time.
func (h *HealthChecker) Check(_ context.Context) (time.Time, error) {
	if err := h.sender.Ping(); err != nil {
		metrics.HealthChecksTotal.WithLabelValues("failure").Inc()
		h.log.Errorw("Mail transport health check failed",
			"host", h.sender.GetHost(),
			"port", h.sender.GetPort(),
			"error", err)
		return time.Time{}, fmt.Errorf("connecting to %s:%d: %w", h.sender.GetHost(), h.sender.GetPort(), err)
	}
	metrics.HealthChecksTotal.WithLabelValues("success").Inc()
	return h.now(), nil
}
