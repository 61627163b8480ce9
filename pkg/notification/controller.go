package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cybershield/notifier/pkg/apiresponses"
	"github.com/cybershield/notifier/pkg/system"
)

// SendResponse is returned by POST /api/send-notification on success.
type SendResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Recipient string `json:"recipient"`
	Type      string `json:"type"`
}

// HealthResponse is returned by GET /api/health on success.
type HealthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Controller serves the notification endpoint.
type Controller struct {
	svc        *Service
	log        *zap.SugaredLogger
	strictJSON bool
}

func NewController(log *zap.SugaredLogger, svc *Service, strictJSON bool) *Controller {
	return &Controller{svc: svc, log: log, strictJSON: strictJSON}
}

func (c *Controller) BasePath() string { return "" }

func (c *Controller) Handlers() []gin.HandlerFunc { return nil }

func (c *Controller) Register(rg *gin.RouterGroup) error {
	rg.POST("/send-notification", c.handleSendNotification)
	return nil
}

func (c *Controller) handleSendNotification(ctx *gin.Context) {
	reqLog := system.GetReqLogger(ctx, c.log)

	req, err := c.parseRequest(ctx)
	if err != nil {
		reqLog.Warnw("Rejected malformed notification body", "error", err)
		var nerr *Error
		if errors.As(err, &nerr) {
			apiresponses.RespondError(ctx, nerr.StatusCode(), nerr.ResponseCode(), nerr.Message)
			return
		}
		apiresponses.RespondBadRequest(ctx, apiresponses.CodeInvalidJSON, "Invalid JSON body")
		return
	}

	res, err := c.svc.Send(ctx.Request.Context(), req, reqLog)
	if err != nil {
		var nerr *Error
		if !errors.As(err, &nerr) {
			apiresponses.RespondInternalError(ctx, "", "Failed to send notification", err, reqLog)
			return
		}
		apiresponses.RespondError(ctx, nerr.StatusCode(), nerr.ResponseCode(), nerr.Message)
		return
	}

	apiresponses.RespondOK(ctx, SendResponse{
		Success:   true,
		Message:   "Notification sent successfully",
		Recipient: res.Recipient,
		Type:      res.Type,
	})
}

// parseRequest decodes the body. Outside strict mode an empty, malformed or
// non-object body yields an empty Request, which then fails recipient validation.
// A well-formed object with a wrongly typed field is rejected as *Error naming
// the field in both modes.
func (c *Controller) parseRequest(ctx *gin.Context) (Request, error) {
	var req Request
	raw, err := ctx.GetRawData()
	if err != nil {
		return req, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if c.strictJSON {
			return req, errors.New("empty body")
		}
		return req, nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return Request{}, &Error{
				Kind:    KindValidation,
				Message: fmt.Sprintf("Invalid value for field %s: expected %s", typeErr.Field, typeErr.Type),
				Err:     err,
			}
		}
		if c.strictJSON {
			return Request{}, err
		}
		system.GetReqLogger(ctx, c.log).Debugw("Treating malformed JSON body as empty object", "error", err)
		return Request{}, nil
	}
	return req, nil
}

// HealthController serves the transport health probe.
type HealthController struct {
	checker *HealthChecker
	log     *zap.SugaredLogger
}

func NewHealthController(log *zap.SugaredLogger, checker *HealthChecker) *HealthController {
	return &HealthController{checker: checker, log: log}
}

func (h *HealthController) BasePath() string { return "" }

func (h *HealthController) Handlers() []gin.HandlerFunc { return nil }

func (h *HealthController) Register(rg *gin.RouterGroup) error {
	rg.GET("/health", h.handleHealth)
	return nil
}

func (h *HealthController) handleHealth(ctx *gin.Context) {
	ts, err := h.checker.Check(ctx.Request.Context())
	if err != nil {
		apiresponses.RespondError(ctx, http.StatusInternalServerError, apiresponses.CodeTransport, "Email service error: "+err.Error())
		return
	}
	apiresponses.RespondOK(ctx, HealthResponse{
		Success:   true,
		Message:   "Email service is operational",
		Timestamp: ts.Format(time.RFC3339),
	})
}
