// internal/interaction/handler.go
package interaction

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"cobuilder/internal/common/errors"
	"cobuilder/internal/common/logger"
	"cobuilder/internal/common/metrics"
	"cobuilder/internal/dispatch"
	"cobuilder/internal/models"
)

const (
	TaskType = "slack-interaction"

	// DefaultMaxBodyBytes caps the request body read for verification.
	DefaultMaxBodyBytes = 1 << 20
)

// Resolver finds the venture linked to a channel; nil means unlinked.
type Resolver interface {
	Execute(ctx context.Context, channelID string) (*models.ChannelVentureMapping, error)
}

type Config struct {
	CallbackID     string
	MaxBodyBytes   int64
	ResolveTimeout time.Duration
}

// Handler serves the Slack interactivity endpoint. It answers within the
// acknowledgement window and leaves classification to the dispatcher.
type Handler struct {
	config     *Config
	verifier   *Verifier
	resolver   Resolver
	dispatcher dispatch.Dispatcher
	now        func() time.Time
	logger     logger.Logger
}

// NewHandler builds the webhook handler. An empty signingSecret is not an
// error here: every request is answered 500 until it is configured.
func NewHandler(config *Config, signingSecret string, resolver Resolver, dispatcher dispatch.Dispatcher, log logger.Logger) *Handler {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.ResolveTimeout <= 0 {
		config.ResolveTimeout = 2 * time.Second
	}

	h := &Handler{
		config:     config,
		resolver:   resolver,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	if signingSecret != "" {
		h.verifier = NewVerifier(signingSecret)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.respond(w, "unknown", http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	if h.verifier == nil {
		h.logger.Error("slack signing secret is not configured", nil)
		h.fail(w, "unknown", errors.NewServerMisconfiguredError("slack.signing_secret is empty"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes))
	if err != nil {
		h.fail(w, "unknown", errors.NewMalformedRequestError("Request body too large or unreadable"))
		return
	}

	if !h.verifier.Verify(r.Header.Get(HeaderSignature), r.Header.Get(HeaderTimestamp), body) {
		h.logger.Warn("rejected request with invalid signature", map[string]interface{}{
			"remoteAddr": r.RemoteAddr,
		})
		h.fail(w, "unknown", errors.NewInvalidSignatureError("signature mismatch or stale timestamp"))
		return
	}

	payload, err := ParsePayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		reason := "Invalid payload JSON"
		if stderrors.Is(err, ErrMissingPayload) {
			reason = "Missing payload"
		}
		h.fail(w, "unknown", errors.NewMalformedRequestError(reason))
		return
	}

	switch {
	case payload.Type == models.InteractionURLVerification:
		h.respond(w, payload.Type, http.StatusOK, map[string]string{"challenge": payload.Challenge})

	case payload.Type == models.InteractionMessageAction && payload.CallbackID == h.config.CallbackID:
		h.handleMessageAction(r.Context(), w, payload)

	default:
		h.logger.Info("unhandled interaction", map[string]interface{}{
			"type":       payload.Type,
			"callbackId": payload.CallbackID,
		})
		h.fail(w, payload.Type, errors.NewUnhandledInteractionError(payload.Type))
	}
}

func (h *Handler) handleMessageAction(ctx context.Context, w http.ResponseWriter, payload *models.InteractionPayload) {
	if payload.Channel.ID == "" || payload.Message.TS == "" {
		h.fail(w, payload.Type, errors.NewMalformedRequestError("Missing channel or message"))
		return
	}

	resolveCtx, cancel := context.WithTimeout(ctx, h.config.ResolveTimeout)
	defer cancel()

	mapping, err := h.resolver.Execute(resolveCtx, payload.Channel.ID)
	if err != nil {
		h.logger.Error("channel lookup failed", map[string]interface{}{
			"channelId": payload.Channel.ID,
			"error":     err.Error(),
		})
		h.fail(w, payload.Type, errors.NewChannelLookupFailedError(payload.Channel.ID, err))
		return
	}

	job := models.NewIngestJob(payload, mapping, h.now())
	if err := h.dispatcher.Dispatch(ctx, job); err != nil {
		h.logger.Error("dispatch rejected job", map[string]interface{}{
			"jobId":     job.JobID,
			"channelId": job.ChannelID,
			"error":     err.Error(),
		})
		h.fail(w, payload.Type, errors.NewDispatchQueueFullError())
		return
	}

	h.logger.Info("message action accepted", map[string]interface{}{
		"jobId":     job.JobID,
		"channelId": job.ChannelID,
		"messageTs": job.MessageTs,
		"linked":    mapping != nil,
	})
	metrics.SlackInteractions.WithLabelValues(payload.Type, strconv.Itoa(http.StatusOK)).Inc()
	w.WriteHeader(http.StatusOK)
}

// fail answers with the status for stdErr's code. Malformed requests echo
// their specific reason.
func (h *Handler) fail(w http.ResponseWriter, interactionType string, stdErr *errors.StandardError) {
	message := stdErr.Message
	if stdErr.Code == errors.ErrCodeMalformedRequest && stdErr.Details != "" {
		message = stdErr.Details
	}
	h.respond(w, interactionType, errors.HTTPStatus(stdErr.Code), map[string]string{"error": message})
}

func (h *Handler) respond(w http.ResponseWriter, interactionType string, status int, body interface{}) {
	metrics.SlackInteractions.WithLabelValues(interactionType, strconv.Itoa(status)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to write response", map[string]interface{}{"error": err.Error()})
	}
}
