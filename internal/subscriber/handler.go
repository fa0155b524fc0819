// AngelaMos | 2026
// handler.go

package subscriber

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
	"github.com/carterperez-dev/templates/newsletter-api/internal/middleware"
)

const maxBodyBytes = 64 << 10

const (
	msgCheckInbox       = "Please check your inbox to confirm your subscription."
	msgConfirmed        = "Subscription confirmed!"
	msgAlreadyConfirmed = "Already confirmed."
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/subscribe", h.Subscribe)
	r.Get("/confirm-subscribe", h.Confirm)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(w, r)
	if err != nil {
		core.BadRequest(w, "Invalid request format")
		return
	}

	req, err := ParseSubscription(payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.service.Subscribe(r.Context(), req, requestContext(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !result.EmailSent {
		h.logger.InfoContext(r.Context(), "subscription already confirmed, email skipped",
			"subscriber_id", result.Subscriber.ID,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}

	core.Success(w, msgCheckInbox)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Confirm(
		r.Context(),
		r.URL.Query().Get("token"),
		requestContext(r),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if result.AlreadyConfirmed {
		core.Success(w, msgAlreadyConfirmed)
		return
	}

	core.Success(w, msgConfirmed)
}

// writeError maps service errors to their public status and message. The
// cause and any driver code go to the log only.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		attrs := []any{
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		}
		if code := core.DriverErrorCode(err); code != "" {
			attrs = append(attrs, "code", code)
		}
		h.logger.ErrorContext(r.Context(), appErr.Message, attrs...)
	}

	core.JSONError(w, appErr)
}

func toAppError(err error) *core.AppError {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return core.BadRequestError("Invalid email address", err)
	case errors.Is(err, ErrConsentRequired):
		return core.BadRequestError("Consent required before subscribing", err)
	case errors.Is(err, ErrMissingToken):
		return core.BadRequestError("Missing confirmation token", err)
	case errors.Is(err, core.ErrInvalidInput):
		return core.BadRequestError("Invalid request format", err)
	case errors.Is(err, core.ErrNotFound):
		return core.NotFoundError("Invalid or expired token", err)
	case errors.Is(err, core.ErrConfiguration):
		return core.InternalError("Server configuration error", err)
	case errors.Is(err, ErrConfirmFailed):
		return core.InternalError("Failed to confirm subscription", err)
	case errors.Is(err, core.ErrStoreUnavailable):
		return core.InternalError("Database error", err)
	case errors.Is(err, core.ErrMailDelivery):
		return core.InternalError("Failed to send confirmation email", err)
	default:
		return core.InternalError("Internal server error", err)
	}
}

func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	payload := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = map[string]any{}
	}

	return payload, nil
}

func requestContext(r *http.Request) RequestContext {
	return RequestContext{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}
