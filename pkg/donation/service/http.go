package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/brightfund/donation-gateway/pkg/app/errors"
	apphttp "github.com/brightfund/donation-gateway/pkg/app/http"
	"github.com/brightfund/donation-gateway/pkg/donation"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the donation endpoints on the given chi router.
// The resource is method-dispatched at a single path: POST creates an
// intent, GET polls status, PUT submits a transaction hash.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/api/payments/crypto", apphttp.HandleError(h.createIntent))
	r.Get("/api/payments/crypto", apphttp.HandleError(h.getStatus))
	r.Put("/api/payments/crypto", apphttp.HandleError(h.submitHash))
}

func (h *HTTP) createIntent(w http.ResponseWriter, r *http.Request) error {
	var req donation.CreateRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.service.CreateIntent(r.Context(), &req)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusCreated, resp)
	return nil
}

func (h *HTTP) getStatus(w http.ResponseWriter, r *http.Request) error {
	donationID := r.URL.Query().Get("donationId")
	if donationID == "" {
		return apperrors.BadRequestError(nil, "donationId query parameter is required")
	}

	resp, err := h.service.GetStatus(r.Context(), donationID)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) submitHash(w http.ResponseWriter, r *http.Request) error {
	var req donation.SubmitRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.service.SubmitHash(r.Context(), &req)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) readJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
