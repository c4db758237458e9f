// Package httpapi exposes the issuance pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/orchestrator"
	"solana-cert-mint/internal/storage"
)

// maxBodyBytes caps request bodies; issuance requests are a handful of short strings.
const maxBodyBytes = 64 << 10

// Issuer defines the pipeline operations served over HTTP.
type Issuer interface {
	Issue(ctx context.Context, req orchestrator.Request) (domain.IssuedCertificate, error)
	MintExisting(ctx context.Context, req orchestrator.MintRequest) (domain.IssuedCertificate, error)
	Render(ctx context.Context, fact domain.CertificateFact) (domain.IssuedCertificate, error)
	Lookup(ctx context.Context, certificateID string) (*domain.IssuanceRecord, error)
}

// Handler wires certificate endpoints to the issuer.
type Handler struct {
	issuer Issuer
	logger *slog.Logger
}

// New constructs a certificate handler.
func New(issuer Issuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{issuer: issuer, logger: logger}
}

// Register mounts certificate endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates", h.HandleIssue)
	r.Post("/certificates/render", h.HandleRender)
	r.Get("/certificates/{id}", h.HandleGet)
	r.Post("/mint", h.HandleMint)
}

// NewRouter builds the full router: certificates, /health and /metrics.
func NewRouter(h *Handler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	h.Register(r)
	return r
}

// HandleIssue handles POST /certificates requests.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var req IssueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.serveRun(w, r, "certificate issued", func(ctx context.Context) (domain.IssuedCertificate, error) {
		return h.issuer.Issue(ctx, req.toRequest())
	})
}

// HandleMint handles POST /mint requests: mint against an uploaded metadata document.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.serveRun(w, r, "certificate minted", func(ctx context.Context) (domain.IssuedCertificate, error) {
		return h.issuer.MintExisting(ctx, req.toRequest())
	})
}

// HandleRender handles POST /certificates/render requests: render and upload the image only.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.serveRun(w, r, "certificate rendered", func(ctx context.Context) (domain.IssuedCertificate, error) {
		return h.issuer.Render(ctx, req.toFact())
	})
}

func (h *Handler) serveRun(w http.ResponseWriter, r *http.Request, msg string, run func(context.Context) (domain.IssuedCertificate, error)) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)
	start := time.Now()

	cert, err := run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "certificate request failed",
			"request_id", requestID,
			"path", r.URL.Path,
			"certificate_id", cert.CertificateID,
			"error", err,
		)
		writeIssueError(w, cert, err)
		return
	}

	h.logger.InfoContext(ctx, msg,
		"request_id", requestID,
		"certificate_id", cert.CertificateID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, fromIssued(cert))
}

// decodeBody reads a size-capped JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, domain.NewValidationError("body", "malformed JSON request"))
		return false
	}
	return true
}

// HandleGet handles GET /certificates/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rec, err := h.issuer.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:       "not_found",
				Description: "certificate not found",
			})
			return
		}
		h.logger.ErrorContext(ctx, "certificate lookup failed",
			"request_id", middleware.GetReqID(ctx),
			"certificate_id", id,
			"error", err,
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fromRecord(rec))
}

// writeIssueError adds the partial result to mint failures so callers can
// reconcile what was committed on-chain.
func writeIssueError(w http.ResponseWriter, cert domain.IssuedCertificate, err error) {
	var mintErr *domain.MintError
	if errors.As(err, &mintErr) {
		partial := fromIssued(cert)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:       "mint_failed",
			Description: err.Error(),
			Stage:       string(mintErr.Stage),
			Partial:     &partial,
		})
		return
	}
	writeError(w, err)
}

// writeError translates domain errors to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		uploadErr     *domain.UploadError
		mintErr       *domain.MintError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:       "validation_error",
			Description: validationErr.Reason,
			Field:       validationErr.Field,
		})
	case errors.As(err, &uploadErr):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:       "upload_failed",
			Description: err.Error(),
			Store:       uploadErr.Store,
		})
	case errors.As(err, &mintErr):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:       "mint_failed",
			Description: err.Error(),
			Stage:       string(mintErr.Stage),
		})
	default:
		// Internal errors never leak their description
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
