// Package http implements the HTTP+JSON transport of the generation service.
//
// It serves the generation endpoints consumed by qrforge clients, the Swagger
// UI for the API, and permissive CORS headers so browser clients on other
// origins can call it.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/qrforge/internal/api"
	"github.com/nadzzz/qrforge/internal/transport"

	_ "github.com/nadzzz/qrforge/internal/docs" // registers the OpenAPI document
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port    int
	swagger bool

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a new HTTP transport on the given port.
func New(port int, swagger bool) *Transport {
	return &Transport{port: port, swagger: swagger}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Listen starts the HTTP server and serves requests from svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.server = srv
	t.mu.Unlock()

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Handler builds the router serving svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	h := &handlers{svc: svc}
	r := mux.NewRouter()
	r.Use(requestID, cors)

	r.HandleFunc(api.PathGenerateQR, h.generateQR).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(api.PathGenerateSVG, h.generateSVG).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(api.PathGenerateAudio, h.generateAudio).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(api.PathHealth, h.health).Methods(http.MethodGet, http.MethodOptions)

	if t.swagger {
		r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}
	return r
}

type handlers struct {
	svc transport.Service
}

// generateQR handles POST /generate-qr.
//
// @Summary     Generate a QR code image
// @Description Renders the text as a PNG QR code and returns it as a data URI together with
// @Description the detected content type, size, creation time and input length.
// @Tags        generate
// @Accept      json
// @Produce     json
// @Param       request  body      api.GenerateRequest   true  "Text and rendering options"
// @Success     200      {object}  api.GenerateResponse  "Generated symbol"
// @Failure     400      {object}  api.ErrorResponse     "Missing text or invalid options"
// @Failure     500      {object}  api.ErrorResponse     "Rendering failed"
// @Router      /generate-qr [post]
func (h *handlers) generateQR(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.svc.GenerateQR(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// generateSVG handles POST /generate-svg.
//
// @Summary     Generate a QR code as SVG
// @Description Returns a standalone SVG document. Colors may be given with or without the leading '#'.
// @Tags        generate
// @Accept      json
// @Produce     image/svg+xml
// @Param       request  body      api.GenerateRequest  true  "Text and rendering options"
// @Success     200      {string}  string               "SVG document"
// @Failure     400      {object}  api.ErrorResponse    "Missing text or invalid options"
// @Failure     500      {object}  api.ErrorResponse    "Rendering failed"
// @Router      /generate-svg [post]
func (h *handlers) generateSVG(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if !decode(w, r, &req) {
		return
	}
	svg, err := h.svc.GenerateSVG(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// generateAudio handles POST /generate-audio.
//
// @Summary     Synthesize the text as speech
// @Description Returns base64 WAV audio when the server has a synthesizer, otherwise an acknowledgement.
// @Tags        audio
// @Accept      json
// @Produce     json
// @Param       request  body      api.AudioRequest   true  "Text to speak (at most 1000 characters)"
// @Success     200      {object}  api.AudioResponse  "Synthesis result"
// @Failure     400      {object}  api.ErrorResponse  "Missing or oversized text"
// @Failure     500      {object}  api.ErrorResponse  "Synthesis failed"
// @Router      /generate-audio [post]
func (h *handlers) generateAudio(w http.ResponseWriter, r *http.Request) {
	var req api.AudioRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.svc.GenerateAudio(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// health handles GET /health.
//
// @Summary  Service health
// @Tags     health
// @Produce  json
// @Success  200  {object}  api.HealthResponse
// @Router   /health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health(r.Context()))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid json: " + err.Error()})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	badRequest, msg := transport.ClientMessage(err)
	if badRequest {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: msg})
		return
	}
	transport.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestID tags each request with an ID, reusing the caller's when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		ctx := transport.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
		transport.Logger(ctx).Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// cors allows any origin and answers preflight requests directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close gracefully shuts down the HTTP server. A transport closed before
// Listen never starts serving.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	srv := t.server
	t.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
	return nil
}
