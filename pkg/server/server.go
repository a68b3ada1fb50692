// Package server exposes a Converter over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"google.golang.org/api/idtoken"

	"github.com/willangley/pdf-sprinkles/pkg/sprinkles"
)

// iapHeader carries the signed identity assertion added by Identity-Aware Proxy.
const iapHeader = "X-Goog-IAP-JWT-Assertion"

// Converter produces a searchable PDF.
type Converter interface {
	Convert(ctx context.Context, input []byte, name string) ([]byte, error)
}

// Warmer prepares expensive process-wide handles ahead of the first request.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// Config controls request limits and error detail.
type Config struct {
	MaxInputSize     int
	MaxOutputSize    int    // 0 = unlimited
	ExpectedAudience string // empty disables IAP checks
	Debug            bool   // include error detail in responses
}

// ValidateFunc checks an identity token for an audience.
type ValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Server is the HTTP surface. It implements http.Handler.
type Server struct {
	conv     Converter
	warmer   Warmer
	cfg      Config
	logger   *log.Logger
	validate ValidateFunc
	mux      *http.ServeMux
}

// New creates a Server. warmer may be nil.
func New(conv Converter, warmer Warmer, cfg Config, logger *log.Logger) *Server {
	if cfg.MaxInputSize <= 0 {
		cfg.MaxInputSize = sprinkles.DefaultMaxInputSize
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}
	s := &Server{
		conv:     conv,
		warmer:   warmer,
		cfg:      cfg,
		logger:   logger,
		validate: idtoken.Validate,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /recognize", s.requireIdentity(s.handleRecognize))
	s.mux.HandleFunc("GET /healthz", s.requireIdentity(s.handleHealth))
	s.mux.HandleFunc("GET /_ah/warmup", s.handleWarmup)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// requestLogger tags every line logged for r with a request id and, behind
// Google's front end, the trace id.
func (s *Server) requestLogger(r *http.Request) *log.Logger {
	ctx := log.NewContext(nil).Str("request_id", uuid.NewString())
	if trace := r.Header.Get("X-Cloud-Trace-Context"); trace != "" {
		traceID, _, _ := strings.Cut(trace, "/")
		ctx = ctx.Str("trace", traceID)
	}
	logger := *s.logger
	logger.Context = ctx.Value()
	return &logger
}

func (s *Server) requireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.ExpectedAudience == "" {
			next(w, r)
			return
		}
		token := r.Header.Get(iapHeader)
		if token == "" {
			http.Error(w, "missing identity assertion", http.StatusUnauthorized)
			return
		}
		payload, err := s.validate(r.Context(), token, s.cfg.ExpectedAudience)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected identity assertion")
			http.Error(w, "invalid identity assertion", http.StatusUnauthorized)
			return
		}
		if email, ok := payload.Claims["email"].(string); ok {
			s.logger.Debug().Str("email", email).Str("path", r.URL.Path).Msg("authenticated request")
		}
		next(w, r)
	}
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	name := r.URL.Query().Get("filename")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "filename is required", "", "")
		return
	}

	input, err := io.ReadAll(io.LimitReader(r.Body, int64(s.cfg.MaxInputSize)+1))
	if err != nil {
		logger.Error().Err(err).Msg("failed to read upload")
		s.writeError(w, http.StatusBadRequest, "failed to read upload", "", err.Error())
		return
	}

	output, err := s.conv.Convert(r.Context(), input, name)
	if err == nil && s.cfg.MaxOutputSize > 0 && len(output) > s.cfg.MaxOutputSize {
		err = fmt.Errorf("%w: %d bytes exceeds %d", sprinkles.ErrOutputTooLarge, len(output), s.cfg.MaxOutputSize)
	}
	if err != nil {
		s.handleConvertError(w, logger, name, err)
		return
	}

	logger.Info().Str("filename", name).Int("bytes", len(output)).Msg("served searchable PDF")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(name))
	w.Header().Set("Cache-Control", "private")
	w.Write(output)
}

func (s *Server) handleConvertError(w http.ResponseWriter, logger *log.Logger, name string, err error) {
	category := sprinkles.Classify(err)
	detail := err.Error()
	var malformed *sprinkles.MalformedInputError
	if errors.As(err, &malformed) && malformed.Cause() != nil {
		detail = malformed.Cause().Error()
	}
	logger.Error().Err(err).Str("filename", name).Str("category", string(category)).Str("detail", detail).Msg("conversion failed")

	status := http.StatusInternalServerError
	message := "internal error"
	switch category {
	case sprinkles.CategoryTooLarge:
		status, message = http.StatusRequestEntityTooLarge, "PDF too large"
	case sprinkles.CategoryMalformedInput:
		status, message = http.StatusBadRequest, err.Error()
	case sprinkles.CategoryServiceError:
		status, message = http.StatusBadGateway, err.Error()
	case sprinkles.CategoryOutputTooLarge:
		message = "output PDF too large"
	}
	s.writeError(w, status, message, category, detail)
}

type errorResponse struct {
	Message  string             `json:"message"`
	Category sprinkles.Category `json:"category,omitempty"`
	Detail   string             `json:"detail,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, category sprinkles.Category, detail string) {
	resp := errorResponse{Message: message, Category: category}
	if s.cfg.Debug {
		resp.Detail = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleWarmup(w http.ResponseWriter, r *http.Request) {
	if s.warmer != nil {
		if err := s.warmer.Warmup(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("warmup failed")
			http.Error(w, "warmup failed", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

// contentDisposition builds an attachment header that survives non-ASCII names.
func contentDisposition(name string) string {
	return "attachment; filename*=utf-8''" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
