// Package server exposes the splitter over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"textsplit/internal/adapter/cache"
	"textsplit/internal/adapter/splitter"
	"textsplit/internal/logging"
	"textsplit/internal/port"
	"textsplit/internal/usecase"
)

const headerRequestID = "X-Request-ID"

// Config configures the server. ChunkSize and ChunkOverlap are the values
// used when a request omits them.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64

	ChunkSize    int
	ChunkOverlap int
	Measurer     string
	Separators   []string
	Workers      int
	Version      string
}

type Server struct {
	config   Config
	measurer port.LengthMeasurer
	cache    *cache.SplitCache
	validate *validator.Validate
	server   *http.Server
}

// New creates a server. A nil cache disables result caching.
func New(cfg Config, measurer port.LengthMeasurer, splitCache *cache.SplitCache) *Server {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		config:   cfg,
		measurer: measurer,
		cache:    splitCache,
		validate: validate,
	}
}

// SplitRequest is the body of POST /split. Text is a pointer so that a
// missing field fails validation while "" is still accepted.
type SplitRequest struct {
	Text         *string `json:"text" validate:"required"`
	ChunkSize    int     `json:"chunk_size" validate:"gt=0"`
	ChunkOverlap int     `json:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

type BatchSplitRequest struct {
	Texts        []string `json:"texts" validate:"required"`
	ChunkSize    int      `json:"chunk_size" validate:"gt=0"`
	ChunkOverlap int      `json:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

type SplitResponse struct {
	Chunks []string `json:"chunks"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Measurer string `json:"measurer"`
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/split", s.handleSplit)
	mux.HandleFunc("/split/batch", s.handleBatchSplit)
	mux.HandleFunc("/health", s.handleHealth)

	return requestIDMiddleware(corsMiddleware(logMiddleware(mux)))
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("listening on %s", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Infof("shutting down")
		return s.Shutdown()
	}
}

func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// handleSplit handles POST /split. A request that passes validation always
// gets a 200; a failure inside the splitter is logged and answered with no
// chunks.
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := SplitRequest{ChunkSize: s.config.ChunkSize, ChunkOverlap: s.config.ChunkOverlap}
	if !s.decode(w, r, &req) {
		return
	}

	text := *req.Text
	key := cache.Key(text, req.ChunkSize, req.ChunkOverlap, s.config.Measurer)
	if s.cache != nil {
		if chunks, ok := s.cache.Get(key); ok {
			writeJSON(w, SplitResponse{Chunks: chunks}, http.StatusOK)
			return
		}
	}

	chunks, err := s.split(r.Context(), []string{text}, req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		logging.Errorf("request %s: split failed: %v", requestID(r.Context()), err)
		writeJSON(w, SplitResponse{Chunks: []string{}}, http.StatusOK)
		return
	}
	if s.cache != nil {
		s.cache.Put(key, chunks)
	}
	writeJSON(w, SplitResponse{Chunks: chunks}, http.StatusOK)
}

// handleBatchSplit handles POST /split/batch.
func (s *Server) handleBatchSplit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := BatchSplitRequest{ChunkSize: s.config.ChunkSize, ChunkOverlap: s.config.ChunkOverlap}
	if !s.decode(w, r, &req) {
		return
	}

	chunks, err := s.split(r.Context(), req.Texts, req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		logging.Errorf("request %s: batch split failed: %v", requestID(r.Context()), err)
		writeJSON(w, SplitResponse{Chunks: []string{}}, http.StatusOK)
		return
	}
	writeJSON(w, SplitResponse{Chunks: chunks}, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, HealthResponse{
		Status:   "ok",
		Version:  s.config.Version,
		Measurer: s.config.Measurer,
	}, http.StatusOK)
}

// decode reads and validates the JSON body into req, writing the error
// response itself when it fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}

	if err := s.validate.Struct(req); err != nil {
		writeError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) split(ctx context.Context, texts []string, chunkSize, chunkOverlap int) ([]string, error) {
	cfg, err := splitter.NewChunkConfig(chunkSize, chunkOverlap, s.measurer)
	if err != nil {
		return nil, err
	}
	sp, err := splitter.NewRecursiveSplitter(cfg, s.config.Separators)
	if err != nil {
		return nil, err
	}
	return usecase.NewSplitUseCase(sp, s.config.Workers).SplitMany(ctx, texts)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "ltfield":
			msgs = append(msgs, fmt.Sprintf("%s must be smaller than chunk_size", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]string{"error": message}, status)
}
