package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/valyala/fastjson"
	"golang.org/x/crypto/bcrypt"

	"github.com/coffersTech/tierlog/internal/buffer"
	"github.com/coffersTech/tierlog/internal/codec"
)

// maxIngestBody caps the size of a single ingest request.
const maxIngestBody = 4 << 20

// Options configures a Server.
type Options struct {
	// Codec is used when a request does not name one. Defaults to JSON.
	Codec codec.Codec
	// DefaultMaxBytes is the payload budget when max_bytes is absent.
	DefaultMaxBytes int
	// AuthTokenHash is a bcrypt hash of the API token. Empty disables auth.
	AuthTokenHash string
	// Journal, when set, is synced once per ingest request.
	Journal *buffer.Journal
	Logger  logr.Logger
}

// Server exposes a Store over HTTP.
type Server struct {
	store     *buffer.Store
	codec     codec.Codec
	maxBytes  int
	tokenHash []byte
	journal   *buffer.Journal
	logger    logr.Logger
	parser    fastjson.ParserPool
	srv       *http.Server
	handler   http.Handler
}

// New creates a Server for store.
func New(store *buffer.Store, opts Options) *Server {
	s := &Server{
		store:    store,
		codec:    opts.Codec,
		maxBytes: opts.DefaultMaxBytes,
		journal:  opts.Journal,
		logger:   opts.Logger,
	}
	if s.codec == nil {
		s.codec = codec.JSON
	}
	if s.maxBytes <= 0 {
		s.maxBytes = 64 * 1024
	}
	if opts.AuthTokenHash != "" {
		s.tokenHash = []byte(opts.AuthTokenHash)
	}
	if s.logger.GetSink() == nil {
		s.logger = logr.Discard()
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/api/logs", s.AuthMiddleware(http.HandlerFunc(s.handleLogs)))
	mux.Handle("/api/ingest", s.AuthMiddleware(http.HandlerFunc(s.handleIngest)))
	mux.Handle("/api/stats", s.AuthMiddleware(http.HandlerFunc(s.handleStats)))

	return s.requestMiddleware(mux)
}

// Handler returns the root handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestMiddleware tags every request with an ID and logs its outcome.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.V(1).Info("request served",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// AuthMiddleware checks the bearer token (or ?token=) against the
// configured bcrypt hash. It passes everything through when no hash is
// configured.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokenHash == nil {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		var token string
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			token = r.URL.Query().Get("token")
		}

		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="tierlog"`)
			http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword(s.tokenHash, []byte(token)); err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="tierlog"`)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "JSON encode error")
	}
}
