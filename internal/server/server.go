// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"food-log/internal/models"
	"food-log/internal/tracker"
)

type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	Name            string
	Version         string
}

// FoodLogServer answers tool calls over HTTP. Each POST / carries one
// CallToolRequest; the result comes back as a CallToolResult holding JSON text.
type FoodLogServer struct {
	tracker    *tracker.Tracker
	logger     *zap.Logger
	info       protocol.Implementation
	gatherer   prometheus.Gatherer
	httpServer *http.Server
	tools      map[string]tool
	now        func() time.Time
	config     Config

	selMu      sync.Mutex
	selections map[string]*tracker.MealSelection
}

// NewFoodLogServer wires the routes. gatherer backs /metrics; nil uses the
// default prometheus registry.
func NewFoodLogServer(cfg Config, t *tracker.Tracker, gatherer prometheus.Gatherer, logger *zap.Logger) *FoodLogServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if cfg.Name == "" {
		cfg.Name = "food-log"
	}

	s := &FoodLogServer{
		tracker:    t,
		logger:     logger,
		gatherer:   gatherer,
		now:        time.Now,
		config:     cfg,
		selections: make(map[string]*tracker.MealSelection),
		info: protocol.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
	}
	s.tools = s.registerTools()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *FoodLogServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/tools", s.handleListTools)
	r.Options("/", s.handleOptions)
	r.Post("/", s.handleHTTP)
	return r
}

// Handler exposes the router for embedding and tests.
func (s *FoodLogServer) Handler() http.Handler {
	return s.httpServer.Handler
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func (s *FoodLogServer) handleOptions(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *FoodLogServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	t, ok := s.tools[request.Name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown tool: %s", request.Name))
		return
	}

	data, err := t.handle(r.Context(), &request)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("tool call failed", zap.String("tool", request.Name), zap.Error(err))
		}
		writeError(w, status, err)
		return
	}

	result, err := s.createJSONResponse(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *FoodLogServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	resp := struct {
		Server protocol.Implementation `json:"server"`
		Tools  []toolInfo              `json:"tools"`
	}{Server: s.info}
	for _, name := range toolOrder {
		resp.Tools = append(resp.Tools, toolInfo{Name: name, Description: s.tools[name].description})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *FoodLogServer) Start(ctx context.Context) error {
	s.logger.Info("starting food log server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *FoodLogServer) Stop(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *FoodLogServer) createJSONResponse(data any) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}

var (
	errInvalidParams     = errors.New("invalid parameters")
	errSelectionNotFound = errors.New("meal selection not found")
)

func statusFor(err error) int {
	switch {
	case models.IsValidationError(err), errors.Is(err, errInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrFoodNotFound), errors.Is(err, models.ErrMealPlanNotFound),
		errors.Is(err, errSelectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrSelectionIncomplete):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		body = errorBody{Error: ve.Message, Field: ve.Field}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("url", r.URL.String()),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
