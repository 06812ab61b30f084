// Package server exposes caption rendering over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ByLCY/telop/layout"
	"github.com/ByLCY/telop/renderer"
	canvasrenderer "github.com/ByLCY/telop/renderer/canvas"
)

// 与前端约定的错误提示文案。
const generateFailed = "画像の生成に失敗しました"

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Engine lays out and paints compositions. The canvas renderer satisfies it.
type Engine interface {
	layout.Typesetter
	renderer.Renderer
}

// Server handles caption rendering requests.
type Server struct {
	cfg     Config
	engine  Engine
	logger  *log.Logger
	metrics *metrics
	reg     *prometheus.Registry

	// 同一 Engine 的字体状态在一次排版与绘制期间不能被其他请求改动，逐个处理。
	mu sync.Mutex
}

// New creates a server backed by the canvas renderer.
func New(cfg Config, logger *log.Logger) (*Server, error) {
	r, err := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:    cfg.BaseDir,
		Fonts:      cfg.Fonts,
		Images:     cfg.Images,
		Resolution: cfg.Resolution,
	})
	if err != nil {
		return nil, err
	}
	return NewWithEngine(cfg, r, logger), nil
}

// NewWithEngine creates a server around an arbitrary engine.
func NewWithEngine(cfg Config, engine Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	reg := prometheus.NewRegistry()
	return &Server{
		cfg:     cfg,
		engine:  engine,
		logger:  logger,
		metrics: newMetrics(reg),
		reg:     reg,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-image", s.generateImage)
		r.Post("/layout", s.layoutDebug)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// generateImage handles POST /api/generate-image.
func (s *Server) generateImage(w http.ResponseWriter, r *http.Request) {
	format, err := renderer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	start := time.Now()
	data, comp, err := s.render(req, format)
	if err != nil {
		s.fail(w, statusFor(err), err)
		return
	}
	s.metrics.duration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	for _, o := range comp.Overflow() {
		s.metrics.overflow.WithLabelValues(o.Block).Inc()
		s.logger.Warn("caption overflow", "block", o.Block, "line", o.Line, "reason", o.Reason)
	}
	s.logger.Info("generated image",
		"font", comp.Font.Family,
		"weight", comp.Font.Weight,
		"format", format,
		"bytes", len(data),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename(req.Timestamp, format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write response failed", "err", err)
	}
}

// layoutDebug handles POST /api/layout and returns the composition as JSON.
func (s *Server) layoutDebug(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	comp, err := layout.Compose(req, s.engine)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, statusFor(err), err)
		return
	}
	data, err := layout.MarshalDebugJSON(comp)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (layout.Request, bool) {
	var req layout.Request
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("请求体不是有效的 JSON: %w", err))
		return layout.Request{}, false
	}
	if len(req.ColorMap) == 0 && len(s.cfg.Palette) > 0 {
		req.ColorMap = s.cfg.Palette
	}
	return req, true
}

func (s *Server) render(req layout.Request, format renderer.Format) ([]byte, *layout.Composition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comp, err := layout.Compose(req, s.engine)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.engine.Render(comp, format)
	if err != nil {
		return nil, nil, err
	}
	return data, comp, nil
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("image generation failed", "err", err)
	} else {
		s.logger.Warn("rejected request", "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: generateFailed, Details: err.Error()})
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, layout.ErrInvalidInput), errors.Is(err, renderer.ErrUnsupportedFormat),
		errors.Is(err, renderer.ErrUnsafePath):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// filename 生成下载文件名；时间戳来自客户端，只保留安全字符。
func filename(timestamp string, f renderer.Format) string {
	ts := unsafeFilename.ReplaceAllString(timestamp, "")
	if ts == "" {
		ts = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	return "text_image_" + ts + f.Ext()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
