// Package server is the preview server: every request renders the
// configured template with a fresh presenter over the shared registry.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sambeau/viewscope/config"
	"github.com/sambeau/viewscope/pkg/viewscope/cast"
	scopeerrors "github.com/sambeau/viewscope/pkg/viewscope/errors"
	"github.com/sambeau/viewscope/pkg/viewscope/logging"
	"github.com/sambeau/viewscope/pkg/viewscope/lookup"
	"github.com/sambeau/viewscope/pkg/viewscope/presenter"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

// Server renders templates against a root item.
type Server struct {
	cfg   *config.Config
	reg   *provider.Registry
	casts *cast.Registry
	log   *logging.Logger

	mu   sync.RWMutex
	root any
	tmpl *lookup.Template

	handler http.Handler
	server  *http.Server
}

// New creates a server for root. The template comes from server.template or
// server.template_file.
func New(cfg *config.Config, reg *provider.Registry, casts *cast.Registry, root any, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Discard
	}
	s := &Server{cfg: cfg, reg: reg, casts: casts, root: root, log: log}

	text, err := templateText(cfg.Server)
	if err != nil {
		return nil, err
	}
	if err := s.SetTemplate(text); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRender)
	mux.HandleFunc("GET /value", s.handleValue)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})

	handler, err := newCompressionHandler(mux, cfg.Server.Compression)
	if err != nil {
		return nil, fmt.Errorf("compression: %w", err)
	}
	if log.Enabled(logging.LevelInfo) {
		handler = newRequestLogger(handler, log)
	}
	s.handler = handler
	return s, nil
}

func templateText(cfg config.ServerConfig) (string, error) {
	if cfg.Template != "" {
		return cfg.Template, nil
	}
	if cfg.TemplateFile == "" {
		return "", fmt.Errorf("no template configured (set server.template or server.template_file)")
	}
	data, err := os.ReadFile(cfg.TemplateFile)
	if err != nil {
		return "", scopeerrors.New("IO-0001", map[string]any{
			"Operation": "read template", "Path": cfg.TemplateFile, "GoError": err.Error(),
		})
	}
	return string(data), nil
}

// SetTemplate parses and installs new template text.
func (s *Server) SetTemplate(text string) error {
	tmpl, err := lookup.ParseTemplate(text)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tmpl = tmpl
	s.mu.Unlock()
	return nil
}

// SetRoot replaces the root item, for reloading the data file.
func (s *Server) SetRoot(root any) {
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// presenter builds a fresh presenter. Query parameters become the overlay.
func (s *Server) presenter(r *http.Request) (*presenter.Presenter, *lookup.Template, error) {
	s.mu.RLock()
	root, tmpl := s.root, s.tmpl
	s.mu.RUnlock()

	overlay := map[string]any{}
	for k, v := range r.URL.Query() {
		if k != "chain" && len(v) > 0 {
			overlay[k] = v[0]
		}
	}
	p, err := presenter.New(root, overlay, nil, s.reg,
		presenter.WithCasts(s.casts),
		presenter.WithDefaultCast(s.cfg.Presenter.DefaultCast),
		presenter.WithLogger(s.log),
	)
	return p, tmpl, err
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	p, tmpl, err := s.presenter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := tmpl.Execute(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}

// handleValue renders a single lookup chain: /value?chain=$Up.Title
func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("chain")
	if text == "" {
		http.Error(w, "missing chain parameter", http.StatusBadRequest)
		return
	}
	chain, err := lookup.Parse(text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, _, err := s.presenter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := chain.Value(p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(out))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var se *scopeerrors.ScopeError
	if stderrors.As(err, &se) {
		switch se.Class {
		case scopeerrors.ClassParse:
			status = http.StatusBadRequest
		case scopeerrors.ClassUndefined:
			status = http.StatusNotFound
		}
	}
	s.log.Warn("render failed", "path", r.URL.Path, "status", status, "error", err.Error())
	http.Error(w, err.Error(), status)
}

func (s *Server) listenAddr() string {
	return net.JoinHostPort(s.cfg.Server.Host, fmt.Sprint(s.cfg.Server.Port))
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.listenAddr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("preview server listening", "url", "http://"+addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
