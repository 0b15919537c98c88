package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/shared"
)

// Listener runs the redirect endpoint on its own goroutine until [Listener.Shutdown].
type Listener struct {
	addr     string
	path     string
	logger   *log.Logger
	callback *CallbackHandler
	srv      *http.Server
	ln       net.Listener
	errs     chan error
}

// NewListener prepares a listener for cfg.Addr() and cfg.CallbackPath.
func NewListener(cfg shared.ServerConfig, logger *log.Logger) *Listener {
	path := cfg.CallbackPath
	if path == "" {
		path = "/callback"
	}

	callback := NewCallbackHandler(logger)
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handle(http.MethodGet, path, callback)

	return &Listener{
		addr:     cfg.Addr(),
		path:     path,
		logger:   logger,
		callback: callback,
		srv:      &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		errs:     make(chan error, 1),
	}
}

// Start binds the address and begins serving. A port already in use is returned here.
func (l *Listener) Start() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to bind redirect listener on %s: %w", l.addr, err)
	}
	l.ln = ln

	go func() {
		l.logger.Debugf("redirect listener serving at http://%s%s", ln.Addr(), l.path)
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errs <- err
		}
	}()
	return nil
}

// Addr returns the bound address, useful when the configured port was 0.
func (l *Listener) Addr() string {
	if l.ln == nil {
		return l.addr
	}
	return l.ln.Addr().String()
}

// URL returns the full callback URL served by the listener.
func (l *Listener) URL() string {
	return "http://" + l.Addr() + l.path
}

// Wait blocks until the redirect arrives, the server fails, or ctx ends.
// A ctx deadline is reported as [shared.ErrTimeout].
func (l *Listener) Wait(ctx context.Context) (CallbackResult, error) {
	select {
	case res := <-l.callback.Result():
		return res, nil
	case err := <-l.errs:
		return CallbackResult{}, fmt.Errorf("redirect listener failed: %w", err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return CallbackResult{}, fmt.Errorf("%w: no authorization redirect received", shared.ErrTimeout)
		}
		return CallbackResult{}, ctx.Err()
	}
}

// Shutdown stops the server gracefully and releases the port.
func (l *Listener) Shutdown(ctx context.Context) error {
	if l.ln == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return l.srv.Shutdown(ctx)
}
