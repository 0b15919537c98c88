package server

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/shared"
)

// CallbackResult is what the redirect carried.
type CallbackResult struct {
	Code  string
	State string
	Err   error
}

// CallbackHandler captures exactly one authorization redirect.
type CallbackHandler struct {
	logger *log.Logger
	result chan CallbackResult
	once   sync.Once
	fired  atomic.Bool
}

// NewCallbackHandler creates a handler whose result channel holds one value.
func NewCallbackHandler(logger *log.Logger) *CallbackHandler {
	return &CallbackHandler{logger: logger, result: make(chan CallbackResult, 1)}
}

// ServeHTTP handles GET /callback?code=...&state=...
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.fired.Load() {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		if !h.claim() {
			http.Error(w, "Callback already processed", http.StatusBadRequest)
			return
		}
		err := fmt.Errorf("%w: %s", shared.ErrAuthDenied, e)
		if desc := q.Get("error_description"); desc != "" {
			err = fmt.Errorf("%w: %s (%s)", shared.ErrAuthDenied, e, desc)
		}
		h.Send(CallbackResult{State: q.Get("state"), Err: err})
		writeFailure(w, http.StatusBadRequest, "Spotify reported: "+e+". You can close this window.")
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		h.logger.Warn("ignoring callback without code or state", "has_code", code != "", "has_state", state != "")
		writeFailure(w, http.StatusBadRequest, "The redirect was missing its code or state. Retry the login from the terminal.")
		return
	}

	if !h.claim() {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{Code: code, State: state})
	writeSuccess(w)
}

func (h *CallbackHandler) claim() bool {
	return h.fired.CompareAndSwap(false, true)
}

// Send delivers result at most once. The channel has room for it, so Send never blocks.
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.fired.Store(true)
		h.result <- result
		close(h.result)
	})
}

// Result returns the channel that receives exactly one value and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.result
}
