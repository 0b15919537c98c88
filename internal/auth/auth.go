// Package auth runs the PKCE authorization-code login against a local redirect listener.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dupx/internal/server"
	"github.com/desertthunder/dupx/internal/shared"
	"golang.org/x/oauth2"
)

// Exchanger builds authorize URLs and trades codes for tokens.
// [spotifyauth.Authenticator] satisfies it.
type Exchanger interface {
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// RedirectListener is the part of [server.Listener] the coordinator drives.
type RedirectListener interface {
	Start() error
	Wait(ctx context.Context) (server.CallbackResult, error)
	Shutdown(ctx context.Context) error
}

// Opener presents the authorize URL to the user.
type Opener func(w io.Writer, url string) error

// Coordinator holds the verifier and state for one login attempt.
type Coordinator struct {
	exchanger Exchanger
	listener  RedirectListener
	timeout   time.Duration
	logger    *log.Logger
	open      Opener
	out       io.Writer

	verifier string
	state    string
}

// Option configures a [Coordinator].
type Option func(*Coordinator)

// WithOpener replaces the browser launcher.
func WithOpener(open Opener) Option {
	return func(c *Coordinator) { c.open = open }
}

// WithOutput sets where login instructions are printed. Defaults to stderr.
func WithOutput(w io.Writer) Option {
	return func(c *Coordinator) { c.out = w }
}

// NewCoordinator creates a coordinator. A zero timeout waits until ctx ends.
func NewCoordinator(ex Exchanger, l RedirectListener, timeout time.Duration, logger *log.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		exchanger: ex,
		listener:  l,
		timeout:   timeout,
		logger:    logger,
		open:      shared.OpenOrPrint,
		out:       os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildAuthorizationURL generates a fresh verifier and state and returns the S256 authorize URL.
func (c *Coordinator) BuildAuthorizationURL() (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	c.verifier = oauth2.GenerateVerifier()
	c.state = state
	return c.exchanger.AuthURL(state, oauth2.S256ChallengeOption(c.verifier)), nil
}

// Authenticate performs the whole login and returns the access token.
func (c *Coordinator) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	if err := c.listener.Start(); err != nil {
		return nil, err
	}
	defer func() {
		if err := c.listener.Shutdown(context.Background()); err != nil {
			c.logger.Warn("error shutting down redirect listener", "error", err)
		}
	}()

	authURL, err := c.BuildAuthorizationURL()
	if err != nil {
		return nil, err
	}

	if err := c.open(c.out, authURL); err != nil {
		c.logger.Warnf("failed to open browser automatically %v", err)
	}

	waitCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
		fmt.Fprintf(c.out, "→ Waiting for authorization (%s timeout)...\n", c.timeout)
	} else {
		fmt.Fprintln(c.out, "→ Waiting for authorization...")
	}

	result, err := c.listener.Wait(waitCtx)
	if err != nil {
		return nil, err
	}
	if result.Err != nil {
		return nil, result.Err
	}

	if subtle.ConstantTimeCompare([]byte(result.State), []byte(c.state)) != 1 {
		return nil, fmt.Errorf("%w: redirect state does not match the login request", shared.ErrStateMismatch)
	}

	token, err := c.exchanger.Exchange(ctx, result.Code, oauth2.VerifierOption(c.verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty token", shared.ErrAuthFailed)
	}

	c.logger.Info("authorized", "token_type", token.TokenType, "expires", token.Expiry.Format(time.Kitchen))
	return token, nil
}
