// Package server provides the short-lived local HTTP endpoint that captures the OAuth redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handler
//
// [CallbackHandler] turns the browser's single redirect into a value. It stores the code and state
// in a one-capacity channel written under [sync.Once], so the result is delivered at most once
// and the HTTP response never waits on a reader.
//
// Requests missing code or state are rejected with 400 and do not fire the signal. A request
// carrying an error parameter (the user declined consent) fires the signal with [shared.ErrAuthDenied].
// Anything after the first accepted request gets "callback already processed".
//
// # Listener
//
// [Listener] binds the configured address before the browser is opened, so a port that is
// already taken fails early. [Listener.Wait] blocks on the result, a serve error, or the context,
// and [Listener.Shutdown] releases the port.
package server
