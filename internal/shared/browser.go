package shared

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand is swapped out in tests so no real browser is launched.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var name string
	var args []string
	switch rt := getRuntime(); rt {
	case "darwin":
		name, args = "open", []string{url}
	case "linux", "freebsd", "openbsd":
		name, args = "xdg-open", []string{url}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// OpenOrPrint tries the browser and always writes url to w so a headless user can copy it.
func OpenOrPrint(w io.Writer, url string) error {
	err := OpenBrowser(url)
	if err != nil {
		fmt.Fprintf(w, "Could not open a browser (%v).\n", err)
	}
	fmt.Fprintf(w, "Open this URL to authorize dupx:\n\n  %s\n\n", url)
	return err
}
