package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// opener builds the platform command; tests swap it to avoid launching anything.
var opener = func(name string, args ...string) *exec.Cmd { return exec.Command(name, args...) }

// OpenURL opens an http(s) URL (e.g. a card image) in the default system browser.
//
// Supports macOS, Linux, and Windows platforms.
func OpenURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: not an http(s) url: %q", ErrInvalidArgument, rawURL)
	}

	var cmd *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		cmd = opener("open", rawURL)
	case "linux":
		cmd = opener("xdg-open", rawURL)
	case "windows":
		cmd = opener("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
