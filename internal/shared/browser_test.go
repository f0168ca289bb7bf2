package shared

import (
	"errors"
	"os/exec"
	"testing"
)

func TestOpenURL(t *testing.T) {
	origRuntime, origOpener := getRuntime, opener
	t.Cleanup(func() { getRuntime, opener = origRuntime, origOpener })

	var gotName string
	var gotArgs []string
	opener = func(name string, args ...string) *exec.Cmd {
		gotName, gotArgs = name, args
		return exec.Command("true")
	}

	t.Run("linux uses xdg-open", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		if err := OpenURL("https://images.example.com/base1-4.png"); err != nil {
			t.Fatalf("OpenURL() error = %v", err)
		}
		if gotName != "xdg-open" || len(gotArgs) != 1 {
			t.Errorf("unexpected command %s %v", gotName, gotArgs)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if err := OpenURL("https://images.example.com/x.png"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("rejects non-http urls", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		if err := OpenURL("file:///etc/passwd"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
