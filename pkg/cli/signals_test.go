package cli

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx := SetupSignalHandler()

	select {
	case <-ctx.Done():
		t.Error("context cancelled before any signal")
	default:
	}
}

func TestSetupSignalHandlerCancelsOnSignal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping signal delivery in short mode")
	}

	ctx := SetupSignalHandler()

	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("FindProcess: %v", err)
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("context not cancelled after SIGTERM")
	}
}
