package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds int
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00"},
		{name: "under a minute", seconds: 42, want: "0:42"},
		{name: "minutes", seconds: 180, want: "3:00"},
		{name: "hours", seconds: 3725, want: "1:02:05"},
		{name: "negative clamps", seconds: -5, want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%d) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := GenerateState()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first == "" {
		t.Error("expected non-empty state")
	}
	if first == second {
		t.Error("expected two states to differ")
	}
	if strings.ContainsAny(first, "+/=") {
		t.Errorf("expected URL-safe state, got %s", first)
	}
}

func TestGenerateID(t *testing.T) {
	if GenerateID() == GenerateID() {
		t.Error("expected unique IDs")
	}
}

func TestSetLogLevel(t *testing.T) {
	t.Run("valid level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		if err := SetLogLevel(logger, "Warn"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}

		logger.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := SetLogLevel(NewLogger(&bytes.Buffer{}), "loud")
		if !errors.Is(err, ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	child := WithLogger(NewLogger(&buf), "plan", "p1")

	child.Info("resuming")
	if !strings.Contains(buf.String(), "plan=p1") {
		t.Errorf("expected child fields in output, got %q", buf.String())
	}
}
