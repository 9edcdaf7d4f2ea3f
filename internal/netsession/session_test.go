package netsession

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeLink struct {
	upErr       error
	upCalls     int
	statusCalls int
	upAfter     int // Status reports up once statusCalls >= upAfter (0 = never)
	downCalls   int
}

func (l *fakeLink) Up(context.Context) error {
	l.upCalls++
	return l.upErr
}

func (l *fakeLink) Status(context.Context) (bool, error) {
	l.statusCalls++
	return l.upAfter > 0 && l.statusCalls >= l.upAfter, nil
}

func (l *fakeLink) Down(context.Context) error {
	l.downCalls++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestConnect_ImmediateSuccess(t *testing.T) {
	link := &fakeLink{upAfter: 1}
	s := New(link, 5, time.Millisecond, testLogger())

	if got := s.Connect(context.Background()); got != Connected {
		t.Fatalf("Connect() = %v, want Connected", got)
	}
	if link.upCalls != 1 {
		t.Errorf("Up calls = %d, want 1", link.upCalls)
	}
	if link.statusCalls != 1 {
		t.Errorf("Status calls = %d, want 1", link.statusCalls)
	}
	if link.downCalls != 0 {
		t.Errorf("Down calls = %d, want 0", link.downCalls)
	}
}

func TestConnect_EventualSuccess(t *testing.T) {
	link := &fakeLink{upAfter: 3}
	s := New(link, 5, time.Millisecond, testLogger())

	if got := s.Connect(context.Background()); got != Connected {
		t.Fatalf("Connect() = %v, want Connected", got)
	}
	if link.statusCalls != 3 {
		t.Errorf("Status calls = %d, want 3", link.statusCalls)
	}
}

func TestConnect_GaveUpAfterMaxAttempts(t *testing.T) {
	link := &fakeLink{upAfter: 0}
	s := New(link, 4, time.Millisecond, testLogger())

	if got := s.Connect(context.Background()); got != GaveUp {
		t.Fatalf("Connect() = %v, want GaveUp", got)
	}
	if link.statusCalls != 4 {
		t.Errorf("Status calls = %d, want exactly maxAttempts (4)", link.statusCalls)
	}
	if link.downCalls != 1 {
		t.Errorf("Down calls = %d, want 1 (teardown on give-up)", link.downCalls)
	}
}

func TestConnect_UpFailureTearsDown(t *testing.T) {
	link := &fakeLink{upErr: errors.New("no adapter")}
	s := New(link, 4, time.Millisecond, testLogger())

	if got := s.Connect(context.Background()); got != GaveUp {
		t.Fatalf("Connect() = %v, want GaveUp", got)
	}
	if link.statusCalls != 0 {
		t.Errorf("Status calls = %d, want 0", link.statusCalls)
	}
	if link.downCalls != 1 {
		t.Errorf("Down calls = %d, want 1", link.downCalls)
	}
}

func TestResult_String(t *testing.T) {
	if Connected.String() != "connected" || GaveUp.String() != "gave-up" {
		t.Errorf("Result strings = %q, %q", Connected.String(), GaveUp.String())
	}
}

func TestCommandLink_Status(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "operstate")

	link := &CommandLink{StatePath: statePath}

	if _, err := link.Status(context.Background()); err == nil {
		t.Error("Status() error = nil, want non-nil for missing state file")
	}

	if err := os.WriteFile(statePath, []byte("down\n"), 0o644); err != nil {
		t.Fatalf("write state file: %v", err)
	}
	up, err := link.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v, want nil", err)
	}
	if up {
		t.Error("Status() = true, want false for operstate down")
	}

	if err := os.WriteFile(statePath, []byte("up\n"), 0o644); err != nil {
		t.Fatalf("write state file: %v", err)
	}
	up, err = link.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v, want nil", err)
	}
	if !up {
		t.Error("Status() = false, want true for operstate up")
	}
}

func TestCommandLink_RunSubstitutesPlaceholders(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out")

	link := &CommandLink{
		SSID:     "my ssid",
		Password: `p"w`,
		UpCmd:    "sh -c 'printf %s::%s \"$1\" \"$2\" > " + outPath + "' sh {ssid} {password}",
	}

	if err := link.Up(context.Background()); err != nil {
		t.Fatalf("Up() error = %v, want nil", err)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got, want := string(b), `my ssid::p"w`; got != want {
		t.Errorf("substituted args = %q, want %q", got, want)
	}
}

func TestCommandLink_RunRejectsBadTemplate(t *testing.T) {
	link := &CommandLink{UpCmd: `sh -c "unterminated`}
	if err := link.Up(context.Background()); err == nil {
		t.Error("Up() error = nil, want non-nil for unterminated quote")
	}

	link = &CommandLink{UpCmd: "   "}
	if err := link.Up(context.Background()); err == nil {
		t.Error("Up() error = nil, want non-nil for empty template")
	}
}
