package logtail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relayctl/relayctl/internal/service"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svc.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o640); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastN(t *testing.T) {
	path := writeLog(t, "a", "b", "c", "d", "e")
	lines, err := Tail(path, 3)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	want := []string{"c", "d", "e"}
	if len(lines) != len(want) {
		t.Fatalf("got %v want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("got %v want %v", lines, want)
		}
	}
}

func TestTailFewerLinesThanRequested(t *testing.T) {
	path := writeLog(t, "only")
	lines, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 1 || lines[0] != "only" {
		t.Fatalf("got %v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	_, err := Tail(filepath.Join(t.TempDir(), "absent.log"), 5)
	if !errors.Is(err, service.ErrLogMissing) {
		t.Fatalf("expected ErrLogMissing, got %v", err)
	}
}

func TestTailEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	if err := os.WriteFile(path, nil, 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines, err := Tail(path, 5)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

func TestTailLargeFileCrossesChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5000; i++ {
		_, _ = fmt.Fprintf(f, "line-%04d padding padding padding padding\n", i)
	}
	_ = f.Close()
	lines, err := Tail(path, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "line-4999") {
		t.Fatalf("got %v", lines)
	}
}

// syncBuffer guards concurrent writes from the follow goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestFollowStreamsAppendedLines(t *testing.T) {
	path := writeLog(t, "old")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, &out) }()

	// give the follower time to seek to EOF, then append
	time.Sleep(300 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	_, _ = f.WriteString("fresh-line\n")
	_ = f.Close()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "fresh-line") {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(out.String(), "fresh-line") {
		t.Fatalf("appended line never streamed, got %q", out.String())
	}
	if strings.Contains(out.String(), "old") {
		t.Fatalf("follow should start at end of file, got %q", out.String())
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFollowMissingFile(t *testing.T) {
	err := Follow(context.Background(), filepath.Join(t.TempDir(), "absent.log"), &bytes.Buffer{})
	if !errors.Is(err, service.ErrLogMissing) {
		t.Fatalf("expected ErrLogMissing, got %v", err)
	}
}
