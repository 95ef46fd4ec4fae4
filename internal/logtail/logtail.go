// Package logtail reads service log files: a bounded tail of the last N
// lines, or a blocking follow of the live tail.
package logtail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/relayctl/relayctl/internal/service"
)

const (
	tailChunkSize  = 32 * 1024
	followInterval = 200 * time.Millisecond
)

// Tail returns the last n lines of the log file at path. A missing file is
// reported via service.ErrLogMissing.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, service.ErrLogMissing)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size == 0 {
		return nil, nil
	}

	// Scan backwards in chunks until enough newlines are seen.
	var buf []byte
	off := size
	newlines := 0
	for off > 0 && newlines <= n {
		chunk := int64(tailChunkSize)
		if off < chunk {
			chunk = off
		}
		off -= chunk
		b := make([]byte, chunk)
		if _, err := f.ReadAt(b, off); err != nil && err != io.EOF {
			return nil, err
		}
		buf = append(b, buf...)
		newlines = bytes.Count(buf, []byte{'\n'})
	}

	lines := splitLines(buf)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// splitLines splits on '\n', dropping a trailing empty element when the file
// ends with a newline.
func splitLines(b []byte) []string {
	parts := bytes.Split(b, []byte{'\n'})
	if len(parts) > 0 && len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(bytes.TrimSuffix(p, []byte{'\r'}))
	}
	return out
}

// Follow streams appended data from the log file at path to w until ctx is
// cancelled. It starts at the current end of file and survives truncation
// (rotation) by rewinding to the new start. It never restarts on its own and
// has no side effects on the writing process.
func Follow(ctx context.Context, path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, service.ErrLogMissing)
		}
		return err
	}
	defer func() { _ = f.Close() }()

	pos, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		st, err := f.Stat()
		if err != nil {
			return err
		}
		if st.Size() < pos {
			// truncated; start over from the top
			pos = 0
		}
		if st.Size() == pos {
			continue
		}
		n, err := io.Copy(w, io.NewSectionReader(f, pos, st.Size()-pos))
		pos += n
		if err != nil {
			return err
		}
	}
}
