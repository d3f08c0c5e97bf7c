package logs

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"
)

const (
	defaultPollEvery = 250 * time.Millisecond
	readChunk        = 64 * 1024
)

// Filter selects log lines. A nil Filter accepts everything.
type Filter func(line string) bool

// JobFilter matches lines carrying the given job identifier.
func JobFilter(jobID string) Filter {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil
	}
	return func(line string) bool { return strings.Contains(line, jobID) }
}

// Last returns up to limit trailing lines of path that pass filter, along
// with the file size at the time of reading. A missing file yields no lines.
func Last(path string, limit int, filter Filter) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	size := info.Size()
	if limit <= 0 {
		return nil, size, nil
	}

	// Walk backwards a chunk at a time until enough matching lines are held.
	var (
		pos     = size
		partial []byte
		lines   []string
	)
	for pos > 0 && len(lines) < limit {
		n := int64(readChunk)
		if pos < n {
			n = pos
		}
		pos -= n
		buf := make([]byte, n)
		if _, err := f.ReadAt(buf, pos); err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, err
		}
		buf = append(buf, partial...)
		parts := strings.Split(string(buf), "\n")
		partial = []byte(parts[0])
		for i := len(parts) - 1; i >= 1 && len(lines) < limit; i-- {
			if keep(parts[i], filter) {
				lines = append(lines, parts[i])
			}
		}
	}
	if pos == 0 && len(lines) < limit && keep(string(partial), filter) {
		lines = append(lines, string(partial))
	}
	reverse(lines)
	return lines, size, nil
}

// Follow emits lines appended to path after offset until ctx ends. When the
// file shrinks below the read position it starts over from the beginning.
func Follow(ctx context.Context, path string, offset int64, every time.Duration, filter Filter, emit func(string)) error {
	if every <= 0 {
		every = defaultPollEvery
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var pending string
	for {
		next, rest, err := readFrom(path, offset, pending, filter, emit)
		if err != nil {
			return err
		}
		offset, pending = next, rest

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, pending string, filter Filter, emit func(string)) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, "", nil
		}
		return offset, pending, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return offset, pending, err
	}
	if info.Size() < offset {
		offset, pending = 0, ""
	}
	if info.Size() == offset {
		return offset, pending, nil
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, pending, err
	}

	reader := bufio.NewReader(f)
	for {
		chunk, err := reader.ReadString('\n')
		offset += int64(len(chunk))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, pending + chunk, nil
			}
			return offset, pending, err
		}
		line := strings.TrimRight(pending+chunk, "\r\n")
		pending = ""
		if keep(line, filter) {
			emit(line)
		}
	}
}

func keep(line string, filter Filter) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	return filter == nil || filter(line)
}

func reverse(lines []string) {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
}
