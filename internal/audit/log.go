// Package audit keeps a tamper-evident record of the middleware's flow
// decisions. Entries are newline-delimited JSON; each carries a sequence
// number and a chain digest binding its own content to everything written
// before it, so truncation, reordering, and in-place edits are all
// detectable by Verify.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Log appends decision entries to a JSONL file. One Log owns the file;
// Record is safe for concurrent use.
type Log struct {
	mu    sync.Mutex
	f     *os.File
	seq   uint64
	chain string
}

// Open opens (or creates) a decision log. An existing file is replayed to
// recover the sequence counter and chain tail, so a restarted node keeps
// extending the same chain. A file that does not decode refuses to open
// rather than silently forking the chain.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}

	l := &Log{f: f}
	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		var e Entry
		if err := dec.Decode(&e); err == io.EOF {
			break
		} else if err != nil {
			f.Close()
			return nil, fmt.Errorf("audit: existing log %s does not decode: %w", path, err)
		}
		l.seq = e.Seq
		l.chain = e.Chain
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("audit: seek to tail: %w", err)
	}
	return l, nil
}

// Record assigns the next sequence number and chain digest to the entry
// and appends it durably. The timestamp is filled in when empty. The
// in-memory chain tail only advances once the entry has reached disk.
func (l *Log) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	e.Seq = l.seq + 1
	e.Chain = chainDigest(l.chain, e)

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: append entry: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.seq = e.Seq
	l.chain = e.Chain
	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// chainDigest computes an entry's chain value: SHA-256 over the previous
// entry's chain and this entry's content with the chain field zeroed.
// Binding the digest to the entry's own bytes means an in-place edit is
// caught at the edited entry, not one line later.
func chainDigest(prev string, e Entry) string {
	e.Chain = ""
	body, _ := json.Marshal(e)
	h := sha256.New()
	io.WriteString(h, prev)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
