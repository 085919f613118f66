package tracesink

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileSink persists tick snapshots as self-describing gob-encoded binary
// records, trace events as line-delimited JSON, and writes session
// metadata once as YAML, per spec §6.5.
type FileSink struct {
	dir string

	mu           sync.Mutex
	snapshotEnc  *gob.Encoder
	snapshotFile *os.File
	eventFile    *os.File
	metaWritten  bool
}

// NewFileSink creates (or truncates) snapshots.gob and events.jsonl under
// dir.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tracesink: create dir: %w", err)
	}

	snapFile, err := os.Create(filepath.Join(dir, "snapshots.gob"))
	if err != nil {
		return nil, fmt.Errorf("tracesink: create snapshot file: %w", err)
	}
	eventFile, err := os.Create(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		snapFile.Close()
		return nil, fmt.Errorf("tracesink: create event file: %w", err)
	}

	return &FileSink{
		dir:          dir,
		snapshotFile: snapFile,
		snapshotEnc:  gob.NewEncoder(snapFile),
		eventFile:    eventFile,
	}, nil
}

// RecordTick appends a gob-encoded TickSnapshot. gob's self-describing
// stream format means a later decoder needs only the Go type, not a
// shared schema file, to read the stream back.
func (f *FileSink) RecordTick(snapshot TickSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.snapshotEnc.Encode(snapshot); err != nil {
		return fmt.Errorf("tracesink: encode snapshot: %w", err)
	}
	return nil
}

// RecordEvent appends one line of JSON per event.
func (f *FileSink) RecordEvent(event TraceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("tracesink: marshal event: %w", err)
	}
	line = append(line, '\n')
	if _, err := f.eventFile.Write(line); err != nil {
		return fmt.Errorf("tracesink: write event: %w", err)
	}
	return nil
}

// WriteSessionMetadata writes session.yaml once; subsequent calls are a
// no-op, since session metadata is fixed at session start.
func (f *FileSink) WriteSessionMetadata(meta SessionMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.metaWritten {
		return nil
	}

	out, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("tracesink: marshal session metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, "session.yaml"), out, 0o644); err != nil {
		return fmt.Errorf("tracesink: write session metadata: %w", err)
	}
	f.metaWritten = true
	return nil
}

// Close flushes and closes the underlying files.
func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapErr := f.snapshotFile.Close()
	eventErr := f.eventFile.Close()
	if snapErr != nil {
		return snapErr
	}
	return eventErr
}

var _ TraceSink = (*FileSink)(nil)
