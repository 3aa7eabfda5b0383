package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	fileLockTimeout      = 5 * time.Second
	fileLockPollInterval = 50 * time.Millisecond
)

// FileSlot stores named slots as keys of one JSON object on disk, the way a
// browser keeps localStorage entries side by side. Other keys in the file
// are preserved on write.
//
// Reads take a shared flock and writes an exclusive one on "<path>.lock";
// the file itself is replaced by rename so readers never see a torn write.
type FileSlot struct {
	path string
	name string
	lock *flock.Flock
}

// NewFileSlot returns a slot named name inside the file at path.
func NewFileSlot(path, name string) *FileSlot {
	if name == "" {
		name = DefaultSlotName
	}
	return &FileSlot{
		path: path,
		name: name,
		lock: flock.New(path + ".lock"),
	}
}

func (f *FileSlot) Load() ([]byte, error) {
	if err := f.acquire(false); err != nil {
		return nil, err
	}
	defer f.lock.Unlock()

	entries, err := f.readEntries()
	if err != nil {
		return nil, err
	}
	raw, ok := entries[f.name]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func (f *FileSlot) Save(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("save slot %q: payload is not valid JSON", f.name)
	}
	if err := f.acquire(true); err != nil {
		return err
	}
	defer f.lock.Unlock()

	entries, err := f.readEntries()
	if err != nil {
		return err
	}
	entries[f.name] = json.RawMessage(data)

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode slot file: %w", err)
	}
	return writeFileAtomic(f.path, out)
}

func (f *FileSlot) readEntries() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot file: %w", err)
	}
	entries := map[string]json.RawMessage{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode slot file %s: %w", f.path, err)
	}
	return entries, nil
}

func (f *FileSlot) acquire(exclusive bool) error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create slot dir: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), fileLockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = f.lock.TryLockContext(ctx, fileLockPollInterval)
	} else {
		locked, err = f.lock.TryRLockContext(ctx, fileLockPollInterval)
	}
	if err != nil {
		return fmt.Errorf("lock slot file %s: %w", f.path, err)
	}
	if !locked {
		return fmt.Errorf("lock slot file %s: timed out after %v", f.path, fileLockTimeout)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace slot file: %w", err)
	}
	return nil
}
