// Package statecache journals the published fleet state to a local file so a
// restarted engine serves the last known view while its first cycle runs.
package statecache

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/HenilJainIO/trapsight/internal/domain"
	"github.com/HenilJainIO/trapsight/internal/ports"
)

const (
	recordHeaderLen = 12
	// compactAboveBytes bounds journal growth; past it the file is rewritten
	// with only the latest cycle.
	compactAboveBytes = 8 << 20
)

// FileCache appends one length-prefixed JSON record per cycle. Bootstrap scans
// the journal and truncates a torn tail, so a crash mid-write loses at most
// the cycle being written.
type FileCache struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	writer    *bufio.Writer
	nextID    uint64
	sizeBytes int64
}

func New(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "fleet.journal")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	c := &FileCache{
		path:   path,
		file:   f,
		writer: bufio.NewWriterSize(f, 1<<18),
	}
	if err := c.bootstrap(); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

func (c *FileCache) bootstrap() error {
	if err := c.scanExisting(); err != nil {
		return err
	}
	_, err := c.file.Seek(0, io.SeekEnd)
	return err
}

func (c *FileCache) scanExisting() error {
	stat, err := os.Stat(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err != nil || stat.Size() == 0 {
		return nil
	}

	rf, err := os.Open(c.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	reader := bufio.NewReader(rf)
	var (
		offset int64
		lastID uint64
	)

	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				if err := c.file.Truncate(offset); err != nil {
					return err
				}
				break
			}
			return fmt.Errorf("journal scan header: %w", err)
		}
		id := binary.BigEndian.Uint64(hdr[0:8])
		length := binary.BigEndian.Uint32(hdr[8:12])

		if _, err := io.CopyN(io.Discard, reader, int64(length)); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				if err := c.file.Truncate(offset); err != nil {
					return err
				}
				break
			}
			return fmt.Errorf("journal scan body: %w", err)
		}
		offset += recordHeaderLen + int64(length)
		lastID = id
	}

	c.sizeBytes = offset
	c.nextID = lastID
	return nil
}

// SaveCycle appends the state and flushes, so each completed cycle survives a
// crash on its own.
func (c *FileCache) SaveCycle(state *domain.FleetState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := json.Marshal(state)
	if err != nil {
		return err
	}

	id := c.nextID + 1

	// record format: [8 bytes id][4 bytes len][len bytes json]
	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], id)
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(b)))

	if _, err := c.writer.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := c.writer.Write(b); err != nil {
		return err
	}
	if err := c.writer.Flush(); err != nil {
		return err
	}

	c.nextID = id
	c.sizeBytes += int64(recordHeaderLen + len(b))

	if c.sizeBytes > compactAboveBytes {
		return c.compactLocked(b, id)
	}
	return nil
}

// compactLocked rewrites the journal with only the latest record, via a temp
// file and rename so a crash mid-compaction keeps the old journal intact.
func (c *FileCache) compactLocked(latest []byte, id uint64) error {
	tmp := c.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], id)
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(latest)))

	if _, err := f.Write(hdr[:]); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(latest); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp, c.path); err != nil {
		return err
	}

	c.file.Close()
	nf, err := os.OpenFile(c.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	c.file = nf
	c.writer = bufio.NewWriterSize(nf, 1<<18)
	c.sizeBytes = int64(recordHeaderLen + len(latest))
	return nil
}

// LoadLatest scans the journal and returns the last complete record.
func (c *FileCache) LoadLatest() (*domain.FleetState, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writer.Flush(); err != nil {
		return nil, false, err
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var last []byte

	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, false, err
		}
		length := binary.BigEndian.Uint32(hdr[8:12])

		b := make([]byte, length)
		if _, err := io.ReadFull(r, b); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break // torn tail; the previous record stands
			}
			return nil, false, err
		}
		last = b
	}

	if last == nil {
		return nil, false, nil
	}

	var state domain.FleetState
	if err := json.Unmarshal(last, &state); err != nil {
		return nil, false, fmt.Errorf("corrupt journal record: %w", err)
	}
	return &state, true, nil
}

// Close flushes and closes the journal.
func (c *FileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writer.Flush(); err != nil {
		return err
	}
	return c.file.Close()
}

var _ ports.StateStore = (*FileCache)(nil)
