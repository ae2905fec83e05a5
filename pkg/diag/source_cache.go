package diag

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// FileID identifies a registered source file within a SourceCache. The
// zero value never denotes a real file.
type FileID int

var (
	ErrFileNotRegistered = fmt.Errorf("file not registered")
)

type sourceEntry struct {
	Name  string
	Text  string
	Lines []string
}

// SourceCache is an in-memory registry of source files, keyed by FileID,
// that Render uses to recover line text for a Span. It uses the same
// RWMutex-guarded map-of-entries shape as a small in-memory filesystem,
// repurposed from persisted sectors to append-only source registration.
type SourceCache struct {
	mu      sync.RWMutex
	entries map[FileID]*sourceEntry
	nextID  FileID
}

// NewSourceCache returns an empty SourceCache.
func NewSourceCache() *SourceCache {
	return &SourceCache{entries: make(map[FileID]*sourceEntry)}
}

// Register adds text under name and returns the FileID assigned to it.
// Unlike VirtualDisk.Write, registration never overwrites: a compilation
// unit is immutable once parsed, so each call allocates a fresh FileID.
func (c *SourceCache) Register(name string, text string) FileID {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.entries[id] = &sourceEntry{
		Name:  name,
		Text:  text,
		Lines: strings.Split(text, "\n"),
	}
	return id
}

// LoadFile reads path from the host filesystem and registers its contents.
func (c *SourceCache) LoadFile(path string) (FileID, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return c.Register(path, string(raw)), nil
}

// Name returns the registered name (typically a file path) for id.
func (c *SourceCache) Name(id FileID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return "", ErrFileNotRegistered
	}
	return e.Name, nil
}

// Text returns the full registered text for id.
func (c *SourceCache) Text(id FileID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return "", ErrFileNotRegistered
	}
	return e.Text, nil
}

// Line returns the 1-indexed line row of id. An out-of-range row returns
// the empty string, matching the permissive behavior Render relies on
// when a Span's End.Row sits one past the last line.
func (c *SourceCache) Line(id FileID, row int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return "", ErrFileNotRegistered
	}
	if row < 1 || row > len(e.Lines) {
		return "", nil
	}
	return e.Lines[row-1], nil
}

// Names returns every registered FileID in ascending order, mirroring
// VirtualDisk.List's sorted-enumeration contract.
func (c *SourceCache) Names() []FileID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]FileID, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
