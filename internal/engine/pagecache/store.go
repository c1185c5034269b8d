package pagecache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrBlockNotFound is returned when no block is stored under a key.
	ErrBlockNotFound = errors.New("pagecache: block not found")

	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("pagecache: store closed")
)

// Key identifies a block: the owning document and the block's sequence
// number within it.
type Key struct {
	Doc   uuid.UUID
	Index uint64
}

// String returns the key as "document/index".
func (k Key) String() string {
	return k.Doc.String() + "/" + strconv.FormatUint(k.Index, 10)
}

// Store is a keyed block store.
type Store interface {
	Put(key Key, b *Block) error
	Get(key Key) (*Block, error)
	Delete(key Key) error
	Close() error
}

// MemoryStore keeps encoded blocks in memory.
type MemoryStore struct {
	mu     sync.Mutex
	blocks map[Key][]byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocks: make(map[Key][]byte)}
}

// Put encodes b and stores it under key, replacing any previous block.
func (s *MemoryStore) Put(key Key, b *Block) error {
	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.blocks[key] = buf.Bytes()
	return nil
}

// Get decodes the block stored under key.
func (s *MemoryStore) Get(key Key) (*Block, error) {
	s.mu.Lock()
	data, ok := s.blocks[key]
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, key)
	}
	return Decode(bytes.NewReader(data))
}

// Delete removes the block stored under key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.blocks, key)
	return nil
}

// Len returns the number of stored blocks.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

// Close releases every block.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.blocks = nil
	return nil
}

// DiskStore writes one file per block under a directory, grouped by document.
type DiskStore struct {
	mu     sync.Mutex
	dir    string
	closed bool
}

// NewDiskStore creates a store rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pagecache: create store dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) path(key Key) string {
	return filepath.Join(s.dir, key.Doc.String(), strconv.FormatUint(key.Index, 10)+".blk")
}

// Put writes the block atomically by renaming a temporary file into place.
func (s *DiskStore) Put(key Key, b *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("pagecache: create block dir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(p), ".blk-*")
	if err != nil {
		return fmt.Errorf("pagecache: put %s: %w", key, err)
	}
	tmp := f.Name()
	if err := b.Encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("pagecache: put %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("pagecache: put %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("pagecache: put %s: %w", key, err)
	}
	return nil
}

// Get reads and decodes the block stored under key.
func (s *DiskStore) Get(key Key) (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("pagecache: get %s: %w", key, err)
	}
	return Decode(bytes.NewReader(data))
}

// Delete removes the file for key. Deleting a missing key is not an error.
func (s *DiskStore) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pagecache: delete %s: %w", key, err)
	}
	return nil
}

// Purge removes every block of document doc.
func (s *DiskStore) Purge(doc uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.RemoveAll(filepath.Join(s.dir, doc.String()))
}

// Close marks the store closed. Files are left on disk.
func (s *DiskStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
