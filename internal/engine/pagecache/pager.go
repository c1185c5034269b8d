package pagecache

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/textcore/internal/logging"
)

// DefaultBlockSize is the default number of records per block.
const DefaultBlockSize = 4096

// Ref locates one evicted record: its block and its slot in that block.
type Ref struct {
	Block uint64
	Slot  int
}

// Stats counts pager activity.
type Stats struct {
	Evicted  int
	Restored int
	Hits     int
	Misses   int
	Blocks   int
}

// Pager moves runs of records into blocks of a Store and back. Each block
// is deleted from the store once every record evicted into it has been
// restored or released.
type Pager struct {
	mu        sync.Mutex
	store     Store
	doc       uuid.UUID
	blockSize int
	next      uint64
	live      map[uint64]int

	// last decoded block, so restoring neighbours does not hit the store again
	cached    *Block
	cachedIdx uint64

	stats  Stats
	logger *logging.Logger
}

// PagerOption configures a Pager.
type PagerOption func(*Pager)

// WithBlockSize sets the maximum number of records per block.
func WithBlockSize(n int) PagerOption {
	return func(p *Pager) {
		if n > 0 {
			p.blockSize = n
		}
	}
}

// WithLogger sets the pager's logger.
func WithLogger(l *logging.Logger) PagerOption {
	return func(p *Pager) {
		if l != nil {
			p.logger = l.WithComponent("pagecache")
		}
	}
}

// NewPager creates a pager storing blocks of document doc in store.
func NewPager(store Store, doc uuid.UUID, opts ...PagerOption) *Pager {
	p := &Pager{
		store:     store,
		doc:       doc,
		blockSize: DefaultBlockSize,
		live:      make(map[uint64]int),
		logger:    logging.NullLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BlockSize returns the maximum number of records per block.
func (p *Pager) BlockSize() int {
	return p.blockSize
}

// Document returns the document id used in block keys.
func (p *Pager) Document() uuid.UUID {
	return p.doc
}

// Evict writes records to a new block and returns one Ref per record.
func (p *Pager) Evict(records []Record) ([]Ref, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if len(records) > p.blockSize {
		return nil, fmt.Errorf("%w: %d records, block size %d", ErrBlockFull, len(records), p.blockSize)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.next
	b := &Block{MaxCapacity: int32(p.blockSize), Records: records}
	if err := p.store.Put(Key{Doc: p.doc, Index: idx}, b); err != nil {
		return nil, err
	}
	p.next++
	p.live[idx] = len(records)
	p.stats.Evicted += len(records)
	p.stats.Blocks++

	refs := make([]Ref, len(records))
	for i := range refs {
		refs[i] = Ref{Block: idx, Slot: i}
	}
	p.logger.Debug("evicted %d records into block %d", len(records), idx)
	return refs, nil
}

// Restore returns the record at ref and releases it.
func (p *Pager) Restore(ref Ref) (Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := p.load(ref.Block)
	if err != nil {
		return Record{}, err
	}
	if ref.Slot < 0 || ref.Slot >= len(b.Records) {
		return Record{}, fmt.Errorf("%w: slot %d of block %d", ErrCorruptBlock, ref.Slot, ref.Block)
	}
	rec := b.Records[ref.Slot]
	p.stats.Restored++
	p.release(ref.Block)
	return rec, nil
}

// Release drops ref without reading it.
func (p *Pager) Release(ref Ref) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release(ref.Block)
}

func (p *Pager) load(idx uint64) (*Block, error) {
	if p.cached != nil && p.cachedIdx == idx {
		p.stats.Hits++
		return p.cached, nil
	}
	p.stats.Misses++
	b, err := p.store.Get(Key{Doc: p.doc, Index: idx})
	if err != nil {
		return nil, err
	}
	p.cached, p.cachedIdx = b, idx
	return b, nil
}

func (p *Pager) release(idx uint64) {
	n, ok := p.live[idx]
	if !ok {
		return
	}
	if n > 1 {
		p.live[idx] = n - 1
		return
	}
	delete(p.live, idx)
	p.stats.Blocks--
	if p.cached != nil && p.cachedIdx == idx {
		p.cached = nil
	}
	if err := p.store.Delete(Key{Doc: p.doc, Index: idx}); err != nil {
		p.logger.Warn("delete block %d: %v", idx, err)
	}
}

// Stats returns a snapshot of the pager counters.
func (p *Pager) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Reset forgets every block, deleting them from the store.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for idx := range p.live {
		_ = p.store.Delete(Key{Doc: p.doc, Index: idx})
	}
	clear(p.live)
	p.cached = nil
	p.stats.Blocks = 0
}
