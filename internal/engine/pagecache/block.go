package pagecache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrCorruptBlock is returned when encoded block data is malformed.
	ErrCorruptBlock = errors.New("pagecache: corrupt block")

	// ErrBlockFull is returned when a block holds more records than its capacity.
	ErrBlockFull = errors.New("pagecache: block exceeds capacity")
)

const (
	headerSize = 4 + 4
	recordSize = 8 + 8 + 1 + 8 + 8
	tokenSize  = 8 + 8 + 8
)

// Token is a line-relative syntax token.
type Token struct {
	Type   int64
	Start  int64
	Length int64
}

// Record is the persisted metadata of one line.
type Record struct {
	Start     int64
	Length    int64
	Dirty     bool
	FoldState int64
	Tokens    []Token
}

// Block is a run of line records.
type Block struct {
	MaxCapacity int32
	Records     []Record
}

// EncodedSize returns the number of bytes Encode writes.
func (b *Block) EncodedSize() int {
	n := headerSize
	for i := range b.Records {
		n += recordSize + tokenSize*len(b.Records[i].Tokens)
	}
	return n
}

// Encode writes the block to w.
func (b *Block) Encode(w io.Writer) error {
	if len(b.Records) > int(b.MaxCapacity) {
		return fmt.Errorf("%w: %d records, capacity %d", ErrBlockFull, len(b.Records), b.MaxCapacity)
	}
	buf := b.AppendBinary(make([]byte, 0, b.EncodedSize()))
	_, err := w.Write(buf)
	return err
}

// AppendBinary appends the encoded block to dst.
func (b *Block) AppendBinary(dst []byte) []byte {
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, uint32(len(b.Records)))
	dst = le.AppendUint32(dst, uint32(b.MaxCapacity))
	for i := range b.Records {
		r := &b.Records[i]
		dst = le.AppendUint64(dst, uint64(r.Start))
		dst = le.AppendUint64(dst, uint64(r.Length))
		if r.Dirty {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
		dst = le.AppendUint64(dst, uint64(r.FoldState))
		dst = le.AppendUint64(dst, uint64(len(r.Tokens)))
		for _, t := range r.Tokens {
			dst = le.AppendUint64(dst, uint64(t.Type))
			dst = le.AppendUint64(dst, uint64(t.Start))
			dst = le.AppendUint64(dst, uint64(t.Length))
		}
	}
	return dst
}

// Decode reads a block from r.
func Decode(r io.Reader) (*Block, error) {
	le := binary.LittleEndian
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, corrupt("header", err)
	}
	count := int32(le.Uint32(hdr[0:4]))
	capacity := int32(le.Uint32(hdr[4:8]))
	if count < 0 || capacity < 0 || count > capacity {
		return nil, fmt.Errorf("%w: count %d capacity %d", ErrCorruptBlock, count, capacity)
	}

	// The header is untrusted: grow with the records actually read.
	b := &Block{MaxCapacity: capacity, Records: make([]Record, 0, min(count, 1024))}
	var rec [recordSize]byte
	var tok [tokenSize]byte
	for i := range int(count) {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, corrupt(fmt.Sprintf("record %d", i), err)
		}
		b.Records = append(b.Records, Record{})
		out := &b.Records[i]
		out.Start = int64(le.Uint64(rec[0:8]))
		out.Length = int64(le.Uint64(rec[8:16]))
		switch rec[16] {
		case 0:
		case 1:
			out.Dirty = true
		default:
			return nil, fmt.Errorf("%w: record %d dirty flag %d", ErrCorruptBlock, i, rec[16])
		}
		out.FoldState = int64(le.Uint64(rec[17:25]))
		n := int64(le.Uint64(rec[25:33]))
		if n < 0 || n > math.MaxInt32 || out.Start < 0 || out.Length < 0 {
			return nil, fmt.Errorf("%w: record %d", ErrCorruptBlock, i)
		}
		if n == 0 {
			continue
		}
		out.Tokens = make([]Token, 0, min(n, 1024))
		for j := int64(0); j < n; j++ {
			if _, err := io.ReadFull(r, tok[:]); err != nil {
				return nil, corrupt(fmt.Sprintf("record %d token %d", i, j), err)
			}
			out.Tokens = append(out.Tokens, Token{
				Type:   int64(le.Uint64(tok[0:8])),
				Start:  int64(le.Uint64(tok[8:16])),
				Length: int64(le.Uint64(tok[16:24])),
			})
		}
	}
	return b, nil
}

func corrupt(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", ErrCorruptBlock, what)
	}
	return fmt.Errorf("pagecache: read %s: %w", what, err)
}
