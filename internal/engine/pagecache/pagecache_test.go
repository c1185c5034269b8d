package pagecache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func le64(v byte) []byte {
	return []byte{v, 0, 0, 0, 0, 0, 0, 0}
}

func TestEncodeLayout(t *testing.T) {
	b := &Block{
		MaxCapacity: 2,
		Records: []Record{
			{Start: 1, Length: 2, Dirty: true, FoldState: 3, Tokens: []Token{{Type: 4, Start: 5, Length: 6}}},
		},
	}

	var want []byte
	want = append(want, 1, 0, 0, 0, 2, 0, 0, 0)
	want = append(want, le64(1)...)
	want = append(want, le64(2)...)
	want = append(want, 1)
	want = append(want, le64(3)...)
	want = append(want, le64(1)...)
	want = append(want, le64(4)...)
	want = append(want, le64(5)...)
	want = append(want, le64(6)...)

	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("encoded = % x\nwant      % x", buf.Bytes(), want)
	}
	if b.EncodedSize() != len(want) {
		t.Errorf("EncodedSize = %d, want %d", b.EncodedSize(), len(want))
	}

	got, err := Decode(bytes.NewReader(want))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Errorf("decoded %+v, want %+v", got, b)
	}
}

func TestEncodeRejectsOverfullBlock(t *testing.T) {
	b := &Block{MaxCapacity: 1, Records: make([]Record, 2)}
	if err := b.Encode(&bytes.Buffer{}); !errors.Is(err, ErrBlockFull) {
		t.Errorf("err = %v, want ErrBlockFull", err)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	valid := (&Block{MaxCapacity: 4, Records: []Record{{Start: 0, Length: 3}}}).AppendBinary(nil)

	badDirty := bytes.Clone(valid)
	badDirty[headerSize+16] = 7

	overCount := bytes.Clone(valid)
	overCount[0] = 9

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", valid[:5]},
		{"truncated record", valid[:len(valid)-3]},
		{"bad dirty flag", badDirty},
		{"count above capacity", overCount},
		{"huge count then EOF", []byte{0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff, 0x7f}},
		{"huge count then one record", append([]byte{0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff, 0x7f}, valid[headerSize:]...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrCorruptBlock) {
				t.Errorf("err = %v, want ErrCorruptBlock", err)
			}
		})
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	doc := uuid.New()
	key := Key{Doc: doc, Index: 3}
	block := &Block{MaxCapacity: 8, Records: []Record{{Start: 10, Length: 4, FoldState: 1}}}

	if _, err := s.Get(key); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("Get missing: err = %v", err)
	}
	if err := s.Put(key, block); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, block) {
		t.Errorf("Get = %+v, want %+v", got, block)
	}
	if err := s.Delete(key); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(key); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, err := s.Get(key); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("Get after Delete: err = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(key, block); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after Close: err = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestDiskStore(t *testing.T) {
	s, err := NewDiskStore(filepath.Join(t.TempDir(), "pages"))
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestDiskStoreLayout(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	doc := uuid.New()
	if err := s.Put(Key{Doc: doc, Index: 0}, &Block{MaxCapacity: 1}); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(s.Dir(), doc.String(), "0.blk")
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("block file missing: %v", err)
	}
	if err := s.Purge(doc); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("Purge left %s", p)
	}
}

func TestPagerLifecycle(t *testing.T) {
	store := NewMemoryStore()
	p := NewPager(store, uuid.New(), WithBlockSize(4))

	records := []Record{
		{Start: 0, Length: 2, Tokens: []Token{{Type: 1, Start: 0, Length: 1}}},
		{Start: 2, Length: 5, Dirty: true},
		{Start: 7, Length: 1, FoldState: 2},
	}
	refs, err := p.Evict(records)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 3 || store.Len() != 1 {
		t.Fatalf("refs = %v, blocks = %d", refs, store.Len())
	}

	got, err := p.Restore(refs[1])
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, records[1]) {
		t.Errorf("Restore = %+v, want %+v", got, records[1])
	}
	if _, err := p.Restore(refs[0]); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Error("block deleted while a record is still evicted")
	}
	p.Release(refs[2])
	if store.Len() != 0 {
		t.Error("block not deleted after its last record was released")
	}

	st := p.Stats()
	if st.Misses != 1 || st.Hits != 1 || st.Restored != 2 || st.Evicted != 3 || st.Blocks != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestPagerRejectsOversizedRun(t *testing.T) {
	p := NewPager(NewMemoryStore(), uuid.New(), WithBlockSize(2))
	if _, err := p.Evict(make([]Record, 3)); !errors.Is(err, ErrBlockFull) {
		t.Errorf("err = %v, want ErrBlockFull", err)
	}
}

func TestPagerReset(t *testing.T) {
	store := NewMemoryStore()
	p := NewPager(store, uuid.New())
	for range 3 {
		if _, err := p.Evict([]Record{{Length: 1}}); err != nil {
			t.Fatal(err)
		}
	}
	p.Reset()
	if store.Len() != 0 || p.Stats().Blocks != 0 {
		t.Errorf("Reset left %d blocks", store.Len())
	}
}
