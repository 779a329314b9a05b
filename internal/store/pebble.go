package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/kwan3217/globetrotter/internal/schema"
)

// Pebble stores records in an embedded pebble database. Record keys are
// ksuids, so a prefix scan walks records in insertion-time order; numeric
// ids come from a persisted sequence counter.
type Pebble struct {
	db *pebble.DB
	kv pebbleRW

	mu   *sync.Mutex
	next *int64
}

// pebbleRW is the read/write surface shared by *pebble.DB and an indexed
// *pebble.Batch.
type pebbleRW interface {
	Get(key []byte) ([]byte, io.Closer, error)
	Set(key, value []byte, o *pebble.WriteOptions) error
}

var seqKey = []byte("meta/seq")

// OpenPebble opens or creates the database directory.
func OpenPebble(path string) (*Pebble, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open pebble %s: %w", path, err)
	}
	p := &Pebble{db: db, kv: db, mu: &sync.Mutex{}, next: new(int64)}
	raw, closer, err := db.Get(seqKey)
	switch err {
	case nil:
		*p.next = int64(binary.BigEndian.Uint64(raw))
		closer.Close()
	case pebble.ErrNotFound:
	default:
		db.Close()
		return nil, fmt.Errorf("store: read sequence: %w", err)
	}
	return p, nil
}

// mint reserves the next numeric id and persists the counter.
func (p *Pebble) mint() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.next++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(*p.next))
	if err := p.kv.Set(seqKey, buf[:], pebble.NoSync); err != nil {
		return 0, fmt.Errorf("store: write sequence: %w", err)
	}
	return *p.next, nil
}

func idKey(prefix string, id int64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], uint64(id))
	return buf
}

func epochKey(week int64, itow float64) []byte {
	buf := make([]byte, len("epoch/key/")+16)
	copy(buf, "epoch/key/")
	binary.BigEndian.PutUint64(buf[10:], uint64(week))
	binary.BigEndian.PutUint64(buf[18:], math.Float64bits(itow))
	return buf
}

func (p *Pebble) getID(key []byte) (int64, bool, error) {
	raw, closer, err := p.kv.Get(key)
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: get %q: %w", key, err)
	}
	id := int64(binary.BigEndian.Uint64(raw))
	closer.Close()
	return id, true, nil
}

func (p *Pebble) putJSON(key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", key, err)
	}
	if err := p.kv.Set(key, raw, pebble.NoSync); err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}

type fileRow struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Started  time.Time  `json:"started"`
	Finished *time.Time `json:"finished,omitempty"`
}

type epochRow struct {
	ID   int64     `json:"id"`
	Week int64     `json:"week"`
	Itow float64   `json:"itow"`
	UTC  time.Time `json:"utc"`
}

// RecordRow is the persisted shape of one decoded record.
type RecordRow struct {
	ID       int64            `json:"id"`
	FileID   int64            `json:"file_id"`
	EpochID  int64            `json:"epoch_id,omitempty"`
	Protocol string           `json:"protocol"`
	Packet   string           `json:"packet"`
	Offset   int64            `json:"offset"`
	Fields   map[string]any   `json:"fields"`
	Blocks   map[string][]any `json:"blocks,omitempty"`
}

// EnsureTables is a no-op; pebble namespaces need no setup.
func (p *Pebble) EnsureTables(ctx context.Context) error { return nil }

func (p *Pebble) RegisterFile(ctx context.Context, name string, started time.Time) (int64, bool, error) {
	nameKey := append([]byte("file/name/"), name...)
	if id, ok, err := p.getID(nameKey); err != nil || ok {
		return id, ok, err
	}
	id, err := p.mint()
	if err != nil {
		return 0, false, err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	if err := p.kv.Set(nameKey, buf[:], pebble.NoSync); err != nil {
		return 0, false, fmt.Errorf("store: index file %s: %w", name, err)
	}
	if err := p.putJSON(idKey("file/", id), fileRow{ID: id, Name: name, Started: started}); err != nil {
		return 0, false, err
	}
	return id, false, nil
}

func (p *Pebble) FinishFile(ctx context.Context, id int64, finished time.Time) error {
	key := idKey("file/", id)
	raw, closer, err := p.kv.Get(key)
	if err != nil {
		return fmt.Errorf("store: finish file %d: %w", id, err)
	}
	var row fileRow
	err = json.Unmarshal(raw, &row)
	closer.Close()
	if err != nil {
		return fmt.Errorf("store: finish file %d: %w", id, err)
	}
	row.Finished = &finished
	return p.putJSON(key, row)
}

func (p *Pebble) EnsureEpoch(ctx context.Context, week int64, itow float64, utc time.Time) (int64, error) {
	key := epochKey(week, itow)
	if id, ok, err := p.getID(key); err != nil || ok {
		return id, err
	}
	id, err := p.mint()
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	if err := p.kv.Set(key, buf[:], pebble.NoSync); err != nil {
		return 0, fmt.Errorf("store: index epoch: %w", err)
	}
	if err := p.putJSON(idKey("epoch/", id), epochRow{ID: id, Week: week, Itow: itow, UTC: utc}); err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Pebble) SelectExistingID(ctx context.Context, table string, match map[string]any) (int64, bool, error) {
	switch table {
	case "files":
		name, _ := match["name"].(string)
		return p.getID(append([]byte("file/name/"), name...))
	case "epochs":
		week, _ := match["week"].(int64)
		itow, _ := match["itow"].(float64)
		return p.getID(epochKey(week, itow))
	}
	return 0, false, fmt.Errorf("store: no secondary key for table %s", table)
}

func (p *Pebble) InsertRecord(ctx context.Context, rec *schema.Record, meta Meta) (int64, error) {
	id, err := p.mint()
	if err != nil {
		return 0, err
	}
	row := RecordRow{
		ID:       id,
		FileID:   meta.FileID,
		EpochID:  meta.EpochID,
		Protocol: rec.Protocol,
		Packet:   rec.Packet,
		Offset:   rec.Offset,
		Fields:   sanitizeFields(rec.Fields),
		Blocks:   sanitizeBlocks(rec.Blocks),
	}
	key := append([]byte("rec/"), ksuid.New().String()...)
	if err := p.putJSON(key, row); err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Pebble) WithTransaction(ctx context.Context, fn func(Store) error) error {
	if p.db == nil {
		return fn(p)
	}
	batch := p.db.NewIndexedBatch()
	view := &Pebble{kv: batch, mu: p.mu, next: p.next}
	if err := fn(view); err != nil {
		batch.Close()
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("store: commit batch: %w", err)
	}
	return nil
}

func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
