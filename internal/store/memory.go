package store

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/kwan3217/globetrotter/internal/schema"
)

// Memory keeps everything in maps. It backs unit tests and the count-only
// import mode.
type Memory struct {
	mu     sync.Mutex
	next   int64
	files  map[string]*fileRow
	epochs map[[2]uint64]*epochRow
	recs   []RecordRow
}

func NewMemory() *Memory {
	return &Memory{
		files:  map[string]*fileRow{},
		epochs: map[[2]uint64]*epochRow{},
	}
}

func (m *Memory) EnsureTables(ctx context.Context) error { return nil }

func (m *Memory) RegisterFile(ctx context.Context, name string, started time.Time) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.files[name]; ok {
		return row.ID, true, nil
	}
	m.next++
	m.files[name] = &fileRow{ID: m.next, Name: name, Started: started}
	return m.next, false, nil
}

func (m *Memory) FinishFile(ctx context.Context, id int64, finished time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.files {
		if row.ID == id {
			row.Finished = &finished
			return nil
		}
	}
	return nil
}

func memEpochKey(week int64, itow float64) [2]uint64 {
	return [2]uint64{uint64(week), math.Float64bits(itow)}
}

func (m *Memory) EnsureEpoch(ctx context.Context, week int64, itow float64, utc time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memEpochKey(week, itow)
	if row, ok := m.epochs[key]; ok {
		return row.ID, nil
	}
	m.next++
	m.epochs[key] = &epochRow{ID: m.next, Week: week, Itow: itow, UTC: utc}
	return m.next, nil
}

func (m *Memory) SelectExistingID(ctx context.Context, table string, match map[string]any) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch table {
	case "files":
		name, _ := match["name"].(string)
		if row, ok := m.files[name]; ok {
			return row.ID, true, nil
		}
	case "epochs":
		week, _ := match["week"].(int64)
		itow, _ := match["itow"].(float64)
		if row, ok := m.epochs[memEpochKey(week, itow)]; ok {
			return row.ID, true, nil
		}
	}
	return 0, false, nil
}

func (m *Memory) InsertRecord(ctx context.Context, rec *schema.Record, meta Meta) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.recs = append(m.recs, RecordRow{
		ID:       m.next,
		FileID:   meta.FileID,
		EpochID:  meta.EpochID,
		Protocol: rec.Protocol,
		Packet:   rec.Packet,
		Offset:   rec.Offset,
		Fields:   sanitizeFields(rec.Fields),
		Blocks:   sanitizeBlocks(rec.Blocks),
	})
	return m.next, nil
}

// WithTransaction snapshots the maps and restores them when fn fails.
func (m *Memory) WithTransaction(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	next := m.next
	files := make(map[string]*fileRow, len(m.files))
	for k, v := range m.files {
		cp := *v
		files[k] = &cp
	}
	epochs := make(map[[2]uint64]*epochRow, len(m.epochs))
	for k, v := range m.epochs {
		cp := *v
		epochs[k] = &cp
	}
	nrecs := len(m.recs)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.next = next
		m.files = files
		m.epochs = epochs
		m.recs = m.recs[:nrecs]
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// Records returns a copy of the stored record rows, for tests and the
// count-only pipeline.
func (m *Memory) Records() []RecordRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordRow, len(m.recs))
	copy(out, m.recs)
	return out
}
