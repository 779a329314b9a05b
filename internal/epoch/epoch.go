// Package epoch correlates navigation records that share a measurement
// epoch. Receivers emit a burst of per-epoch messages followed by an
// explicit end-of-epoch marker; everything in the burst carries the same
// iTOW. Records are buffered until the marker arrives, then written with
// the id of the (week, iTOW, utc) epoch row.
package epoch

import (
	"context"
	"time"

	"github.com/kwan3217/globetrotter/internal/schema"
	"github.com/kwan3217/globetrotter/internal/store"
)

// Correlator buffers one file's epoch-bearing records. It is not safe for
// concurrent use; the import pipeline runs one correlator per file.
type Correlator struct {
	st     store.Store
	fileID int64

	week      int64
	weekValid bool
	utc       time.Time
	utcValid  bool

	pending []*schema.Record
}

func New(st store.Store, fileID int64) *Correlator {
	return &Correlator{st: st, fileID: fileID}
}

// observe keeps the week number and wall-clock context current. Week comes
// from the GPS time message when its validity bit is set; utc from any
// record whose fixup assembled a timestamp.
func (c *Correlator) observe(rec *schema.Record) {
	if rec.Packet == "nav_timegps" && rec.Int("week_valid") != 0 {
		c.week = rec.Int("week")
		c.weekValid = true
	}
	if utc, ok := rec.Fields["utc"].(time.Time); ok {
		c.utc = utc
		c.utcValid = true
	}
}

// Buffer holds a record until its epoch closes.
func (c *Correlator) Buffer(rec *schema.Record) {
	c.observe(rec)
	c.pending = append(c.pending, rec)
}

// Pending reports how many records await an epoch marker.
func (c *Correlator) Pending() int { return len(c.pending) }

// EndOfEpoch closes the epoch named by the marker's iTOW. Pending records
// with that iTOW get the epoch row id; stragglers from other epochs are
// written uncorrelated. The marker itself is stored with the epoch.
func (c *Correlator) EndOfEpoch(ctx context.Context, marker *schema.Record) error {
	itow := marker.Float("itow")
	var epochID int64
	if c.weekValid && c.utcValid {
		id, err := c.st.EnsureEpoch(ctx, c.week, itow, c.utc)
		if err != nil {
			return err
		}
		epochID = id
	}
	for _, rec := range c.pending {
		meta := store.Meta{FileID: c.fileID}
		if rec.Float("itow") == itow {
			meta.EpochID = epochID
		}
		if _, err := c.st.InsertRecord(ctx, rec, meta); err != nil {
			return err
		}
	}
	c.pending = c.pending[:0]
	_, err := c.st.InsertRecord(ctx, marker, store.Meta{FileID: c.fileID, EpochID: epochID})
	return err
}

// Flush writes whatever is still buffered without epoch correlation. Called
// at end of file, when no further marker can arrive.
func (c *Correlator) Flush(ctx context.Context) error {
	for _, rec := range c.pending {
		if _, err := c.st.InsertRecord(ctx, rec, store.Meta{FileID: c.fileID}); err != nil {
			return err
		}
	}
	c.pending = c.pending[:0]
	return nil
}
