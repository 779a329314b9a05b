// Package ingest drives the per-file import: demultiplex the byte stream,
// decode each frame with its protocol's tables, correlate navigation
// records into epochs and write everything to the store.
package ingest

import (
	"compress/bzip2"
	"compress/gzip"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kwan3217/globetrotter/internal/ais"
	"github.com/kwan3217/globetrotter/internal/common"
	"github.com/kwan3217/globetrotter/internal/epoch"
	"github.com/kwan3217/globetrotter/internal/frame"
	"github.com/kwan3217/globetrotter/internal/l1ca"
	"github.com/kwan3217/globetrotter/internal/nmea"
	"github.com/kwan3217/globetrotter/internal/schema"
	"github.com/kwan3217/globetrotter/internal/store"
	"github.com/kwan3217/globetrotter/internal/ubx"
)

// Summary describes one file's import.
type Summary struct {
	File         string
	SHA256       string
	Bytes        int64
	Frames       int64
	Drops        int64
	Unrecognized int64
	Counts       map[string]int64 // "protocol/packet" -> records stored
	Started      time.Time
	Finished     time.Time
	Skipped      bool // file was already in the store
}

// SortedCounts returns the count keys in stable order for reports.
func (s *Summary) SortedCounts() []string {
	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Session imports files into one store. Safe to share across goroutines;
// per-file state lives in the import loop.
type Session struct {
	st       store.Store
	metrics  *common.Metrics
	dumpDir  string
	maxDumps int
}

// Option configures a Session.
type Option func(*Session)

// WithDumpDir enables hex dumps of undecodable frames into dir.
func WithDumpDir(dir string) Option {
	return func(s *Session) { s.dumpDir = dir }
}

func New(st store.Store, m *common.Metrics, opts ...Option) *Session {
	s := &Session{st: st, metrics: m, maxDumps: 100}
	for _, o := range opts {
		o(s)
	}
	return s
}

// openInput opens path, unwrapping gzip or bzip2 by extension.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("ingest: gzip %s: %w", path, err)
		}
		return struct {
			io.Reader
			io.Closer
		}{zr, f}, nil
	case strings.HasSuffix(path, ".bz2"):
		return struct {
			io.Reader
			io.Closer
		}{bzip2.NewReader(f), f}, nil
	}
	return f, nil
}

// ImportFile registers path by basename and decodes it into the store.
// A file already registered is skipped.
func (s *Session) ImportFile(ctx context.Context, path string) (*Summary, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return s.run(ctx, filepath.Base(path), r)
}

// ImportReader is ImportFile for an already-open stream.
func (s *Session) ImportReader(ctx context.Context, name string, r io.Reader) (*Summary, error) {
	return s.run(ctx, name, r)
}

// fileState is the per-file decode context.
type fileState struct {
	sum    *Summary
	corr   *epoch.Correlator
	aisSes *ais.Session
	meta   store.Meta
	dumps  int
	inJunk bool
}

func (s *Session) run(ctx context.Context, name string, r io.Reader) (*Summary, error) {
	sum := &Summary{File: name, Counts: map[string]int64{}, Started: time.Now()}

	fileID, existed, err := s.st.RegisterFile(ctx, name, sum.Started)
	if err != nil {
		return nil, err
	}
	if existed {
		common.Log.Info().Str("file", name).Msg("already imported, skipping")
		sum.Skipped = true
		return sum, nil
	}

	hasher := common.NewHasher()
	fr := frame.NewReader(io.TeeReader(r, hasher))
	st := &fileState{
		sum:    sum,
		corr:   epoch.New(s.st, fileID),
		aisSes: ais.NewSession(),
		meta:   store.Meta{FileID: fileID},
	}

	for {
		f, err := fr.Next()
		if err == io.EOF {
			break
		}
		var trunc *frame.TruncatedError
		if errors.As(err, &trunc) {
			sum.Drops++
			s.metrics.IncDrop()
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: %s: %w", name, err)
		}
		s.metrics.AddFrame(int64(len(f.Raw)))
		sum.Frames++
		if f.Err != nil {
			common.Log.Warn().
				Str("file", name).
				Int64("offset", f.Offset).
				Err(f.Err).
				Msg("frame dropped")
			sum.Drops++
			s.metrics.IncDrop()
			s.dump(name, f, st)
			continue
		}
		if err := s.handle(ctx, f, st, name); err != nil {
			return nil, fmt.Errorf("ingest: %s: %w", name, err)
		}
	}

	if err := st.corr.Flush(ctx); err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", name, err)
	}
	sum.Finished = time.Now()
	sum.Bytes = fr.Offset()
	sum.SHA256 = hasher.Sum()
	if err := s.st.FinishFile(ctx, fileID, sum.Finished); err != nil {
		return nil, err
	}
	common.Log.Info().
		Str("file", name).
		Int64("frames", sum.Frames).
		Int64("drops", sum.Drops).
		Msg("import finished")
	return sum, nil
}

func (s *Session) handle(ctx context.Context, f *frame.Frame, st *fileState, name string) error {
	switch f.Kind {
	case frame.KindUBX:
		st.inJunk = false
		return s.handleUBX(ctx, f, st, name)
	case frame.KindNMEA:
		st.inJunk = false
		return s.handleNMEA(ctx, f, st, name)
	case frame.KindRTCM:
		st.inJunk = false
		return s.handleRTCM(ctx, f, st)
	case frame.KindJSON:
		st.inJunk = false
		return s.handleJSON(ctx, f, st)
	default:
		// A resync is one run of junk bytes, however long.
		if !st.inJunk {
			st.inJunk = true
			s.metrics.IncResync()
		}
		st.sum.Unrecognized++
		s.metrics.IncUnrecognized()
		return nil
	}
}

func (s *Session) handleUBX(ctx context.Context, f *frame.Frame, st *fileState, name string) error {
	rec, err := ubx.Decode(f.Class, f.ID, f.Payload)
	if err != nil {
		var unk *ubx.UnknownMessageError
		if errors.As(err, &unk) {
			st.sum.Unrecognized++
			s.metrics.IncUnrecognized()
			s.dump(name, f, st)
			return nil
		}
		common.Log.Debug().Str("msg", ubx.Name(f.Class, f.ID)).Err(err).Msg("ubx decode failed")
		st.sum.Drops++
		s.metrics.IncDrop()
		s.dump(name, f, st)
		return nil
	}
	rec.Offset = f.Offset

	// GPS subframes ride inside RXM-SFRBX; decode them as their own records.
	if rec.Packet == "rxm_sfrbx" {
		if sub := s.subframeFrom(rec); sub != nil {
			sub.Offset = f.Offset
			st.sum.Counts["l1ca/"+sub.Packet]++
			if _, err := s.st.InsertRecord(ctx, sub, st.meta); err != nil {
				return err
			}
		}
	}

	st.sum.Counts["ubx/"+rec.Packet]++
	if m, ok := ubx.Lookup(f.Class, f.ID); ok && m.UseEpoch {
		st.corr.Buffer(rec)
		return nil
	}
	if rec.Packet == "nav_eoe" {
		return st.corr.EndOfEpoch(ctx, rec)
	}
	_, err = s.st.InsertRecord(ctx, rec, st.meta)
	return err
}

// subframeFrom extracts a GPS L1 C/A subframe record from an SFRBX
// carrier, or nil when the carrier holds another constellation's data.
func (s *Session) subframeFrom(rec *schema.Record) *schema.Record {
	if g := rec.Int("gnss_id"); g != ubx.GnssGPS {
		common.Log.Debug().Str("gnss", ubx.GnssName(g)).Msg("subframe from unsupported constellation")
		return nil
	}
	col := rec.Blocks["dwrd"]
	if len(col) != 10 {
		return nil
	}
	words := make([]uint32, len(col))
	for i, v := range col {
		words[i] = uint32(v.(int64))
	}
	sub, err := l1ca.Decode(words)
	if err != nil {
		common.Log.Debug().Err(err).Msg("subframe decode failed")
		return nil
	}
	prn := rec.Int("sv_id")
	sub.Fields["prn"] = prn
	if sat, ok := l1ca.Lookup(int(prn)); ok {
		sub.Fields["svn"] = int64(sat.SVN)
		sub.Fields["block"] = sat.Block
	}
	return sub
}

func (s *Session) handleNMEA(ctx context.Context, f *frame.Frame, st *fileState, name string) error {
	var rec *schema.Record
	var err error
	if len(f.Raw) > 0 && f.Raw[0] == '!' {
		rec, err = st.aisSes.Decode(f.Payload)
		if err == nil && rec == nil {
			// Fragment buffered; the record comes with the last piece.
			return nil
		}
	} else {
		rec, err = nmea.Decode(string(f.Payload))
	}
	if err != nil {
		common.Log.Debug().Err(err).Msg("sentence decode failed")
		st.sum.Drops++
		s.metrics.IncDrop()
		s.dump(name, f, st)
		return nil
	}
	rec.Offset = f.Offset
	st.sum.Counts[rec.Protocol+"/"+rec.Packet]++
	_, err = s.st.InsertRecord(ctx, rec, st.meta)
	return err
}

func (s *Session) handleRTCM(ctx context.Context, f *frame.Frame, st *fileState) error {
	rec := &schema.Record{
		Protocol: "rtcm",
		Packet:   "rtcm_frame",
		Offset:   f.Offset,
		RawLen:   len(f.Raw),
		Fields:   map[string]any{"length": int64(len(f.Payload))},
	}
	// The message number is the first 12 bits of the payload.
	if len(f.Payload) >= 2 {
		rec.Fields["msg_type"] = int64(f.Payload[0])<<4 | int64(f.Payload[1])>>4
	}
	st.sum.Counts["rtcm/rtcm_frame"]++
	_, err := s.st.InsertRecord(ctx, rec, st.meta)
	return err
}

func (s *Session) handleJSON(ctx context.Context, f *frame.Frame, st *fileState) error {
	var fields map[string]any
	if err := json.Unmarshal(f.Payload, &fields); err != nil {
		// A line that only looks like JSON is kept as its raw text.
		fields = map[string]any{"raw": string(f.Payload)}
	}
	rec := &schema.Record{
		Protocol: "json",
		Packet:   "json_line",
		Offset:   f.Offset,
		Fields:   fields,
	}
	st.sum.Counts["json/json_line"]++
	_, err := s.st.InsertRecord(ctx, rec, st.meta)
	return err
}

// dump writes the raw frame bytes as a hex listing for offline inspection.
func (s *Session) dump(name string, f *frame.Frame, st *fileState) {
	if s.dumpDir == "" || st.dumps >= s.maxDumps {
		return
	}
	st.dumps++
	path := filepath.Join(s.dumpDir, fmt.Sprintf("%s.%d.hex", name, f.Offset))
	if err := os.WriteFile(path, []byte(hex.Dump(f.Raw)), 0o644); err != nil {
		common.Log.Warn().Err(err).Str("path", path).Msg("hex dump failed")
	}
}

// ImportAll runs ImportFile over paths with the given worker count and
// returns the summaries in input order. The first error stops new work.
func (s *Session) ImportAll(ctx context.Context, paths []string, workers int) ([]*Summary, error) {
	if workers < 1 {
		workers = 1
	}
	type result struct {
		i   int
		sum *Summary
		err error
	}
	jobs := make(chan int)
	results := make(chan result)
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				sum, err := s.ImportFile(ctx, paths[i])
				results <- result{i, sum, err}
			}
		}()
	}
	go func() {
		for i := range paths {
			jobs <- i
		}
		close(jobs)
	}()

	sums := make([]*Summary, len(paths))
	var firstErr error
	for range paths {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", paths[r.i], r.err)
		}
		sums[r.i] = r.sum
	}
	return sums, firstErr
}
