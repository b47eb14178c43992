// Package importer bulk-loads campaigns from gzip-compressed JSON-lines
// files.
//
// Files are ordered: when the same campaign ID appears in several files the
// record from the last file wins, and within a file the last line wins.
// Duplicates are found in two passes. Pass 1 builds a bloom filter of the
// IDs in every file. Pass 2 decodes each file and writes records that no
// later filter may contain straight away; the rest are held back and
// resolved exactly once every file has been scanned.
package importer

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-campaigns/internal/domain/campaign"
)

// Sink stores imported campaigns. Upsert replaces campaigns with the same ID.
type Sink interface {
	Upsert(ctx context.Context, campaigns []campaign.Campaign) error
}

// Config tunes an import.
type Config struct {
	// ExpectedPerFile sizes the bloom filters.
	ExpectedPerFile uint
	// FalsePositiveRate of the bloom filters.
	FalsePositiveRate float64
	// BatchSize is the number of campaigns per Upsert call.
	BatchSize int
	// MaxLineSize bounds a single JSON line.
	MaxLineSize int
}

func (c Config) withDefaults() Config {
	if c.ExpectedPerFile == 0 {
		c.ExpectedPerFile = 1_000_000
	}
	if c.FalsePositiveRate <= 0 {
		c.FalsePositiveRate = 0.001
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = 1 << 20
	}
	return c
}

// Stats summarizes an import.
type Stats struct {
	Lines      int64
	Written    int64
	Superseded int64
	// Contested counts records held back by a bloom filter hit. Contested
	// minus Superseded are bloom false positives or in-file repeats.
	Contested int64
	// UnknownTypes counts records with a discount type the engine does not
	// apply.
	UnknownTypes int64
}

// LineError reports a record that could not be imported.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return e.File + ":" + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e *LineError) Unwrap() error { return e.Err }

// Importer loads campaign files into a Sink.
type Importer struct {
	sink Sink
	cfg  Config
}

// New creates an Importer.
func New(sink Sink, cfg Config) *Importer {
	return &Importer{sink: sink, cfg: cfg.withDefaults()}
}

type scan struct {
	// echoes holds IDs of this file that an earlier file's filter may
	// contain. It is exact for every real cross-file duplicate.
	echoes map[string]struct{}
	// held are records a later filter may contain, last line wins.
	held map[string]campaign.Campaign
}

// Run imports files in the given order.
func (im *Importer) Run(ctx context.Context, files []string) (Stats, error) {
	lg := zctx.From(ctx)
	var st stats

	filters, err := im.buildFilters(ctx, files)
	if err != nil {
		return Stats{}, errors.Wrap(err, "build filters")
	}
	lg.Info("Pass 1 complete", zap.Int("files", len(files)))

	scans := make([]scan, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		g.Go(func() error {
			s, err := im.scanFile(gctx, i, files[i], filters, &st)
			if err != nil {
				return err
			}
			scans[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return st.snapshot(), errors.Wrap(err, "scan files")
	}
	lg.Info("Pass 2 complete", zap.Int64("written", st.written.Load()))

	var final []campaign.Campaign
	for i, s := range scans {
		for id, c := range s.held {
			if supersededAfter(scans, i, id) {
				st.superseded.Add(1)
				continue
			}
			final = append(final, c)
		}
	}
	if err := im.write(ctx, final, &st); err != nil {
		return st.snapshot(), errors.Wrap(err, "write held campaigns")
	}
	return st.snapshot(), nil
}

func supersededAfter(scans []scan, i int, id string) bool {
	for _, later := range scans[i+1:] {
		if _, ok := later.echoes[id]; ok {
			return true
		}
	}
	return false
}

func (im *Importer) buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			f := bloom.NewWithEstimates(im.cfg.ExpectedPerFile, im.cfg.FalsePositiveRate)
			err := im.stream(ctx, path, func(line int, c campaign.Campaign) error {
				f.AddString(c.ID)
				return nil
			})
			if err != nil {
				return err
			}
			filters[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func (im *Importer) scanFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter, st *stats) (scan, error) {
	s := scan{
		echoes: make(map[string]struct{}),
		held:   make(map[string]campaign.Campaign),
	}
	lg := zctx.From(ctx).With(zap.String("file", path))

	batch := make([]campaign.Campaign, 0, im.cfg.BatchSize)
	err := im.stream(ctx, path, func(line int, c campaign.Campaign) error {
		st.lines.Add(1)
		if !c.DiscountType.Known() {
			st.unknownTypes.Add(1)
			lg.Warn("Campaign has unsupported discount type, it will not discount",
				zap.Int("line", line),
				zap.String("campaign_id", c.ID),
				zap.String("discount_type", string(c.DiscountType)),
			)
		}
		if anyContains(filters[:idx], c.ID) {
			s.echoes[c.ID] = struct{}{}
		}
		if _, ok := s.held[c.ID]; ok || anyContains(filters[idx+1:], c.ID) {
			st.contested.Add(1)
			s.held[c.ID] = c
			return nil
		}

		batch = append(batch, c)
		if len(batch) < im.cfg.BatchSize {
			return nil
		}
		err := im.write(ctx, batch, st)
		batch = batch[:0]
		return err
	})
	if err != nil {
		return scan{}, err
	}
	if err := im.write(ctx, batch, st); err != nil {
		return scan{}, err
	}
	return s, nil
}

func anyContains(filters []*bloom.BloomFilter, id string) bool {
	for _, f := range filters {
		if f.TestString(id) {
			return true
		}
	}
	return false
}

func (im *Importer) write(ctx context.Context, campaigns []campaign.Campaign, st *stats) error {
	for start := 0; start < len(campaigns); start += im.cfg.BatchSize {
		end := min(start+im.cfg.BatchSize, len(campaigns))
		if err := im.sink.Upsert(ctx, campaigns[start:end]); err != nil {
			return err
		}
		st.written.Add(int64(end - start))
	}
	return nil
}

// stream decodes and validates every line of a gzip JSON-lines file.
func (im *Importer) stream(ctx context.Context, path string, fn func(line int, c campaign.Campaign) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64*1024), im.cfg.MaxLineSize)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		c, err := decodeLine(raw)
		if err != nil {
			return &LineError{File: path, Line: line, Err: err}
		}
		if c.ID == "" {
			c.ID = lineID(path, line)
		}
		if err := validate(c); err != nil {
			return &LineError{File: path, Line: line, Err: err}
		}
		if err := fn(line, c); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// lineID derives the ID of a record that has none from its position, so both
// passes agree and re-running an import does not duplicate it.
func lineID(path string, line int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path+"#"+strconv.Itoa(line))).String()
}

var errNameRequired = errors.New("name is required")

func validate(c campaign.Campaign) error {
	if c.Name == "" {
		return errNameRequired
	}
	return campaign.Validate(c)
}

type stats struct {
	lines, written, superseded, contested, unknownTypes atomic.Int64
}

func (s *stats) snapshot() Stats {
	return Stats{
		Lines:        s.lines.Load(),
		Written:      s.written.Load(),
		Superseded:   s.superseded.Load(),
		Contested:    s.contested.Load(),
		UnknownTypes: s.unknownTypes.Load(),
	}
}
