package ingest

import (
	"context"
	"sync/atomic"

	"github.com/nconklindev/sheetsync/internal/parser"
	"github.com/nconklindev/sheetsync/internal/source"
	"github.com/nconklindev/sheetsync/internal/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel file reads when Options leaves it unset.
const DefaultConcurrency = 4

// ByteReader fetches the raw bytes of one input location.
type ByteReader interface {
	Read(ctx context.Context, location string) ([]byte, error)
}

// Options configures Load.
type Options struct {
	// Reader defaults to a source.Reader with the AWS default region.
	Reader      ByteReader
	Concurrency int
	// Progress, when set, receives the completed fraction after each file.
	// Sends never block.
	Progress chan<- float64
	Logger   *zap.Logger
}

// Load reads and parses every location concurrently. The result has one
// entry per location in input order, whatever order the reads finish in.
// A location that cannot be read or parsed yields an entry with no rows
// and Err set; only context cancellation makes Load itself fail.
func Load(ctx context.Context, locations []string, opts Options) ([]types.FileData, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	reader := opts.Reader
	if reader == nil {
		reader = source.NewReader("", logger)
	}

	results := make([]types.FileData, len(locations))
	total := len(locations)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, loc := range locations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = loadOne(gctx, reader, loc, logger)

			reportProgress(opts.Progress, int(done.Add(1)), total)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// LoadAndIngest is Load followed by Ingest.
func LoadAndIngest(ctx context.Context, locations []string, opts Options, sink WarningSink) (Result, error) {
	files, err := Load(ctx, locations, opts)
	if err != nil {
		return Result{}, err
	}
	return Ingest(files, sink)
}

func loadOne(ctx context.Context, r ByteReader, location string, logger *zap.Logger) types.FileData {
	data, err := r.Read(ctx, location)
	if err != nil {
		logger.Warn("Failed to read file", zap.String("file", location), zap.Error(err))
		return types.FileData{Name: location, Err: err}
	}

	fd, err := parser.Parse(source.Name(location), data)
	fd.Name = location
	if err != nil {
		logger.Warn("Failed to parse file", zap.String("file", location), zap.Error(err))
		fd.Err = err
		return fd
	}

	logger.Debug("Parsed file",
		zap.String("file", location),
		zap.Int("rows", len(fd.Rows)),
		zap.Strings("headers", fd.Headers),
	)
	return fd
}

func reportProgress(ch chan<- float64, done, total int) {
	if ch == nil || total == 0 {
		return
	}
	select {
	case ch <- float64(done) / float64(total):
	default:
	}
}
