// Command coupon-cache builds the coupon-code bloom filter snapshot the API
// server uses as a local negative pre-check. Input is one or more gzipped
// text files with one coupon code per line, as exported by the sales
// service.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/techstore-vn/checkout-api/internal/couponcache"
)

const (
	defaultCapacity = 10_000_000
	defaultFPR      = 0.001
	minCodeLen      = 4
	maxCodeLen      = 32
	progressEvery   = 1_000_000
)

func main() {
	var (
		dataDir  string
		outPath  string
		capacity uint
		fpr      float64
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz coupon code exports")
	flag.StringVar(&outPath, "out", "coupon-filter.bin", "output path for the filter snapshot")
	flag.UintVar(&capacity, "capacity", defaultCapacity, "expected number of codes")
	flag.Float64Var(&fpr, "fpr", defaultFPR, "target false positive rate")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, outPath, capacity, fpr); err != nil {
		slog.Error("coupon cache build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon cache built", slog.String("out", outPath))
}

func run(ctx context.Context, dataDir, outPath string, capacity uint, fpr float64) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz files in %s", dataDir)
	}

	filter := couponcache.New(capacity, fpr)

	// The filter is not safe for concurrent writes; files are scanned in
	// parallel and additions serialized.
	var mu sync.Mutex
	var total int64

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		g.Go(func() error {
			n, err := ingestFile(ctx, file, func(code string) {
				mu.Lock()
				filter.Add(code)
				mu.Unlock()
			})
			if err != nil {
				return errors.Wrapf(err, "ingest %s", file)
			}
			mu.Lock()
			total += n
			mu.Unlock()
			slog.Info("file ingested", slog.String("file", file), slog.Int64("codes", n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("all files ingested", slog.Int64("codes", total))
	return filter.WriteFile(outPath)
}

func ingestFile(ctx context.Context, path string, add func(string)) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	var n int64
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if n%progressEvery == 0 {
			select {
			case <-ctx.Done():
				return n, ctx.Err()
			default:
			}
		}
		code := scanner.Text()
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		add(code)
		n++
	}
	return n, scanner.Err()
}
