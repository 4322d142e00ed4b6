// Package engine downloads one URL over several ranged connections and
// reports what it is doing on a typed event channel.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tanq16/dl/internal/utils"
	"golang.org/x/sync/errgroup"
)

const DefaultReportInterval = 300 * time.Millisecond
const DefaultRetries = 5

type Engine struct {
	cfg            utils.DownloadConfig
	client         *utils.DlHTTPClient
	log            zerolog.Logger
	tracker        *tracker
	rangeSupported bool
}

func New(cfg utils.DownloadConfig) *Engine {
	if cfg.Connections < 1 {
		cfg.Connections = utils.DefaultConnections
	}
	if cfg.Retries < 1 {
		cfg.Retries = DefaultRetries
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = DefaultReportInterval
	}
	return &Engine{cfg: cfg, log: utils.GetLogger("engine")}
}

// Start runs the download in the background. The channel delivers Metadata,
// Progress events, then a single Error or Done, and is closed afterwards.
// An Engine is meant to be started once.
func (e *Engine) Start(ctx context.Context) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		if err := e.run(ctx, events); err != nil {
			e.log.Error().Err(err).Str("url", e.cfg.URL).Msg("Download failed")
			events <- Error{Err: err}
			return
		}
		events <- Done{}
	}()
	return events
}

func (e *Engine) run(ctx context.Context, events chan<- Event) error {
	id := uuid.NewString()
	e.log = e.log.With().Str("id", id).Logger()

	clientCfg := e.cfg.HTTPClientConfig
	clientCfg.HighThreadMode = e.cfg.Connections > utils.DefaultConnections
	e.client = utils.NewDlHTTPClient(clientCfg)

	info, err := getFileInfo(ctx, e.cfg.URL, e.client)
	switch {
	case errors.Is(err, utils.ErrRangeRequestsNotSupported), errors.Is(err, utils.ErrUnknownSize):
		e.log.Debug().Err(err).Msg("Falling back to a single connection")
	case err != nil:
		return err
	}
	e.rangeSupported = info.RangeSupported
	fileName := info.FileName
	if fileName == "" {
		fileName = utils.FileNameFromURL(e.cfg.URL)
	}
	savedPath := utils.ResolveSavePath(e.cfg.OutputPath, fileName)
	if err := os.MkdirAll(filepath.Dir(savedPath), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	chunks := planChunks(info.Size, e.cfg.ChunkSize, info.RangeSupported)
	state := &resumeState{URL: e.cfg.URL, Size: info.Size, Range: info.RangeSupported, Chunks: chunkSizes(chunks)}
	savedPath, err = e.prepareResume(savedPath, state)
	if err != nil {
		return err
	}
	e.log.Debug().Str("path", savedPath).Int64("size", info.Size).Int("chunks", len(chunks)).
		Bool("range", info.RangeSupported).Msg("Download planned")

	e.tracker = newTracker(info.Size, len(chunks))
	existing := e.scanParts(savedPath, chunks)
	if err := checkFreeSpace(ctx, filepath.Dir(savedPath), info.Size-existing); err != nil {
		return err
	}

	events <- Metadata{ID: id, Chunks: state.Chunks, Size: info.Size, SavedFilePath: savedPath}
	if err := e.download(ctx, events, savedPath, chunks); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("download interrupted: %w", ctx.Err())
		}
		return err
	}
	if err := assembleFile(savedPath, len(chunks), info.Size); err != nil {
		return err
	}
	events <- Progress{e.tracker.snapshot(time.Now())}
	return nil
}

// prepareResume keeps part files that match the current plan and discards
// stale ones. A finished file at savedPath is never overwritten.
func (e *Engine) prepareResume(savedPath string, state *resumeState) (string, error) {
	if _, err := os.Stat(savedPath); err == nil {
		savedPath = utils.RenewOutputPath(savedPath)
		e.log.Debug().Str("path", savedPath).Msg("Output exists, renamed")
	}
	metaPath := metaFileName(savedPath)
	prior, err := loadState(metaPath)
	if err != nil {
		e.log.Warn().Err(err).Msg("Ignoring unreadable resume state")
	}
	if prior != nil && prior.matches(state) {
		e.log.Debug().Msg("Resuming from existing parts")
		return savedPath, nil
	}
	removeArtifacts(savedPath)
	if err := saveState(metaPath, state); err != nil {
		return "", fmt.Errorf("error writing resume state: %w", err)
	}
	return savedPath, nil
}

func removeArtifacts(savedPath string) {
	entries, err := os.ReadDir(filepath.Dir(savedPath))
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && belongsTo(entry.Name(), savedPath) {
			os.Remove(filepath.Join(filepath.Dir(savedPath), entry.Name()))
		}
	}
}

// scanParts seeds the tracker with bytes already on disk so resumed data
// does not show up as speed.
func (e *Engine) scanParts(savedPath string, chunks []utils.DownloadChunk) int64 {
	var total int64
	for i := range chunks {
		offset, _ := e.resumeOffset(&chunks[i], partFileName(savedPath, chunks[i].ID))
		total += offset
	}
	return total
}

func (e *Engine) download(ctx context.Context, events chan<- Event, savedPath string, chunks []utils.DownloadChunk) error {
	reportCtx, stopReporter := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.report(reportCtx, events)
	}()
	defer func() {
		stopReporter()
		wg.Wait()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Connections)
	for i := range chunks {
		chunk := &chunks[i]
		g.Go(func() error {
			return e.fetchChunk(gctx, chunk, partFileName(savedPath, chunk.ID))
		})
	}
	return g.Wait()
}

func (e *Engine) report(ctx context.Context, events chan<- Event) {
	events <- Progress{e.tracker.snapshot(time.Now())}
	ticker := time.NewTicker(e.cfg.ReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			events <- Progress{e.tracker.snapshot(now)}
		}
	}
}
