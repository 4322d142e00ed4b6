// Package scheduler is the single handler loop between the download engine
// and the live display.
package scheduler

import (
	"errors"
	"path/filepath"

	"github.com/tanq16/dl/internal/engine"
	"github.com/tanq16/dl/internal/progress"
	"github.com/tanq16/dl/internal/utils"
)

var (
	ErrNoChunks   = errors.New("engine reported a download without chunks")
	ErrIncomplete = errors.New("engine stopped without reporting a result")
)

// Renderer is the display side of a download. output.Bars implements it.
type Renderer interface {
	Start(size int64, groups []progress.Group)
	Update(state progress.State)
	Finish(success bool)
}

// Run consumes events until the channel is closed and returns the saved
// file path. The renderer is created when Metadata arrives.
func Run(events <-chan engine.Event, newRenderer func(fileName string) Renderer) (string, error) {
	log := utils.GetLogger("scheduler")
	var (
		renderer  Renderer
		groups    []progress.Group
		savedPath string
		done      bool
		runErr    error
	)
	for ev := range events {
		switch ev := ev.(type) {
		case engine.Metadata:
			if renderer != nil {
				log.Warn().Msg("Ignoring repeated metadata")
				continue
			}
			if len(ev.Chunks) == 0 {
				runErr = ErrNoChunks
				continue
			}
			savedPath = ev.SavedFilePath
			groups = progress.Plan(ev.Chunks)
			renderer = newRenderer(filepath.Base(savedPath))
			renderer.Start(ev.Size, groups)
			log.Debug().Str("id", ev.ID).Int("chunks", len(ev.Chunks)).Int("groups", len(groups)).Msg("Display started")
		case engine.Progress:
			if renderer == nil {
				continue
			}
			renderer.Update(progress.Aggregate(groups, ev.Snapshot))
		case engine.Error:
			if runErr == nil {
				runErr = ev.Err
			}
		case engine.Done:
			done = true
		}
	}
	if runErr == nil && !done {
		runErr = ErrIncomplete
	}
	if renderer != nil {
		renderer.Finish(runErr == nil)
	}
	return savedPath, runErr
}
