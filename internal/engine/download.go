package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tanq16/dl/internal/utils"
)

var errChunkSize = errors.New("size mismatch")

// fetchChunk downloads one chunk into its part file, retrying with a linear
// backoff. Part files are left on disk on failure so a later run can resume.
func (e *Engine) fetchChunk(ctx context.Context, chunk *utils.DownloadChunk, partPath string) error {
	chunk.StartTime = time.Now()
	var lastErr error
	for attempt := range e.cfg.Retries {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond): // Backoff
			}
		}
		offset, done := e.resumeOffset(chunk, partPath)
		if done {
			break
		}
		err := e.downloadSingleChunk(ctx, chunk, partPath, offset)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		chunk.Retries++
		chunk.LastError = err
		e.log.Warn().Err(err).Int("chunk", chunk.ID).Int("attempt", attempt+1).Msg("Chunk download failed")
		if attempt == e.cfg.Retries-1 {
			e.log.Error().Int("chunk", chunk.ID).Int("retries", chunk.Retries).AnErr("last_error", chunk.LastError).
				Int64("downloaded", chunk.Downloaded).Msg("Chunk gave up")
			return fmt.Errorf("chunk %d failed after %d attempts: %w", chunk.ID, e.cfg.Retries, lastErr)
		}
	}
	chunk.Completed = true
	chunk.FinishTime = time.Now()
	e.tracker.complete(chunk.ID)
	e.log.Debug().Int("chunk", chunk.ID).Dur("took", chunk.FinishTime.Sub(chunk.StartTime)).Msg("Chunk completed")
	return nil
}

// resumeOffset inspects an existing part file. Bytes already on disk are
// kept only when the server honours ranges.
func (e *Engine) resumeOffset(chunk *utils.DownloadChunk, partPath string) (int64, bool) {
	expected := chunk.Size()
	var offset int64
	if e.rangeSupported {
		if info, err := os.Stat(partPath); err == nil {
			offset = info.Size()
			if offset > expected {
				offset = 0
			}
		}
	}
	chunk.Downloaded = offset
	e.tracker.set(chunk.ID, offset)
	return offset, e.rangeSupported && expected > 0 && offset == expected
}

func (e *Engine) downloadSingleChunk(ctx context.Context, chunk *utils.DownloadChunk, partPath string, offset int64) error {
	flag := os.O_WRONLY | os.O_CREATE
	if offset > 0 {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	partFile, err := os.OpenFile(partPath, flag, 0644)
	if err != nil {
		return fmt.Errorf("error opening part file: %w", err)
	}
	defer partFile.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.URL, nil)
	if err != nil {
		return err
	}
	wantStatus := http.StatusOK
	if e.rangeSupported {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", chunk.StartByte+offset, chunk.EndByte))
		wantStatus = http.StatusPartialContent
	}
	req.Header.Set("Connection", "keep-alive")
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	buffer := make([]byte, utils.DefaultBufferSize)
	newBytes := int64(0)
	for {
		bytesRead, err := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := partFile.Write(buffer[:bytesRead]); writeErr != nil {
				return writeErr
			}
			newBytes += int64(bytesRead)
			chunk.Downloaded += int64(bytesRead)
			e.tracker.add(chunk.ID, int64(bytesRead))
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}
	if expected := chunk.Size(); expected > 0 && chunk.Downloaded != expected {
		return fmt.Errorf("%w: expected %d bytes for chunk %d, got %d (%d this session)",
			errChunkSize, expected, chunk.ID, chunk.Downloaded, newBytes)
	}
	return nil
}
