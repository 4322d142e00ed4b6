package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
)

var ErrInsufficientSpace = errors.New("not enough free disk space")

// checkFreeSpace fails when dir cannot hold the remaining bytes. A failed
// probe is only logged.
func checkFreeSpace(ctx context.Context, dir string, remaining int64) error {
	if remaining <= 0 {
		return nil
	}
	usage, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		log.Debug().Str("op", "engine/space").Err(err).Msgf("Could not probe free space in %s", dir)
		return nil
	}
	if usage.Free < uint64(remaining) {
		return fmt.Errorf("%w: need %s, %s available in %s", ErrInsufficientSpace,
			humanize.Bytes(uint64(remaining)), humanize.Bytes(usage.Free), dir)
	}
	return nil
}
