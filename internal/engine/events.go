package engine

import "github.com/tanq16/dl/internal/progress"

// Event is one message on the engine's event channel. The sequence is always
// Metadata, zero or more Progress, then exactly one of Error or Done, after
// which the channel is closed.
type Event interface {
	event()
}

// Metadata is sent once before any Progress.
type Metadata struct {
	ID            string
	Chunks        []int64 // one size per chunk, in byte order
	Size          int64   // 0 when the server did not report a length
	SavedFilePath string
}

// Progress carries a full telemetry snapshot.
type Progress struct {
	progress.Snapshot
}

// Error ends the sequence unsuccessfully.
type Error struct {
	Err error
}

// Done ends the sequence successfully.
type Done struct{}

func (Metadata) event() {}
func (Progress) event() {}
func (Error) event()    {}
func (Done) event()     {}
