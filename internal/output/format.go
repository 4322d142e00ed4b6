package output

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tanq16/dl/internal/progress"
	"golang.org/x/term"
)

const NotAvailable = "N/A"

// maxETASeconds is the longest ETA a time.Duration can hold. A stalled
// download drives the ETA past it.
const maxETASeconds = float64(math.MaxInt64/int64(time.Second)) - 1

// FormatPercent is done/total*100 with two decimals. A zero total prints
// whatever the float division gives.
func FormatPercent(done, total int64) string {
	return fmt.Sprintf("%.2f", float64(done)/float64(total)*100)
}

// FormatSpeed humanizes bytes per second, or N/A when the speed is not a finite number.
func FormatSpeed(speed float64) string {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return NotAvailable
	}
	return humanize.Bytes(uint64(max(speed, 0)))
}

// FormatETA takes seconds from the engine and prints them as a duration.
func FormatETA(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds > maxETASeconds {
		return NotAvailable
	}
	ms := math.Round(seconds * 1000)
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}

// FormatSize humanizes a byte count.
func FormatSize(bytes int64) string {
	return humanize.Bytes(uint64(max(bytes, 0)))
}

func groupPrefix(g progress.GroupState) string {
	return fmt.Sprintf("#%d", g.ID)
}

// groupSuffix is everything after the bar of a group row.
func groupSuffix(g progress.GroupState) string {
	text := fmt.Sprintf("%s%% | %s/s", FormatPercent(g.Downloaded, g.TotalBytes), FormatSpeed(g.Speed))
	if g.Chunked() {
		text += fmt.Sprintf(" | Chunk #%d-%d", g.Start, g.End)
	}
	return text
}

// totalSuffix is everything after the bar of the TOTAL row.
func totalSuffix(total progress.Stat, size int64, eta float64) string {
	return fmt.Sprintf("%s%% | ETA: %s | %s | %s/s",
		FormatPercent(total.Bytes, size),
		FormatETA(eta),
		FormatSize(total.Bytes),
		FormatSpeed(total.Speed),
	)
}

func headerLine(fileName string, size int64) string {
	sizeText := ""
	if size > 0 {
		sizeText = fmt.Sprintf("(%s) ", FormatSize(size))
	}
	return fmt.Sprintf("Downloading %s %s...", FBold(truncateName(fileName, TerminalWidth()-40)), sizeText)
}

func truncateName(name string, width int) string {
	width = max(width, 20)
	runes := []rune(name)
	if len(runes) <= width {
		return name
	}
	return string(runes[:width-3]) + "..."
}

// fallbackWidth fits a full TOTAL row (bar plus widest labels) when stdout
// is not a terminal.
const fallbackWidth = 120

// TerminalWidth returns the stdout width, fallbackWidth when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func nan() float64 {
	return math.NaN()
}
