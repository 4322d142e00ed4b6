package output

import (
	"io"
	"sync"

	"github.com/tanq16/dl/internal/progress"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

const barWidth = 40

// Bars draws one bar per display group plus a TOTAL bar.
// Lifecycle: Start once at metadata, Update per progress event, Finish once.
type Bars struct {
	mu       sync.Mutex
	p        *mpb.Progress
	fileName string

	groups     map[int]*mpb.Bar // keyed by group id
	groupState map[int]progress.GroupState
	total      *mpb.Bar
	totalStat  progress.Stat
	size       int64
	eta        float64
	statics    []*mpb.Bar
	started    bool
}

// NewBars creates the container; nothing is drawn until Start.
// autoRefresh forces redraws when w is not a terminal.
func NewBars(w io.Writer, fileName string, autoRefresh bool) *Bars {
	opts := []mpb.ContainerOption{
		mpb.WithOutput(w),
		mpb.WithWidth(TerminalWidth()),
	}
	if autoRefresh {
		opts = append(opts, mpb.WithAutoRefresh())
	}
	return &Bars{
		p:          mpb.New(opts...),
		fileName:   fileName,
		groups:     make(map[int]*mpb.Bar),
		groupState: make(map[int]progress.GroupState),
	}
}

// Start lays out the rows: header, group bars, spacer, TOTAL label, TOTAL bar, spacer.
// mpb renders on its own goroutine and calls back into the decorators, so
// no mpb call is made while b.mu is held.
func (b *Bars) Start(size int64, groups []progress.Group) {
	b.mu.Lock()
	b.size = size
	b.eta = nan()
	b.totalStat = progress.Stat{Speed: nan()}
	for _, g := range groups {
		b.groupState[g.ID] = progress.GroupState{Group: g, Speed: nan()}
	}
	b.mu.Unlock()

	b.addText(headerLine(b.fileName, size))
	for _, g := range groups {
		id := g.ID
		b.groups[id] = b.p.New(g.TotalBytes,
			mpb.BarStyle().Lbound("|").Filler(StyleSymbols["rect"]).Tip(StyleSymbols["rect"]).Padding(" ").Rbound("|"),
			mpb.BarWidth(barWidth),
			mpb.PrependDecorators(decor.Any(func(decor.Statistics) string {
				gs, _ := b.GroupState(id)
				return groupPrefix(gs)
			})),
			mpb.AppendDecorators(decor.Any(func(decor.Statistics) string {
				gs, _ := b.GroupState(id)
				return groupSuffix(gs)
			})),
		)
	}
	b.addText(" ")
	b.addText(FLabel("success", "TOTAL"))
	b.total = b.p.New(size,
		mpb.BarStyle().Lbound("|").
			Filler(StyleSymbols["shade"]).FillerMeta(renderTotalFill).
			Tip(StyleSymbols["shade"]).TipMeta(renderTotalFill).
			Padding(StyleSymbols["lightshade"]).Rbound("|"),
		mpb.BarWidth(barWidth),
		mpb.PrependDecorators(decor.Any(func(decor.Statistics) string { return "" })),
		mpb.AppendDecorators(decor.Any(func(decor.Statistics) string {
			return b.totalText()
		})),
	)
	b.addText(" ")

	b.mu.Lock()
	b.started = true
	b.mu.Unlock()
}

func renderTotalFill(s string) string {
	return totalFillStyle.Render(s)
}

func (b *Bars) totalText() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return totalSuffix(b.totalStat, b.size, b.eta)
}

func (b *Bars) addText(text string) {
	bar := b.p.New(0, mpb.NopStyle(), mpb.PrependDecorators(decor.Any(func(decor.Statistics) string {
		return text
	})))
	b.statics = append(b.statics, bar)
}

// Update pushes one aggregated frame into the bars.
func (b *Bars) Update(state progress.State) {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	for _, gs := range state.Groups {
		b.groupState[gs.ID] = gs
	}
	b.totalStat = state.Total
	b.eta = state.ETA
	b.mu.Unlock()

	for _, gs := range state.Groups {
		if bar, ok := b.groups[gs.ID]; ok {
			bar.SetCurrent(gs.Downloaded)
		}
	}
	b.total.SetCurrent(state.Total.Bytes)
}

// GroupState returns the last state drawn for a group.
func (b *Bars) GroupState(id int) (progress.GroupState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	gs, ok := b.groupState[id]
	return gs, ok
}

// Finish completes (success) or aborts every bar, then waits for the final frame.
func (b *Bars) Finish(success bool) {
	b.mu.Lock()
	bars := make([]*mpb.Bar, 0, len(b.groups)+len(b.statics)+1)
	for _, bar := range b.groups {
		bars = append(bars, bar)
	}
	if b.total != nil {
		bars = append(bars, b.total)
	}
	bars = append(bars, b.statics...)
	b.started = false
	b.mu.Unlock()

	for _, bar := range bars {
		if success {
			bar.SetTotal(-1, true)
		} else {
			bar.Abort(false)
		}
	}
	b.p.Wait()
}
