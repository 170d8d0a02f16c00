// Package timeline derives visualization models from the trace store: a
// zoomable per-channel mark histogram, and an address-frequency profile from
// hardware PC samples.
package timeline

import (
	"fmt"

	"github.com/mabhi256/swotrace/internal/itm"
	"github.com/mabhi256/swotrace/internal/trace"
)

// Mark is one dot on a channel's timeline. Events closer than mergeRadius
// position units collapse into a single mark with an incremented count; the
// individual timestamps are not kept, only the earliest position.
type Mark struct {
	Position float32
	Count    int
}

const mergeRadius = 0.5

// Zoom scale progression, in microseconds per division. Each step changes
// the scale by roughly 1.5x while landing on round values; the unit rolls
// over µs -> ms -> s -> min at human boundaries (1000 µs, 1000 ms, 60 s).
var zoomDeltasUS = buildZoomDeltas()

func buildZoomDeltas() []float64 {
	mantissas := []float64{1, 1.5, 2, 3, 5, 7.5}
	var deltas []float64
	// µs and ms decades.
	for _, decade := range []float64{1, 10, 100, 1e3, 1e4, 1e5} {
		for _, m := range mantissas {
			deltas = append(deltas, m*decade)
		}
	}
	// Seconds stop at 30: the next human step above 30 s is a minute.
	for _, s := range []float64{1, 1.5, 2, 3, 5, 7.5, 10, 15, 20, 30} {
		deltas = append(deltas, s*1e6)
	}
	for _, m := range []float64{1, 1.5, 2, 3, 5, 7.5, 10} {
		deltas = append(deltas, m*6e7)
	}
	return deltas
}

const (
	defaultPixelsPerUnit = 10.0

	// Index of 1 ms in zoomDeltasUS.
	defaultZoomStep = 18
)

// Aggregator rebuilds TimelineMark arrays from the trace store. Owned by the
// view side; Rebuild is called after zoom changes and on new data.
type Aggregator struct {
	marks [itm.NumChannels][]Mark

	// Extremes across all channels from the last Rebuild, for visual
	// scaling.
	MaxPosition float32
	MaxCount    int

	pixelsPerUnit float64
	zoomStep      int

	// FitWidth is the position budget used by zoom-to-fit, typically the
	// widget width in pixels. Zero disables fitting.
	FitWidth float64
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		pixelsPerUnit: defaultPixelsPerUnit,
		zoomStep:      defaultZoomStep,
	}
}

// Delta returns the current per-division time in seconds.
func (a *Aggregator) Delta() float64 {
	return zoomDeltasUS[a.zoomStep] * 1e-6
}

// ScaleLabel renders the per-division time with its unit.
func (a *Aggregator) ScaleLabel() string {
	us := zoomDeltasUS[a.zoomStep]
	switch {
	case us < 1e3:
		return fmt.Sprintf("%g µs/div", us)
	case us < 1e6:
		return fmt.Sprintf("%g ms/div", us/1e3)
	case us < 6e7:
		return fmt.Sprintf("%g s/div", us/1e6)
	default:
		return fmt.Sprintf("%g min/div", us/6e7)
	}
}

// ZoomIn makes each division cover less time, separating merged marks.
func (a *Aggregator) ZoomIn() {
	if a.zoomStep > 0 {
		a.zoomStep--
	}
}

// ZoomOut makes each division cover more time.
func (a *Aggregator) ZoomOut() {
	if a.zoomStep < len(zoomDeltasUS)-1 {
		a.zoomStep++
	}
}

// Marks returns the mark array for one channel, valid until the next
// Rebuild.
func (a *Aggregator) Marks(channel int) []Mark {
	if channel < 0 || channel >= itm.NumChannels {
		return nil
	}
	return a.marks[channel]
}

// Rebuild recomputes every enabled channel's marks from the store. limit > 0
// restricts the walk to the most recent limit lines. zoomToFit first widens
// the scale until the whole trace fits inside FitWidth.
func (a *Aggregator) Rebuild(store *trace.Store, table *itm.ChannelTable, limit int, zoomToFit bool) {
	for i := range a.marks {
		a.marks[i] = nil
	}
	a.MaxPosition = 0
	a.MaxCount = 0

	if store.Len() == 0 {
		return
	}

	first := limit
	if limit <= 0 || limit > store.Len() {
		first = store.Len()
	}
	skip := store.Len() - first

	if zoomToFit && a.FitWidth > 0 {
		a.fit(store)
	}

	t0 := store.Base()
	scale := a.pixelsPerUnit / a.Delta()

	store.Each(func(i int, l *trace.Line) bool {
		if i < skip {
			return true
		}
		if !table.Enabled(l.Channel) {
			return true
		}
		pos := float32((l.Timestamp - t0) * scale)

		marks := a.marks[l.Channel]
		if n := len(marks); n > 0 && pos-marks[n-1].Position < mergeRadius {
			marks[n-1].Count++
			if marks[n-1].Count > a.MaxCount {
				a.MaxCount = marks[n-1].Count
			}
			return true
		}
		a.marks[l.Channel] = append(marks, Mark{Position: pos, Count: 1})
		if pos > a.MaxPosition {
			a.MaxPosition = pos
		}
		if a.MaxCount < 1 {
			a.MaxCount = 1
		}
		return true
	})
}

// fit widens the zoom until the last line's position is inside FitWidth.
func (a *Aggregator) fit(store *trace.Store) {
	span := 0.0
	store.Each(func(i int, l *trace.Line) bool {
		if i == store.Len()-1 {
			span = l.Timestamp - store.Base()
		}
		return true
	})
	for a.zoomStep < len(zoomDeltasUS)-1 {
		if span*a.pixelsPerUnit/a.Delta() <= a.FitWidth {
			return
		}
		a.zoomStep++
	}
}
