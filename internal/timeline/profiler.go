package timeline

// Profiler buckets hardware PC samples into a caller-owned histogram indexed
// by code offset. The last bucket collects every out-of-range address, so a
// bad CodeBase shows up as a spike there instead of an error.
type Profiler struct {
	// Histogram is caller-supplied storage; its length fixes the profiled
	// code range. Must have at least 2 entries (one range bucket plus the
	// overflow bucket).
	Histogram []uint32

	// CodeBase is the load address of the profiled code.
	CodeBase uint32

	samples uint64
}

func NewProfiler(histogram []uint32, codeBase uint32) *Profiler {
	return &Profiler{Histogram: histogram, CodeBase: codeBase}
}

// AddSample buckets one program-counter sample.
func (p *Profiler) AddSample(pc uint32) {
	if len(p.Histogram) == 0 {
		return
	}
	p.samples++

	overflow := len(p.Histogram) - 1
	if pc < p.CodeBase {
		p.Histogram[overflow]++
		return
	}
	offset := pc - p.CodeBase
	if offset >= uint32(overflow) {
		p.Histogram[overflow]++
		return
	}
	p.Histogram[offset]++
}

// Samples is the total number of PC samples seen.
func (p *Profiler) Samples() uint64 {
	return p.samples
}

// Reset zeroes the histogram and sample count.
func (p *Profiler) Reset() {
	for i := range p.Histogram {
		p.Histogram[i] = 0
	}
	p.samples = 0
}
