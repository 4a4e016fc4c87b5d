package ops

import (
	"context"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/dataset"
)

// GcContent computes the fraction of G and C bases over all records. Its
// output is a floating aggregate, so validation is tolerance-bounded: the
// parallel reduction order may legally perturb the last bits. Only the
// ASCII encoding is implemented; a twobit node measures the ASCII kernels.
type GcContent struct{}

// NewGcContent returns the GC-content operation.
func NewGcContent() *GcContent { return &GcContent{} }

func (o *GcContent) Name() string        { return "gc_content" }
func (o *GcContent) Complexity() float64 { return 0.33 }

func (o *GcContent) Comparator() Comparator { return ToleranceComparator(1e-9) }

type gcPartial struct {
	gc    int64
	total int64
}

func (o *GcContent) ExecuteBaseline(data []dataset.Record) (Output, error) {
	p, _ := gcChunk(context.Background(), data)
	return gcOutput(p), nil
}

func (o *GcContent) Execute(ctx context.Context, data []dataset.Record, hw config.Hardware) (Output, error) {
	if hw.GPU {
		return Output{}, &CapabilityError{Operation: o.Name(), Capability: "gpu"}
	}

	chunk := gcChunk
	if hw.SIMD {
		chunk = gcUnrolledChunk
	}

	if hw.Threads <= 1 {
		p, err := chunk(ctx, data)
		if err != nil {
			return Output{}, err
		}
		return gcOutput(p), nil
	}

	partials, err := runSharded(ctx, data, hw.Threads, chunk)
	if err != nil {
		return Output{}, err
	}
	var sum gcPartial
	for _, p := range partials {
		sum.gc += p.gc
		sum.total += p.total
	}
	return gcOutput(sum), nil
}

func gcChunk(ctx context.Context, data []dataset.Record) (gcPartial, error) {
	var p gcPartial
	for i, rec := range data {
		if i%cancelCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return p, err
			}
		}
		for _, b := range rec.Sequence {
			switch b {
			case 'G', 'C':
				p.gc++
			}
		}
		p.total += int64(len(rec.Sequence))
	}
	return p, nil
}

// gcUnrolledChunk is the vectorization-shaped variant, counting all byte
// values branch-free over 8-byte groups the way countUnrolledChunk does.
func gcUnrolledChunk(ctx context.Context, data []dataset.Record) (gcPartial, error) {
	var table [256]int64
	var p gcPartial
	for i, rec := range data {
		if i%cancelCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return gcPartial{}, err
			}
		}
		seq := rec.Sequence
		j := 0
		for ; j+8 <= len(seq); j += 8 {
			table[seq[j]]++
			table[seq[j+1]]++
			table[seq[j+2]]++
			table[seq[j+3]]++
			table[seq[j+4]]++
			table[seq[j+5]]++
			table[seq[j+6]]++
			table[seq[j+7]]++
		}
		for ; j < len(seq); j++ {
			table[seq[j]]++
		}
		p.total += int64(len(seq))
	}
	p.gc = table['G'] + table['C']
	return p, nil
}

func gcOutput(p gcPartial) Output {
	ratio := 0.0
	if p.total > 0 {
		ratio = float64(p.gc) / float64(p.total)
	}
	return Output{Kind: OutputRatio, Floats: []float64{ratio}}
}
