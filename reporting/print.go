package reporting

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/sample"
)

const (
	bs  = "####################################################################################################"
	bsz = float64(len(bs))
)

// PrintDistribution writes a human-readable graph of the snapshot's sampled
// values, grouped into equal-width buckets, to the passed writer. Bars are
// scaled so a distribution totals roughly 100 marks.
func PrintDistribution(w io.Writer, name metrics.Name, s sample.Snapshot, buckets int) {
	values := s.Values()
	fmt.Fprintf(w, "name: %v\n", name)
	if len(values) == 0 || buckets <= 0 {
		return
	}

	// Unsigned arithmetic keeps spans wider than math.MaxInt64 exact.
	min := s.Min()
	span := uint64(s.Max() - min)
	width := span / uint64(buckets)
	if width < math.MaxUint64 {
		width++
	}
	counts := make([]int, buckets)
	for _, v := range values {
		i := uint64(v-min) / width
		if i >= uint64(buckets) {
			i = uint64(buckets) - 1
		}
		counts[i]++
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "From\tTo\tCount\tProb\tBar\n")

	axis := "|"
	total := float64(len(values))
	for i, count := range counts {
		if count == 0 {
			axis = ":" // show that some bars were skipped
			continue
		}
		from := min + int64(uint64(i)*width)
		to := from + int64(width-1)
		p := float64(count) / total
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.4f\t%s%s\n", from, to, count, p, axis, bs[:int(p*bsz)])
		axis = "|"
	}
	tw.Flush()
}
