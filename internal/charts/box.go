package charts

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// BoxSummary is the five-number summary plus mean and standard deviation
type BoxSummary struct {
	Q1         float64 `json:"q1"`
	Median     float64 `json:"median"`
	Q3         float64 `json:"q3"`
	LowerFence float64 `json:"lowerfence"`
	UpperFence float64 `json:"upperfence"`
	Mean       float64 `json:"mean"`
	SD         float64 `json:"sd"`
	Outliers   int     `json:"outliers"`
}

// Summarize computes box statistics. Quartiles interpolate linearly between order
// statistics, as Plotly's default "linear" quartile method does; fences are the most
// extreme observations within 1.5 IQR of the box.
func Summarize(data []float64) (BoxSummary, bool) {
	if len(data) == 0 {
		return BoxSummary{}, false
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	var s BoxSummary
	if len(sorted) == 1 {
		v := sorted[0]
		s = BoxSummary{Q1: v, Median: v, Q3: v, LowerFence: v, UpperFence: v, Mean: v}
		return s, true
	}

	median, err := stats.Median(sorted)
	if err != nil {
		return BoxSummary{}, false
	}
	s.Q1, s.Median, s.Q3 = linearQuantile(sorted, 0.25), median, linearQuantile(sorted, 0.75)

	s.Mean, s.SD = stat.MeanStdDev(sorted, nil)
	if math.IsNaN(s.SD) {
		s.SD = 0
	}

	iqr := s.Q3 - s.Q1
	low, high := s.Q1-1.5*iqr, s.Q3+1.5*iqr
	s.LowerFence, s.UpperFence = s.Q1, s.Q3
	for _, v := range sorted {
		if v >= low {
			s.LowerFence = math.Min(v, s.Q1)
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= high {
			s.UpperFence = math.Max(sorted[i], s.Q3)
			break
		}
	}
	for _, v := range sorted {
		if v < low || v > high {
			s.Outliers++
		}
	}
	return s, true
}

// linearQuantile interpolates at rank (n-1)p of sorted data
func linearQuantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

func boxTrace(g *colorGroup) Trace {
	noPoints := false
	trace := Trace{Type: "box", Name: g.name, BoxMean: "sd", BoxPoints: &noPoints}
	for _, x := range g.xs {
		s, ok := Summarize(g.buckets[x])
		if !ok {
			continue
		}
		trace.X = append(trace.X, x)
		trace.Q1 = append(trace.Q1, s.Q1)
		trace.Median = append(trace.Median, s.Median)
		trace.Q3 = append(trace.Q3, s.Q3)
		trace.LowerFence = append(trace.LowerFence, s.LowerFence)
		trace.UpperFence = append(trace.UpperFence, s.UpperFence)
		trace.Mean = append(trace.Mean, s.Mean)
		trace.SD = append(trace.SD, s.SD)
	}
	return trace
}
