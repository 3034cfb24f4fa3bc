package metrics

import (
	"sort"

	"github.com/maastricht-university/calltimeline/timeline"
)

type ranked struct {
	speaker timeline.Speaker
	value   float64
}

func rank(apportioned map[timeline.Speaker]float64) ([]ranked, float64) {
	out := make([]ranked, 0, len(apportioned))
	var total float64
	for spk, v := range apportioned {
		out = append(out, ranked{spk, v})
		total += v
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value < out[j].value
		}
		return out[i].speaker < out[j].speaker
	})
	return out, total
}

// Gini is the dialog balance over apportioned speaking time:
//
//	G = 2*sum(i*x_i) / (n*sum(x)) - (n+1)/n
//
// with x sorted ascending and i the 1-based rank. Fewer than two speakers,
// or no speech at all, gives 0. Speakers present with zero time count.
func Gini(apportioned map[timeline.Speaker]float64) float64 {
	vals, total := rank(apportioned)
	if len(vals) < 2 || total <= 0 {
		return 0
	}
	n := float64(len(vals))
	var weighted float64
	for i, r := range vals {
		weighted += float64(i+1) * r.value
	}
	return 2*weighted/(n*total) - (n+1)/n
}

// GiniContributions splits G into one term per speaker,
// 2*i*x_i/(n*sum(x)) - (n+1)/n^2, so that the terms sum to G.
func GiniContributions(apportioned map[timeline.Speaker]float64) map[timeline.Speaker]float64 {
	out := make(map[timeline.Speaker]float64, len(apportioned))
	vals, total := rank(apportioned)
	n := float64(len(vals))
	if len(vals) < 2 || total <= 0 {
		for spk := range apportioned {
			out[spk] = 0
		}
		return out
	}
	for i, r := range vals {
		out[r.speaker] = 2*float64(i+1)*r.value/(n*total) - (n+1)/(n*n)
	}
	return out
}
