package timeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultTolerance is the absolute tolerance used by Result.Check.
const DefaultTolerance = 1e-9

// Result holds the interval algebra of one call, in seconds.
//
//	T  span from the earliest start to the latest end
//	L  union of speech
//	O  time with two or more distinct speakers active
//	S  silence, T - L
type Result struct {
	T           float64             `json:"total_duration" yaml:"total_duration"`
	L           float64             `json:"speech_time" yaml:"speech_time"`
	O           float64             `json:"overlap_time" yaml:"overlap_time"`
	S           float64             `json:"silence_time" yaml:"silence_time"`
	Apportioned map[Speaker]float64 `json:"apportioned" yaml:"apportioned"`
	Raw         map[Speaker]float64 `json:"raw" yaml:"raw"`
	Intervals   int                 `json:"intervals" yaml:"intervals"`
}

type event struct {
	t       float64
	delta   int
	speaker Speaker
}

// Sweep computes the Result for the valid utterances in utts. Invalid
// utterances are ignored and input order does not matter.
//
// Boundary events are ordered by time; at equal times every end is applied
// before any start, so back-to-back intervals of different speakers never
// count as simultaneous. Active speakers are counted by identity: one
// speaker's own overlapping utterances form a single active speaker.
func Sweep(utts []Utterance) Result {
	res := Result{
		Apportioned: map[Speaker]float64{},
		Raw:         map[Speaker]float64{},
	}

	events := make([]event, 0, 2*len(utts))
	minStart, maxEnd := math.Inf(1), math.Inf(-1)
	for _, u := range utts {
		if !u.ValidTime {
			continue
		}
		res.Intervals++
		res.Raw[u.Speaker] += u.End - u.Start
		minStart = math.Min(minStart, u.Start)
		maxEnd = math.Max(maxEnd, u.End)
		events = append(events,
			event{t: u.Start, delta: +1, speaker: u.Speaker},
			event{t: u.End, delta: -1, speaker: u.Speaker},
		)
	}
	if res.Intervals == 0 {
		return res
	}
	res.T = maxEnd - minStart

	speakers := make([]Speaker, 0, len(res.Raw))
	for spk := range res.Raw {
		speakers = append(speakers, spk)
	}
	sort.Slice(speakers, func(i, j int) bool { return speakers[i] < speakers[j] })

	sort.Slice(events, func(i, j int) bool {
		if events[i].t != events[j].t {
			return events[i].t < events[j].t
		}
		return events[i].delta < events[j].delta
	})

	// per-speaker open interval count; a speaker is active while > 0
	open := map[Speaker]int{}
	active := 0
	last := events[0].t
	for i := 0; i < len(events); {
		t := events[i].t
		if d := t - last; d > 0 && active > 0 {
			res.L += d
			if active >= 2 {
				res.O += d
			}
			share := d / float64(active)
			for _, spk := range speakers {
				if open[spk] > 0 {
					res.Apportioned[spk] += share
				}
			}
		}
		for ; i < len(events) && events[i].t == t; i++ {
			e := events[i]
			before := open[e.speaker]
			open[e.speaker] = before + e.delta
			switch {
			case before == 0 && e.delta > 0:
				active++
			case before == 1 && e.delta < 0:
				active--
			}
		}
		last = t
	}

	res.S = math.Max(0, res.T-res.L)
	return res
}

// SpeechToSilence returns L/S, or +Inf when there is no silence.
func (r Result) SpeechToSilence() float64 {
	if r.S == 0 {
		return math.Inf(1)
	}
	return r.L / r.S
}

// Ratio returns part/T, or 0 for an empty timeline.
func (r Result) Ratio(part float64) float64 {
	if r.T <= 0 {
		return 0
	}
	return part / r.T
}

// Check verifies L+S=T, O<=L, sum(A)=L and sum(R)>=L within tol.
func (r Result) Check(tol float64) error {
	var violations []string
	if math.Abs(r.L+r.S-r.T) > tol {
		violations = append(violations, fmt.Sprintf("L+S != T (%g + %g != %g)", r.L, r.S, r.T))
	}
	if r.O > r.L+tol {
		violations = append(violations, fmt.Sprintf("O > L (%g > %g)", r.O, r.L))
	}
	var sumA, sumR float64
	for _, v := range r.Apportioned {
		sumA += v
	}
	for _, v := range r.Raw {
		sumR += v
	}
	if math.Abs(sumA-r.L) > tol {
		violations = append(violations, fmt.Sprintf("sum(A) != L (%g != %g)", sumA, r.L))
	}
	if sumR < r.L-tol {
		violations = append(violations, fmt.Sprintf("sum(R) < L (%g < %g)", sumR, r.L))
	}
	if len(violations) == 0 {
		return nil
	}
	return fmt.Errorf("timeline invariants violated: %s", strings.Join(violations, "; "))
}
