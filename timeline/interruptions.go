package timeline

import "fmt"

// Interruption records a speaker starting before the previous utterance,
// by start order, has ended.
type Interruption struct {
	Speaker     Speaker `json:"speaker" yaml:"speaker"`
	Interrupted Speaker `json:"interrupted" yaml:"interrupted"`
	At          float64 `json:"at_sec" yaml:"at_sec"`
}

func (i Interruption) String() string {
	return fmt.Sprintf("%s interrupts %s at %s", i.Speaker, i.Interrupted, FormatTime(i.At))
}

// DetectInterruptions examines each start-order-adjacent pair of valid
// utterances and reports the second one when it starts before the first
// ends and has a different speaker.
//
// Only adjacent pairs are examined. In a three-way overlap an utterance
// that overlaps a non-adjacent predecessor is not counted again; callers
// needing a full overlap graph must build it themselves.
func DetectInterruptions(utts []Utterance) []Interruption {
	valid := Valid(utts)
	var out []Interruption
	for i := 0; i+1 < len(valid); i++ {
		cur, next := valid[i], valid[i+1]
		if next.Start < cur.End && next.Speaker != cur.Speaker {
			out = append(out, Interruption{Speaker: next.Speaker, Interrupted: cur.Speaker, At: next.Start})
		}
	}
	return out
}

// CountBySpeaker tallies interruptions per interrupting speaker.
func CountBySpeaker(ints []Interruption) map[Speaker]int {
	counts := map[Speaker]int{}
	for _, i := range ints {
		counts[i.Speaker]++
	}
	return counts
}
