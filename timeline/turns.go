package timeline

// Turn is a maximal run of start-ordered utterances by one speaker.
type Turn struct {
	Speaker    Speaker `json:"speaker" yaml:"speaker"`
	Start      float64 `json:"start_sec" yaml:"start_sec"`
	End        float64 `json:"end_sec" yaml:"end_sec"`
	Duration   float64 `json:"duration_sec" yaml:"duration_sec"`
	Utterances int     `json:"utterance_count" yaml:"utterance_count"`
}

// Segment groups valid utterances into turns. A turn continues while the
// next utterance by start order has the same speaker, whatever the gap
// between them; its End is the latest end among its utterances.
func Segment(utts []Utterance) []Turn {
	valid := Valid(utts)
	if len(valid) == 0 {
		return nil
	}

	var turns []Turn
	cur := Turn{Speaker: valid[0].Speaker, Start: valid[0].Start, End: valid[0].End, Utterances: 1}
	for _, u := range valid[1:] {
		if u.Speaker == cur.Speaker {
			if u.End > cur.End {
				cur.End = u.End
			}
			cur.Utterances++
			continue
		}
		cur.Duration = cur.End - cur.Start
		turns = append(turns, cur)
		cur = Turn{Speaker: u.Speaker, Start: u.Start, End: u.End, Utterances: 1}
	}
	cur.Duration = cur.End - cur.Start
	return append(turns, cur)
}

// Switches is the number of speaker changes between turns.
func Switches(turns []Turn) int {
	return max(len(turns)-1, 0)
}

// SpeakerTurns summarizes one speaker's turns.
type SpeakerTurns struct {
	Count           int     `json:"turn_count" yaml:"turn_count"`
	AvgDuration     float64 `json:"avg_turn_duration" yaml:"avg_turn_duration"`
	LongestTurn     float64 `json:"longest_monologue" yaml:"longest_monologue"`
	AvgUtterances   float64 `json:"avg_utts_per_turn" yaml:"avg_utts_per_turn"`
	totalUtterances int
}

// TurnStats computes per-speaker turn statistics. The average duration is
// the speaker's apportioned time over its turn count, so concurrent speech
// does not inflate it.
func TurnStats(turns []Turn, apportioned map[Speaker]float64) map[Speaker]SpeakerTurns {
	stats := map[Speaker]SpeakerTurns{}
	for _, t := range turns {
		s := stats[t.Speaker]
		s.Count++
		s.totalUtterances += t.Utterances
		if t.Duration > s.LongestTurn {
			s.LongestTurn = t.Duration
		}
		stats[t.Speaker] = s
	}
	for spk, s := range stats {
		s.AvgDuration = apportioned[spk] / float64(s.Count)
		s.AvgUtterances = float64(s.totalUtterances) / float64(s.Count)
		stats[spk] = s
	}
	return stats
}
