package timeline

// Gap is the signed distance between two start-order-adjacent valid
// utterances. Negative values mean the next utterance began before the
// previous one ended.
type Gap struct {
	Seconds     float64 `json:"gap_sec" yaml:"gap_sec"`
	PrevEnd     float64 `json:"prev_end" yaml:"prev_end"`
	NextStart   float64 `json:"next_start" yaml:"next_start"`
	PrevSpeaker Speaker `json:"prev_speaker" yaml:"prev_speaker"`
	NextSpeaker Speaker `json:"next_speaker" yaml:"next_speaker"`
}

// Gaps returns the n-1 gaps between the n valid utterances in start order.
func Gaps(utts []Utterance) []Gap {
	valid := Valid(utts)
	if len(valid) < 2 {
		return nil
	}
	out := make([]Gap, 0, len(valid)-1)
	for i := 0; i+1 < len(valid); i++ {
		cur, next := valid[i], valid[i+1]
		out = append(out, Gap{
			Seconds:     next.Start - cur.End,
			PrevEnd:     cur.End,
			NextStart:   next.Start,
			PrevSpeaker: cur.Speaker,
			NextSpeaker: next.Speaker,
		})
	}
	return out
}

// Values extracts the signed gap lengths.
func Values(gaps []Gap) []float64 {
	out := make([]float64, len(gaps))
	for i, g := range gaps {
		out[i] = g.Seconds
	}
	return out
}
