package timeline

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnusableRecords is returned when a call's record set cannot be
// interpreted at all, e.g. no record carries a speaker field.
var ErrUnusableRecords = errors.New("unusable record set")

// Normalize validates the timing and speaker of every raw utterance of one
// call. Defective utterances are kept and flagged, never corrected or
// dropped. The output preserves input order; Index is the input position.
func Normalize(callID string, raw []RawUtterance) ([]Utterance, error) {
	if len(raw) == 0 {
		return []Utterance{}, nil
	}

	speakerSeen := false
	for _, r := range raw {
		if r.Speaker != nil {
			speakerSeen = true
			break
		}
	}
	if !speakerSeen {
		return nil, ErrUnusableRecords
	}

	out := make([]Utterance, 0, len(raw))
	for i, r := range raw {
		u := Utterance{
			CallID: callID,
			Index:  i,
			Text:   r.Text,
		}
		u.Speaker, u.UnknownSpeaker = normalizeSpeaker(r.Speaker)
		u.Start, u.End, u.InvalidReason = normalizeTimes(r.Start, r.End)
		u.ValidTime = u.InvalidReason == ReasonNone
		out = append(out, u)
	}
	return out, nil
}

func normalizeSpeaker(s *string) (Speaker, bool) {
	if s == nil {
		return Unknown, true
	}
	label := Speaker(strings.ToUpper(strings.TrimSpace(*s)))
	switch label {
	case Agent, Customer, Other:
		return label, false
	default:
		return Unknown, true
	}
}

func normalizeTimes(start, end RawTime) (float64, float64, InvalidReason) {
	if !start.Set || !end.Set || strings.TrimSpace(start.Value) == "" || strings.TrimSpace(end.Value) == "" {
		return 0, 0, ReasonMissingTimestamp
	}
	s, err := ParseTime(start.Value)
	if err != nil {
		return 0, 0, ReasonParseError
	}
	e, err := ParseTime(end.Value)
	if err != nil {
		return 0, 0, ReasonParseError
	}
	if e <= s {
		return s, e, ReasonNonpositiveDuration
	}
	return s, e, ReasonNone
}

// Valid returns the valid-time utterances sorted by start. Ties keep the
// input order.
func Valid(utts []Utterance) []Utterance {
	out := make([]Utterance, 0, len(utts))
	for _, u := range utts {
		if u.ValidTime {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
