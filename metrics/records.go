package metrics

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/maastricht-university/calltimeline/timeline"
)

// Ratio is a dimensionless value that may be +Inf. JSON has no infinity,
// so infinite values are written as the strings "+Inf"/"-Inf".
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	v := float64(r)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*r = Ratio(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*r = Ratio(v)
	return nil
}

// CallMetrics is the per-call output record.
type CallMetrics struct {
	CallID string `json:"call_id" yaml:"call_id"`

	TotalDuration float64 `json:"total_duration" yaml:"total_duration"`
	SpeechTime    float64 `json:"speech_time" yaml:"speech_time"`
	SilenceTime   float64 `json:"silence_time" yaml:"silence_time"`
	OverlapTime   float64 `json:"overlap_time" yaml:"overlap_time"`

	SilenceRatio    Ratio `json:"silence_ratio" yaml:"silence_ratio"`
	SpeechRatio     Ratio `json:"speech_ratio" yaml:"speech_ratio"`
	OverlapRatio    Ratio `json:"overlap_ratio" yaml:"overlap_ratio"`
	SpeechToSilence Ratio `json:"speech_to_silence_ratio" yaml:"speech_to_silence_ratio"`

	NoValidIntervals bool `json:"no_valid_intervals" yaml:"no_valid_intervals"`

	TotalUtterances   int     `json:"total_utterances" yaml:"total_utterances"`
	ValidUtterances   int     `json:"valid_utterances" yaml:"valid_utterances"`
	InvalidUtterances int     `json:"invalid_utterances" yaml:"invalid_utterances"`
	UtteranceDuration Summary `json:"utterance_duration" yaml:"utterance_duration"`

	TotalWords     int     `json:"total_words" yaml:"total_words"`
	AvgUttWords    float64 `json:"avg_utt_words" yaml:"avg_utt_words"`
	MedianUttWords float64 `json:"median_utt_words" yaml:"median_utt_words"`

	Gaps GapSummary `json:"gaps" yaml:"gaps"`

	TotalTurns      int     `json:"total_turns" yaml:"total_turns"`
	SpeakerSwitches int     `json:"speaker_switches" yaml:"speaker_switches"`
	SwitchesPerMin  float64 `json:"switches_per_min" yaml:"switches_per_min"`

	Interruptions          int                      `json:"interruptions_total" yaml:"interruptions_total"`
	InterruptionsBySpeaker map[timeline.Speaker]int `json:"interruptions_by_speaker" yaml:"interruptions_by_speaker"`

	DialogBalanceGini float64 `json:"dialog_balance_gini" yaml:"dialog_balance_gini"`

	Quality     QualityMetrics     `json:"quality" yaml:"quality"`
	Interaction InteractionMetrics `json:"interaction" yaml:"interaction"`
	Text        TextMetrics        `json:"text" yaml:"text"`
}

// SpeakerMetrics is the per-(call, speaker) output record.
type SpeakerMetrics struct {
	CallID  string           `json:"call_id" yaml:"call_id"`
	Speaker timeline.Speaker `json:"speaker" yaml:"speaker"`

	RawSpeakingTime         float64 `json:"raw_speaking_time" yaml:"raw_speaking_time"`
	ApportionedSpeakingTime float64 `json:"apportioned_speaking_time" yaml:"apportioned_speaking_time"`
	RawProportion           float64 `json:"raw_proportion" yaml:"raw_proportion"`
	ApportionedProportion   float64 `json:"apportioned_proportion" yaml:"apportioned_proportion"`

	// LongestMonologue always equals MaxTurnDuration, since a turn already
	// spans every consecutive utterance of one speaker. Both columns are
	// written because report consumers read either name.
	TurnCount        int     `json:"turn_count" yaml:"turn_count"`
	AvgTurnDuration  float64 `json:"avg_turn_duration" yaml:"avg_turn_duration"`
	MaxTurnDuration  float64 `json:"max_turn_duration" yaml:"max_turn_duration"`
	LongestMonologue float64 `json:"longest_monologue" yaml:"longest_monologue"`
	AvgUttsPerTurn   float64 `json:"avg_utts_per_turn" yaml:"avg_utts_per_turn"`

	UtteranceCount  int     `json:"utterance_count" yaml:"utterance_count"`
	TotalWords      int     `json:"total_words" yaml:"total_words"`
	AvgWordsPerUtt  float64 `json:"avg_words_per_utt" yaml:"avg_words_per_utt"`
	WordsPerMinute  float64 `json:"words_per_minute" yaml:"words_per_minute"`
	InterruptionsBy int     `json:"interruptions_made" yaml:"interruptions_made"`

	DialogBalanceGini float64 `json:"dialog_balance_gini" yaml:"dialog_balance_gini"`
	GiniContribution  float64 `json:"gini_contribution" yaml:"gini_contribution"`
}

// Report bundles everything computed for one call.
type Report struct {
	Call     CallMetrics      `json:"call" yaml:"call"`
	Speakers []SpeakerMetrics `json:"speakers" yaml:"speakers"`
}
