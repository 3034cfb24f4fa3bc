package metrics

import (
	"math"

	"github.com/maastricht-university/calltimeline/timeline"
)

// Quality score weights.
const (
	weightTime    = 0.5
	weightSpeaker = 0.3
	weightText    = 0.2
)

// QualityMetrics describes the data health of one call.
type QualityMetrics struct {
	TotalUtterances     int `json:"total_utterances" yaml:"total_utterances"`
	InvalidTimeCount    int `json:"invalid_time_count" yaml:"invalid_time_count"`
	UnknownSpeakerCount int `json:"unknown_speaker_count" yaml:"unknown_speaker_count"`
	EmptyTextCount      int `json:"empty_text_count" yaml:"empty_text_count"`

	InvalidTimeRatio    float64 `json:"invalid_time_ratio" yaml:"invalid_time_ratio"`
	UnknownSpeakerRatio float64 `json:"unknown_speaker_ratio" yaml:"unknown_speaker_ratio"`
	EmptyTextRatio      float64 `json:"empty_text_ratio" yaml:"empty_text_ratio"`

	InvalidReasons map[timeline.InvalidReason]int `json:"invalid_reasons" yaml:"invalid_reasons"`

	MetadataDuration   *float64 `json:"call_duration_meta" yaml:"call_duration_meta"`
	ComputedDuration   float64  `json:"call_duration_computed" yaml:"call_duration_computed"`
	MetadataDelta      *float64 `json:"metadata_timeline_delta" yaml:"metadata_timeline_delta"`
	MetadataDeltaRatio *float64 `json:"metadata_timeline_delta_ratio" yaml:"metadata_timeline_delta_ratio"`

	Score float64 `json:"quality_score" yaml:"quality_score"`
}

// Quality computes the health ratios over all utterances of a call and
// compares the computed span T against the metadata duration when one is
// supplied. A call without utterances scores 0.
func Quality(utts []timeline.Utterance, T float64, metaDuration *float64) QualityMetrics {
	q := QualityMetrics{
		TotalUtterances:  len(utts),
		InvalidReasons:   map[timeline.InvalidReason]int{},
		ComputedDuration: T,
	}
	for _, u := range utts {
		if !u.ValidTime {
			q.InvalidTimeCount++
			q.InvalidReasons[u.InvalidReason]++
		}
		if u.UnknownSpeaker || u.Speaker == timeline.Unknown {
			q.UnknownSpeakerCount++
		}
		if IsEmptyText(u.Text) {
			q.EmptyTextCount++
		}
	}

	if metaDuration != nil && *metaDuration > 0 {
		meta := *metaDuration
		delta := math.Abs(meta - T)
		ratio := delta / meta
		q.MetadataDuration = &meta
		q.MetadataDelta = &delta
		q.MetadataDeltaRatio = &ratio
	}

	if q.TotalUtterances == 0 {
		return q
	}
	n := float64(q.TotalUtterances)
	q.InvalidTimeRatio = float64(q.InvalidTimeCount) / n
	q.UnknownSpeakerRatio = float64(q.UnknownSpeakerCount) / n
	q.EmptyTextRatio = float64(q.EmptyTextCount) / n
	q.Score = weightTime*(1-q.InvalidTimeRatio) +
		weightSpeaker*(1-q.UnknownSpeakerRatio) +
		weightText*(1-q.EmptyTextRatio)
	return q
}
