package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/maastricht-university/calltimeline/timeline"
)

// ErrUnknownMetric is returned when a metric id is not in the Catalog.
var ErrUnknownMetric = errors.New("unknown metric")

// Options tunes the derived metrics. The zero value is not useful; start
// from DefaultOptions.
type Options struct {
	Tolerance              float64
	LongPauseSec           float64
	DeadAirSec             float64
	InterruptionGapSec     float64
	MonologueMinUtterances int
	Fillers                []string
}

// DefaultOptions returns the thresholds used when no configuration is
// supplied.
func DefaultOptions() Options {
	return Options{
		Tolerance:              timeline.DefaultTolerance,
		LongPauseSec:           3.0,
		DeadAirSec:             5.0,
		InterruptionGapSec:     0.5,
		MonologueMinUtterances: 3,
		Fillers:                DefaultFillers,
	}
}

// Input is the analyzed form of one call. The engine runs once in
// NewInput; every metric definition is a pure function of the Input.
type Input struct {
	CallID        string
	MetaDuration  *float64
	Utterances    []timeline.Utterance
	Valid         []timeline.Utterance
	Timeline      timeline.Result
	Turns         []timeline.Turn
	Gaps          []timeline.Gap
	Interruptions []timeline.Interruption
	Options       Options
}

// NewInput normalizes raw records and runs the sweep, turn, gap and
// interruption passes for one call.
func NewInput(callID string, raw []timeline.RawUtterance, metaDuration *float64, opts Options) (*Input, error) {
	utts, err := timeline.Normalize(callID, raw)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", callID, err)
	}
	return Analyze(callID, utts, metaDuration, opts), nil
}

// Analyze builds an Input from already normalized utterances.
func Analyze(callID string, utts []timeline.Utterance, metaDuration *float64, opts Options) *Input {
	valid := timeline.Valid(utts)
	return &Input{
		CallID:        callID,
		MetaDuration:  metaDuration,
		Utterances:    utts,
		Valid:         valid,
		Timeline:      timeline.Sweep(valid),
		Turns:         timeline.Segment(valid),
		Gaps:          timeline.Gaps(valid),
		Interruptions: timeline.DetectInterruptions(valid),
		Options:       opts,
	}
}

// ID names a metric group in the Catalog.
type ID string

const (
	MetricTimeline    ID = "timeline"
	MetricCall        ID = "call"
	MetricSpeaker     ID = "speaker"
	MetricQuality     ID = "quality"
	MetricInteraction ID = "interaction"
	MetricText        ID = "text"
)

// Category is the granularity of a metric group's output.
type Category string

const (
	CategoryCall    Category = "call"
	CategorySpeaker Category = "speaker"
)

// Definition declares one metric group and the function that fills its
// part of a Report.
type Definition struct {
	ID          ID
	Version     string
	Category    Category
	Description string
	Units       map[string]string
	Apply       func(in *Input, out *Report)
}

// Catalog is the fixed set of metric groups, in application order.
var Catalog = []Definition{
	{
		ID:          MetricTimeline,
		Version:     "1.0.0",
		Category:    CategoryCall,
		Description: "Span, speech, overlap and silence from the boundary sweep",
		Units: map[string]string{
			"total_duration": "s", "speech_time": "s", "silence_time": "s", "overlap_time": "s",
			"silence_ratio": "ratio", "speech_ratio": "ratio", "overlap_ratio": "ratio",
			"speech_to_silence_ratio": "ratio",
		},
		Apply: applyTimeline,
	},
	{
		ID:          MetricCall,
		Version:     "1.0.0",
		Category:    CategoryCall,
		Description: "Utterance, word, gap, turn, interruption and balance statistics",
		Units: map[string]string{
			"utterance_duration": "s", "gaps": "s", "switches_per_min": "1/min",
			"dialog_balance_gini": "ratio",
		},
		Apply: applyCall,
	},
	{
		ID:          MetricSpeaker,
		Version:     "1.0.0",
		Category:    CategorySpeaker,
		Description: "Raw and apportioned speaking time, turns and speech rate per speaker",
		Units: map[string]string{
			"raw_speaking_time": "s", "apportioned_speaking_time": "s",
			"avg_turn_duration": "s", "longest_monologue": "s",
			"words_per_minute": "wpm", "dialog_balance_gini": "ratio",
		},
		Apply: applySpeakers,
	},
	{
		ID:          MetricQuality,
		Version:     "1.0.0",
		Category:    CategoryCall,
		Description: "Invalid time, unknown speaker and empty text ratios, metadata delta",
		Units: map[string]string{
			"invalid_time_ratio": "ratio", "unknown_speaker_ratio": "ratio",
			"empty_text_ratio": "ratio", "metadata_timeline_delta": "s", "quality_score": "score",
		},
		Apply: applyQuality,
	},
	{
		ID:          MetricInteraction,
		Version:     "1.0.0",
		Category:    CategoryCall,
		Description: "Gap spread, long pauses, quick cut-ins, dead air, monologues and response delays",
		Units: map[string]string{
			"std_gap": "s", "dead_air_time": "s", "response_delay": "s", "long_pauses_rate": "ratio",
			"interruption_rate": "ratio", "turn_taking_balance": "ratio",
		},
		Apply: applyInteraction,
	},
	{
		ID:          MetricText,
		Version:     "1.0.0",
		Category:    CategoryCall,
		Description: "Vocabulary, sentences, questions, exclamations and filler words",
		Units: map[string]string{
			"unique_words_count": "count", "vocabulary_richness": "ratio",
			"avg_sentence_length": "words", "questions_per_utterance": "ratio",
			"filler_words_rate": "ratio",
		},
		Apply: applyText,
	},
}

// Lookup returns the definition for id.
func Lookup(id ID) (Definition, error) {
	for _, d := range Catalog {
		if d.ID == id {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownMetric, id)
}

// IDs lists every catalog id.
func IDs() []ID {
	out := make([]ID, len(Catalog))
	for i, d := range Catalog {
		out[i] = d.ID
	}
	return out
}

// ParseIDs validates a list of metric ids; empty means all.
func ParseIDs(names []string) ([]ID, error) {
	ids := make([]ID, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, err := Lookup(ID(n)); err != nil {
			return nil, err
		}
		ids = append(ids, ID(n))
	}
	return ids, nil
}

// Compute applies the selected metric groups, all of them when ids is
// empty, in catalog order.
func Compute(in *Input, ids ...ID) (*Report, error) {
	selected := map[ID]bool{}
	for _, id := range ids {
		if _, err := Lookup(id); err != nil {
			return nil, err
		}
		selected[id] = true
	}

	rep := &Report{Call: CallMetrics{CallID: in.CallID}, Speakers: []SpeakerMetrics{}}
	for _, d := range Catalog {
		if len(selected) > 0 && !selected[d.ID] {
			continue
		}
		d.Apply(in, rep)
	}
	return rep, nil
}

func applyTimeline(in *Input, out *Report) {
	r := in.Timeline
	c := &out.Call
	c.TotalDuration = r.T
	c.SpeechTime = r.L
	c.SilenceTime = r.S
	c.OverlapTime = r.O
	c.SilenceRatio = Ratio(r.Ratio(r.S))
	c.SpeechRatio = Ratio(r.Ratio(r.L))
	c.OverlapRatio = Ratio(r.Ratio(r.O))
	c.SpeechToSilence = Ratio(r.SpeechToSilence())
	c.NoValidIntervals = r.Intervals == 0
}

func applyCall(in *Input, out *Report) {
	c := &out.Call
	c.TotalUtterances = len(in.Utterances)
	c.ValidUtterances = len(in.Valid)
	c.InvalidUtterances = c.TotalUtterances - c.ValidUtterances

	durations := make([]float64, len(in.Valid))
	words := make([]float64, len(in.Valid))
	c.TotalWords = 0
	for i, u := range in.Valid {
		durations[i] = u.Duration()
		n := CountWords(u.Text)
		words[i] = float64(n)
		c.TotalWords += n
	}
	c.UtteranceDuration = Summarize(durations)
	c.AvgUttWords = Mean(words)
	c.MedianUttWords = Median(words)

	c.Gaps = SummarizeGaps(timeline.Values(in.Gaps))

	c.TotalTurns = len(in.Turns)
	c.SpeakerSwitches = timeline.Switches(in.Turns)
	if T := in.Timeline.T; T > 0 {
		c.SwitchesPerMin = float64(c.SpeakerSwitches) / (T / 60)
	}

	c.Interruptions = len(in.Interruptions)
	c.InterruptionsBySpeaker = timeline.CountBySpeaker(in.Interruptions)
	c.DialogBalanceGini = Gini(in.Timeline.Apportioned)
}

func applySpeakers(in *Input, out *Report) {
	r := in.Timeline
	if r.Intervals == 0 {
		return
	}
	turns := timeline.TurnStats(in.Turns, r.Apportioned)
	ints := timeline.CountBySpeaker(in.Interruptions)
	gini := Gini(r.Apportioned)
	contrib := GiniContributions(r.Apportioned)

	type wordCount struct{ utts, words int }
	counts := map[timeline.Speaker]wordCount{}
	for _, u := range in.Valid {
		wc := counts[u.Speaker]
		wc.utts++
		wc.words += CountWords(u.Text)
		counts[u.Speaker] = wc
	}

	for _, spk := range orderedSpeakers(r.Raw) {
		a := r.Apportioned[spk]
		ts := turns[spk]
		wc := counts[spk]
		m := SpeakerMetrics{
			CallID:                  in.CallID,
			Speaker:                 spk,
			RawSpeakingTime:         r.Raw[spk],
			ApportionedSpeakingTime: a,
			TurnCount:               ts.Count,
			AvgTurnDuration:         ts.AvgDuration,
			MaxTurnDuration:         ts.LongestTurn,
			LongestMonologue:        ts.LongestTurn,
			AvgUttsPerTurn:          ts.AvgUtterances,
			UtteranceCount:          wc.utts,
			TotalWords:              wc.words,
			InterruptionsBy:         ints[spk],
			DialogBalanceGini:       gini,
			GiniContribution:        contrib[spk],
		}
		if r.L > 0 {
			m.RawProportion = m.RawSpeakingTime / r.L
			m.ApportionedProportion = a / r.L
		}
		if wc.utts > 0 {
			m.AvgWordsPerUtt = float64(wc.words) / float64(wc.utts)
		}
		if a > 0 {
			m.WordsPerMinute = float64(wc.words) / (a / 60)
		}
		out.Speakers = append(out.Speakers, m)
	}
}

func applyQuality(in *Input, out *Report) {
	out.Call.Quality = Quality(in.Utterances, in.Timeline.T, in.MetaDuration)
}

func applyInteraction(in *Input, out *Report) {
	out.Call.Interaction = Interaction(in.Gaps, in.Turns, in.Valid, in.Options)
}

func applyText(in *Input, out *Report) {
	out.Call.Text = Text(in.Valid, in.Options.Fillers)
}

// orderedSpeakers returns the keys of m in the closed-set order, followed
// by any other labels sorted lexically.
func orderedSpeakers(m map[timeline.Speaker]float64) []timeline.Speaker {
	out := make([]timeline.Speaker, 0, len(m))
	known := map[timeline.Speaker]bool{}
	for _, spk := range timeline.Speakers {
		known[spk] = true
		if _, ok := m[spk]; ok {
			out = append(out, spk)
		}
	}
	var extra []timeline.Speaker
	for spk := range m {
		if !known[spk] {
			extra = append(extra, spk)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
