package metrics

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/maastricht-university/calltimeline/timeline"
)

func strp(s string) *string { return &s }

func rawUtt(spk string, start, end float64, text string) timeline.RawUtterance {
	return timeline.RawUtterance{Speaker: strp(spk), Start: timeline.Seconds(start), End: timeline.Seconds(end), Text: text}
}

func TestCompute_ApportionmentCall(t *testing.T) {
	raw := []timeline.RawUtterance{
		rawUtt("AGENT", 0, 7, "good morning how can I help"),
		rawUtt("CUSTOMER", 5, 10, "my invoice is wrong"),
	}
	in, err := NewInput("call-1", raw, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rep, err := Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := rep.Call
	if c.CallID != "call-1" {
		t.Errorf("expected call-1, got %s", c.CallID)
	}
	if !approx(c.TotalDuration, 10) || !approx(c.SpeechTime, 10) || !approx(c.OverlapTime, 2) || c.SilenceTime != 0 {
		t.Errorf("unexpected timeline: %+v", c)
	}
	if !math.IsInf(float64(c.SpeechToSilence), 1) {
		t.Errorf("expected +Inf speech_to_silence, got %g", c.SpeechToSilence)
	}
	if c.Interruptions != 1 || c.InterruptionsBySpeaker[timeline.Customer] != 1 {
		t.Errorf("expected one customer interruption, got %d %v", c.Interruptions, c.InterruptionsBySpeaker)
	}
	if c.Gaps.Negative != 1 {
		t.Errorf("expected one negative gap, got %d", c.Gaps.Negative)
	}
	if c.TotalTurns != 2 || c.SpeakerSwitches != 1 {
		t.Errorf("expected 2 turns 1 switch, got %d/%d", c.TotalTurns, c.SpeakerSwitches)
	}
	if !approx(c.SwitchesPerMin, 6) {
		t.Errorf("expected 6 switches per minute, got %g", c.SwitchesPerMin)
	}
	if c.TotalWords != 10 {
		t.Errorf("expected 10 words, got %d", c.TotalWords)
	}
	if !approx(c.DialogBalanceGini, 0.1) {
		t.Errorf("expected gini 0.1, got %g", c.DialogBalanceGini)
	}
	if !approx(c.Quality.Score, 1) {
		t.Errorf("expected quality 1, got %g", c.Quality.Score)
	}

	if len(rep.Speakers) != 2 {
		t.Fatalf("expected 2 speaker records, got %d", len(rep.Speakers))
	}
	agent := rep.Speakers[0]
	if agent.Speaker != timeline.Agent {
		t.Fatalf("expected AGENT first, got %s", agent.Speaker)
	}
	if !approx(agent.ApportionedSpeakingTime, 6) || !approx(agent.RawSpeakingTime, 7) {
		t.Errorf("expected A=6 R=7, got A=%g R=%g", agent.ApportionedSpeakingTime, agent.RawSpeakingTime)
	}
	if !approx(agent.ApportionedProportion, 0.6) || !approx(agent.RawProportion, 0.7) {
		t.Errorf("unexpected proportions: %g %g", agent.ApportionedProportion, agent.RawProportion)
	}
	if !approx(agent.WordsPerMinute, 60) {
		t.Errorf("expected 60 wpm, got %g", agent.WordsPerMinute)
	}
	cust := rep.Speakers[1]
	if cust.InterruptionsBy != 1 || !approx(cust.AvgTurnDuration, 4) {
		t.Errorf("unexpected customer record: %+v", cust)
	}
	if agent.LongestMonologue != agent.MaxTurnDuration || !approx(agent.MaxTurnDuration, 7) {
		t.Errorf("expected longest monologue to mirror max turn 7, got %g/%g", agent.LongestMonologue, agent.MaxTurnDuration)
	}
	if c.Text.TotalWords != 10 || c.Text.SentenceCount != 1 {
		t.Errorf("expected text metrics to be applied, got %+v", c.Text)
	}
	if !approx(agent.GiniContribution+cust.GiniContribution, c.DialogBalanceGini) {
		t.Errorf("expected contributions to sum to gini")
	}
}

func TestCompute_NoValidIntervals(t *testing.T) {
	raw := []timeline.RawUtterance{
		{Speaker: strp("AGENT"), Start: timeline.Timecode("bad"), End: timeline.Seconds(3), Text: "x"},
	}
	in, err := NewInput("call-2", raw, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rep, err := Compute(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := rep.Call
	if !c.NoValidIntervals {
		t.Error("expected NoValidIntervals flag")
	}
	if c.TotalDuration != 0 || c.SpeechTime != 0 || c.OverlapTime != 0 || c.SilenceTime != 0 {
		t.Errorf("expected zero timeline, got %+v", c)
	}
	if math.IsNaN(float64(c.SpeechRatio)) || math.IsNaN(c.SwitchesPerMin) || math.IsNaN(c.UtteranceDuration.Mean) {
		t.Error("expected no NaN values")
	}
	if c.InvalidUtterances != 1 || c.Quality.InvalidTimeRatio != 1 {
		t.Errorf("expected the invalid utterance to be counted, got %d / %g", c.InvalidUtterances, c.Quality.InvalidTimeRatio)
	}
	if len(rep.Speakers) != 0 {
		t.Errorf("expected no speaker records, got %d", len(rep.Speakers))
	}
}

func TestCompute_Selection(t *testing.T) {
	in := Analyze("c", nil, nil, DefaultOptions())
	rep, err := Compute(in, MetricQuality)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Call.Quality.InvalidReasons == nil {
		t.Error("expected quality to be applied")
	}
	if rep.Call.InterruptionsBySpeaker != nil {
		t.Error("expected call metrics to be skipped")
	}

	_, err = Compute(in, ID("sentiment"))
	if !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestNewInput_UnusableRecords(t *testing.T) {
	_, err := NewInput("c", []timeline.RawUtterance{{Start: timeline.Seconds(0), End: timeline.Seconds(1)}}, nil, DefaultOptions())
	if !errors.Is(err, timeline.ErrUnusableRecords) {
		t.Errorf("expected ErrUnusableRecords, got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]string{" Call ", "", "quality"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != MetricCall || ids[1] != MetricQuality {
		t.Errorf("unexpected ids: %v", ids)
	}
	if _, err := ParseIDs([]string{"nope"}); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
	if len(IDs()) != len(Catalog) {
		t.Errorf("expected %d ids, got %d", len(Catalog), len(IDs()))
	}
}

func TestRatio_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Ratio `json:"a"`
		B Ratio `json:"b"`
	}{Ratio(math.Inf(1)), 0.25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(b), `"a":"+Inf"`) || !strings.Contains(string(b), `"b":0.25`) {
		t.Errorf("unexpected encoding: %s", b)
	}

	var r Ratio
	if err := json.Unmarshal([]byte(`"+Inf"`), &r); err != nil || !math.IsInf(float64(r), 1) {
		t.Errorf("expected +Inf, got %g (%v)", r, err)
	}
	if err := json.Unmarshal([]byte(`1.5`), &r); err != nil || r != 1.5 {
		t.Errorf("expected 1.5, got %g (%v)", r, err)
	}
}

func TestInteraction(t *testing.T) {
	raw := []timeline.RawUtterance{
		rawUtt("AGENT", 0, 1, "a"),
		rawUtt("AGENT", 1.5, 2, "b"),
		rawUtt("AGENT", 2.5, 3, "c"),
		rawUtt("CUSTOMER", 7, 8, "d"),
		rawUtt("AGENT", 12, 13, "e"),
	}
	in, err := NewInput("c", raw, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := Interaction(in.Gaps, in.Turns, in.Valid, in.Options)
	if m.LongPauses != 2 {
		t.Errorf("expected 2 long pauses, got %d", m.LongPauses)
	}
	if !approx(m.LongPauseRate, 0.5) {
		t.Errorf("expected long pause rate 0.5, got %g", m.LongPauseRate)
	}
	if !approx(m.DeadAirTime, 0) {
		t.Errorf("expected no dead air above 5s, got %g", m.DeadAirTime)
	}
	if m.MonologueSegments != 1 {
		t.Errorf("expected 1 monologue, got %d", m.MonologueSegments)
	}
	if !approx(m.ResponseDelay[timeline.Customer].Mean, 4) || !approx(m.ResponseDelay[timeline.Agent].Mean, 4) {
		t.Errorf("unexpected response delays: %+v", m.ResponseDelay)
	}
	if !approx(m.TurnTakingBalance, 0.25) {
		t.Errorf("expected balance 0.25, got %g", m.TurnTakingBalance)
	}
	if m.AgentTurns != 4 || m.CustomerTurns != 1 {
		t.Errorf("expected 4/1 turns, got %d/%d", m.AgentTurns, m.CustomerTurns)
	}
	if !approx(m.GapStd, 1.75) {
		t.Errorf("expected gap std 1.75, got %g", m.GapStd)
	}
	if m.ShortGaps != 0 || m.ShortGapRate != 0 {
		t.Errorf("expected no short gaps at exactly 0.5s, got %d", m.ShortGaps)
	}
}

func TestInteraction_DeadAirAndShortGaps(t *testing.T) {
	raw := []timeline.RawUtterance{
		rawUtt("AGENT", 0, 2, "a"),
		rawUtt("CUSTOMER", 1.8, 3, "b"),
		rawUtt("AGENT", 3.2, 4, "c"),
		rawUtt("CUSTOMER", 10, 11, "d"),
		rawUtt("AGENT", 18.5, 19, "e"),
	}
	in, err := NewInput("c", raw, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := Interaction(in.Gaps, in.Turns, in.Valid, in.Options)
	if !approx(m.DeadAirTime, 13.5) {
		t.Errorf("expected 13.5s dead air, got %g", m.DeadAirTime)
	}
	if m.LongPauses != 2 {
		t.Errorf("expected 2 long pauses, got %d", m.LongPauses)
	}
	if m.ShortGaps != 2 || !approx(m.ShortGapRate, 0.5) {
		t.Errorf("expected 2 short gaps at rate 0.5, got %d (%g)", m.ShortGaps, m.ShortGapRate)
	}

	opts := DefaultOptions()
	opts.DeadAirSec = 7
	if got := Interaction(in.Gaps, in.Turns, in.Valid, opts).DeadAirTime; !approx(got, 7.5) {
		t.Errorf("expected only the 7.5s gap above a 7s threshold, got %g", got)
	}
}
