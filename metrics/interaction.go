package metrics

import "github.com/maastricht-university/calltimeline/timeline"

// InteractionMetrics describes conversation flow beyond turn counts.
type InteractionMetrics struct {
	GapStd            float64                      `json:"std_gap" yaml:"std_gap"`
	LongPauses        int                          `json:"long_pauses_count" yaml:"long_pauses_count"`
	LongPauseRate     float64                      `json:"long_pauses_rate" yaml:"long_pauses_rate"`
	ShortGaps         int                          `json:"interruptions_count" yaml:"interruptions_count"`
	ShortGapRate      float64                      `json:"interruption_rate" yaml:"interruption_rate"`
	DeadAirTime       float64                      `json:"dead_air_time" yaml:"dead_air_time"`
	MonologueSegments int                          `json:"monologue_segments" yaml:"monologue_segments"`
	ResponseDelay     map[timeline.Speaker]Summary `json:"response_delay" yaml:"response_delay"`
	AgentTurns        int                          `json:"agent_turns" yaml:"agent_turns"`
	CustomerTurns     int                          `json:"customer_turns" yaml:"customer_turns"`
	TurnTakingBalance float64                      `json:"turn_taking_balance" yaml:"turn_taking_balance"`
}

// Interaction computes pause, dead air, monologue and response delay
// statistics from the start-ordered gaps and turns of a call.
//
// A response delay is the gap preceding an utterance that switches the
// speaker, credited to the responding speaker. ShortGaps counts gaps below
// InterruptionGapSec, overlaps included; unlike the adjacent-overlap
// interruptions of the call record it also catches quick cut-ins.
// Agent/customer turns are utterance counts, and turn-taking balance is
// the ratio of the smaller to the larger of the two.
func Interaction(gaps []timeline.Gap, turns []timeline.Turn, valid []timeline.Utterance, opts Options) InteractionMetrics {
	m := InteractionMetrics{ResponseDelay: map[timeline.Speaker]Summary{}}

	delays := map[timeline.Speaker][]float64{}
	for _, g := range gaps {
		if g.Seconds > opts.LongPauseSec {
			m.LongPauses++
		}
		if g.Seconds < opts.InterruptionGapSec {
			m.ShortGaps++
		}
		if g.Seconds > opts.DeadAirSec {
			m.DeadAirTime += g.Seconds
		}
		if g.PrevSpeaker != g.NextSpeaker {
			delays[g.NextSpeaker] = append(delays[g.NextSpeaker], g.Seconds)
		}
	}
	if len(gaps) > 0 {
		m.LongPauseRate = float64(m.LongPauses) / float64(len(gaps))
		m.ShortGapRate = float64(m.ShortGaps) / float64(len(gaps))
	}
	m.GapStd = StdDev(timeline.Values(gaps))
	for spk, d := range delays {
		m.ResponseDelay[spk] = Summarize(d)
	}

	for _, t := range turns {
		if opts.MonologueMinUtterances > 0 && t.Utterances >= opts.MonologueMinUtterances {
			m.MonologueSegments++
		}
	}

	var agent, customer int
	for _, u := range valid {
		switch u.Speaker {
		case timeline.Agent:
			agent++
		case timeline.Customer:
			customer++
		}
	}
	m.AgentTurns, m.CustomerTurns = agent, customer
	if hi := max(agent, customer); hi > 0 {
		m.TurnTakingBalance = float64(min(agent, customer)) / float64(hi)
	}
	return m
}
