package timeline

import "testing"

func TestSegment_TurnsAndSwitches(t *testing.T) {
	utts := []Utterance{
		utt(Agent, 0, 2),
		utt(Agent, 10, 12),
		utt(Customer, 13, 15),
		utt(Agent, 16, 20),
	}
	turns := Segment(utts)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if Switches(turns) != 2 {
		t.Errorf("expected 2 switches, got %d", Switches(turns))
	}
	first := turns[0]
	if first.Speaker != Agent || first.Start != 0 || first.End != 12 || first.Duration != 12 || first.Utterances != 2 {
		t.Errorf("unexpected first turn: %+v", first)
	}
}

func TestSegment_OrdersByStartAndSkipsInvalid(t *testing.T) {
	utts := []Utterance{
		utt(Customer, 5, 6),
		{Speaker: Customer, InvalidReason: ReasonParseError},
		utt(Agent, 0, 9),
		utt(Agent, 7, 8),
	}
	turns := Segment(utts)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d: %+v", len(turns), turns)
	}
	want := []Speaker{Agent, Customer, Agent}
	for i, spk := range want {
		if turns[i].Speaker != spk {
			t.Errorf("turn %d: expected %s, got %s", i, spk, turns[i].Speaker)
		}
	}
}

func TestSegment_Empty(t *testing.T) {
	turns := Segment(nil)
	if len(turns) != 0 || Switches(turns) != 0 {
		t.Errorf("expected no turns and no switches, got %d/%d", len(turns), Switches(turns))
	}
}

func TestTurnStats_UsesApportionedTime(t *testing.T) {
	utts := []Utterance{
		utt(Agent, 0, 7),
		utt(Customer, 5, 10),
		utt(Agent, 12, 14),
	}
	res := Sweep(utts)
	stats := TurnStats(Segment(utts), res.Apportioned)

	a := stats[Agent]
	if a.Count != 2 {
		t.Fatalf("expected 2 agent turns, got %d", a.Count)
	}
	if !approx(a.AvgDuration, (6+2)/2.0) {
		t.Errorf("expected avg turn 4, got %g", a.AvgDuration)
	}
	if a.LongestTurn != 7 {
		t.Errorf("expected longest monologue 7, got %g", a.LongestTurn)
	}
	if a.AvgUtterances != 1 {
		t.Errorf("expected 1 utterance per turn, got %g", a.AvgUtterances)
	}
	c := stats[Customer]
	if c.Count != 1 || !approx(c.AvgDuration, 4) {
		t.Errorf("expected customer 1 turn avg 4, got %+v", c)
	}
}

func TestDetectInterruptions(t *testing.T) {
	utts := []Utterance{
		utt(Agent, 0, 5),
		utt(Customer, 4, 8),
		utt(Customer, 6, 9),
		utt(Agent, 9, 10),
	}
	ints := DetectInterruptions(utts)
	if len(ints) != 1 {
		t.Fatalf("expected 1 interruption, got %d: %v", len(ints), ints)
	}
	if ints[0].Speaker != Customer || ints[0].Interrupted != Agent || ints[0].At != 4 {
		t.Errorf("unexpected interruption: %+v", ints[0])
	}
	if got := CountBySpeaker(ints); got[Customer] != 1 || got[Agent] != 0 {
		t.Errorf("unexpected counts: %v", got)
	}
	if ints[0].String() != "CUSTOMER interrupts AGENT at 00:00:04.000" {
		t.Errorf("unexpected string: %s", ints[0])
	}
}

func TestDetectInterruptions_AdjacentOnly(t *testing.T) {
	// OTHER overlaps AGENT but its predecessor by start order is CUSTOMER,
	// which it does not overlap.
	utts := []Utterance{
		utt(Agent, 0, 10),
		utt(Customer, 1, 2),
		utt(Other, 3, 4),
	}
	ints := DetectInterruptions(utts)
	if len(ints) != 1 || ints[0].Speaker != Customer {
		t.Errorf("expected only the CUSTOMER interruption, got %v", ints)
	}
}

func TestGaps_NegativeForOverlap(t *testing.T) {
	utts := []Utterance{
		utt(Agent, 0, 5),
		utt(Customer, 4, 8),
		utt(Agent, 10, 11),
	}
	gaps := Gaps(utts)
	if len(gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(gaps))
	}
	vals := Values(gaps)
	if vals[0] != -1 || vals[1] != 2 {
		t.Errorf("expected gaps [-1 2], got %v", vals)
	}
	if gaps[0].PrevSpeaker != Agent || gaps[0].NextSpeaker != Customer {
		t.Errorf("unexpected speakers on first gap: %+v", gaps[0])
	}
	if Gaps(utts[:1]) != nil {
		t.Error("expected no gaps for a single utterance")
	}
}
