package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Speaker is the normalized speaker category of an utterance.
type Speaker string

const (
	Agent    Speaker = "AGENT"
	Customer Speaker = "CUSTOMER"
	Other    Speaker = "OTHER"
	Unknown  Speaker = "UNKNOWN"
)

// Speakers lists the closed speaker set in reporting order.
var Speakers = []Speaker{Agent, Customer, Other, Unknown}

// InvalidReason says why an utterance's timing was rejected.
type InvalidReason string

const (
	ReasonNone                InvalidReason = "none"
	ReasonMissingTimestamp    InvalidReason = "missing_timestamp"
	ReasonNonpositiveDuration InvalidReason = "nonpositive_duration"
	ReasonParseError          InvalidReason = "parse_error"
)

// Utterance is a normalized, flagged utterance of one call.
// Start/End are seconds over the half-open interval [Start, End).
type Utterance struct {
	CallID         string        `json:"call_id" yaml:"call_id"`
	Index          int           `json:"index" yaml:"index"`
	Speaker        Speaker       `json:"speaker" yaml:"speaker"`
	Start          float64       `json:"start_sec" yaml:"start_sec"`
	End            float64       `json:"end_sec" yaml:"end_sec"`
	Text           string        `json:"text" yaml:"text"`
	ValidTime      bool          `json:"valid_time" yaml:"valid_time"`
	InvalidReason  InvalidReason `json:"invalid_reason" yaml:"invalid_reason"`
	UnknownSpeaker bool          `json:"unknown_speaker" yaml:"unknown_speaker"`
}

// Duration returns End-Start for valid utterances and 0 otherwise.
func (u Utterance) Duration() float64 {
	if !u.ValidTime {
		return 0
	}
	return u.End - u.Start
}

// RawUtterance is an utterance as delivered by the ingestion collaborator.
type RawUtterance struct {
	CallID  string  `json:"call_id,omitempty" yaml:"call_id,omitempty"`
	Speaker *string `json:"speaker" yaml:"speaker"`
	Start   RawTime `json:"start_sec" yaml:"start_sec"`
	End     RawTime `json:"end_sec" yaml:"end_sec"`
	Text    string  `json:"text" yaml:"text"`
}

// RawTime is a timestamp field that may be absent, numeric, or a timecode
// string. It is parsed by Normalize, not at decode time.
type RawTime struct {
	Value string
	Set   bool
}

// Seconds builds a RawTime from a numeric value.
func Seconds(v float64) RawTime {
	return RawTime{Value: strconv.FormatFloat(v, 'f', -1, 64), Set: true}
}

// Timecode builds a RawTime from a textual value.
func Timecode(s string) RawTime { return RawTime{Value: s, Set: true} }

func (t RawTime) String() string {
	if !t.Set {
		return "<missing>"
	}
	return t.Value
}

// UnmarshalJSON accepts a number, a string, or null.
func (t *RawTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = RawTime{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = RawTime{Value: s, Set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		// booleans, objects and arrays are kept verbatim and flagged later
		*t = RawTime{Value: string(b), Set: true}
		return nil
	}
	*t = RawTime{Value: n.String(), Set: true}
	return nil
}

// MarshalJSON writes the raw value back, null when absent.
func (t RawTime) MarshalJSON() ([]byte, error) {
	if !t.Set {
		return []byte("null"), nil
	}
	if v, err := strconv.ParseFloat(t.Value, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) && json.Valid([]byte(t.Value)) {
		return []byte(t.Value), nil
	}
	return json.Marshal(t.Value)
}

// UnmarshalYAML accepts any scalar; null leaves the field unset.
func (t *RawTime) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = RawTime{}
	case string:
		*t = RawTime{Value: x, Set: true}
	case int:
		*t = RawTime{Value: strconv.Itoa(x), Set: true}
	case float64:
		*t = Seconds(x)
	default:
		*t = RawTime{Value: strings.TrimSpace(fmt.Sprint(x)), Set: true}
	}
	return nil
}
