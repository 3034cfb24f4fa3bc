package metrics

import (
	"regexp"
	"strings"

	"github.com/maastricht-university/calltimeline/timeline"
)

var (
	wordRe     = regexp.MustCompile(`[\p{L}\p{N}\p{Mn}_]+`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
)

// DefaultFillers is the filler vocabulary used when none is configured.
var DefaultFillers = []string{
	"ehm", "em", "hm", "hmm", "aha", "ano", "eh", "uh", "um",
	"jako", "jakoby", "vlastně", "víš", "víte", "teda", "prostě",
	"tak", "takže", "no", "jo", "ježiš", "kruci",
}

// CountWords counts Unicode word runs in text.
func CountWords(text string) int {
	if text == "" {
		return 0
	}
	return len(wordRe.FindAllStringIndex(text, -1))
}

// Words returns the lower-cased word runs of text.
func Words(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// IsEmptyText reports whether text is empty or whitespace only.
func IsEmptyText(text string) bool { return strings.TrimSpace(text) == "" }

// SpeakerText is the text breakdown of one speaker.
type SpeakerText struct {
	Words        int     `json:"words" yaml:"words"`
	UniqueWords  int     `json:"unique_words" yaml:"unique_words"`
	Questions    int     `json:"question_count" yaml:"question_count"`
	Exclamations int     `json:"exclamation_count" yaml:"exclamation_count"`
	Fillers      int     `json:"filler_words" yaml:"filler_words"`
	FillerRate   float64 `json:"filler_rate" yaml:"filler_rate"`
}

// TextMetrics holds vocabulary, sentence, punctuation and filler counts
// over the valid, non-empty utterances of a call.
type TextMetrics struct {
	TotalWords            int                              `json:"total_words" yaml:"total_words"`
	UniqueWords           int                              `json:"unique_words_count" yaml:"unique_words_count"`
	VocabularyRichness    float64                          `json:"vocabulary_richness" yaml:"vocabulary_richness"`
	SentenceCount         int                              `json:"sentence_count" yaml:"sentence_count"`
	AvgSentenceLength     float64                          `json:"avg_sentence_length" yaml:"avg_sentence_length"`
	QuestionCount         int                              `json:"question_count" yaml:"question_count"`
	ExclamationCount      int                              `json:"exclamation_count" yaml:"exclamation_count"`
	QuestionsPerUtterance float64                          `json:"questions_per_utterance" yaml:"questions_per_utterance"`
	FillerWords           int                              `json:"filler_words_total" yaml:"filler_words_total"`
	FillerRate            float64                          `json:"filler_words_rate" yaml:"filler_words_rate"`
	BySpeaker             map[timeline.Speaker]SpeakerText `json:"by_speaker" yaml:"by_speaker"`
}

// Text computes TextMetrics. Utterance texts are joined with a space before
// sentences are split, so an utterance without closing punctuation runs
// into the next one. Filler matching is case-insensitive on whole words.
func Text(valid []timeline.Utterance, fillers []string) TextMetrics {
	m := TextMetrics{BySpeaker: map[timeline.Speaker]SpeakerText{}}

	fillerSet := make(map[string]bool, len(fillers))
	for _, f := range fillers {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			fillerSet[f] = true
		}
	}

	var all []string
	perSpeaker := map[timeline.Speaker][]string{}
	for _, u := range valid {
		if !u.ValidTime || IsEmptyText(u.Text) {
			continue
		}
		all = append(all, u.Text)
		perSpeaker[u.Speaker] = append(perSpeaker[u.Speaker], u.Text)
	}
	if len(all) == 0 {
		return m
	}

	joined := strings.Join(all, " ")
	words := Words(joined)
	m.TotalWords = len(words)
	m.UniqueWords = countUnique(words)
	if m.TotalWords > 0 {
		m.VocabularyRichness = float64(m.UniqueWords) / float64(m.TotalWords)
	}

	var lengths []float64
	for _, s := range sentenceRe.Split(joined, -1) {
		if IsEmptyText(s) {
			continue
		}
		lengths = append(lengths, float64(CountWords(s)))
	}
	m.SentenceCount = len(lengths)
	m.AvgSentenceLength = Mean(lengths)

	m.QuestionCount = strings.Count(joined, "?")
	m.ExclamationCount = strings.Count(joined, "!")
	m.QuestionsPerUtterance = float64(m.QuestionCount) / float64(len(all))

	m.FillerWords = countFillers(words, fillerSet)
	if m.TotalWords > 0 {
		m.FillerRate = float64(m.FillerWords) / float64(m.TotalWords)
	}

	for spk, texts := range perSpeaker {
		text := strings.Join(texts, " ")
		w := Words(text)
		st := SpeakerText{
			Words:        len(w),
			UniqueWords:  countUnique(w),
			Questions:    strings.Count(text, "?"),
			Exclamations: strings.Count(text, "!"),
			Fillers:      countFillers(w, fillerSet),
		}
		if st.Words > 0 {
			st.FillerRate = float64(st.Fillers) / float64(st.Words)
		}
		m.BySpeaker[spk] = st
	}
	return m
}

func countUnique(words []string) int {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return len(seen)
}

func countFillers(words []string, fillers map[string]bool) int {
	n := 0
	for _, w := range words {
		if fillers[w] {
			n++
		}
	}
	return n
}
