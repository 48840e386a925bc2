package question

import (
	"regexp"
	"strings"

	"felini_trivia/internal/domain"
)

// Raw items follow a fixed textual layout:
//
//	Question: <text>
//	Options:
//	A: <option>
//	...
//	Answer: <letter>
//	Explanation: <text>
var (
	reQuestion    = regexp.MustCompile(`(?s)Question:\s*(.+?)\s*Options:`)
	reOption      = regexp.MustCompile(`(?m)^[A-E]:\s*(.+)\s*$`)
	reAnswer      = regexp.MustCompile(`Answer:\s*([A-Ea-e])\b`)
	reExplanation = regexp.MustCompile(`(?s)Explanation:\s*(.+)`)
)

// Parse extracts a question from raw text. Parsing is tolerant: any field
// that cannot be extracted falls back to its documented placeholder so the
// pipeline never fails on malformed content. A missing answer letter becomes
// domain.NoAnswer, which scoring treats as always incorrect rather than
// inventing a correct option.
func Parse(raw string) domain.Question {
	q := domain.Question{
		Text:        domain.NoQuestionText,
		Options:     []string{domain.NoOptionsText},
		Answer:      domain.NoAnswer,
		Explanation: domain.NoExplanation,
	}

	if m := reQuestion.FindStringSubmatch(raw); m != nil {
		q.Text = strings.TrimSpace(m[1])
	}
	if matches := reOption.FindAllStringSubmatch(raw, -1); len(matches) > 0 {
		opts := make([]string, 0, len(matches))
		for _, m := range matches {
			opts = append(opts, strings.TrimSpace(m[1]))
		}
		q.Options = opts
	}
	if m := reAnswer.FindStringSubmatch(raw); m != nil {
		q.Answer = strings.ToUpper(m[1])
	}
	if m := reExplanation.FindStringSubmatch(raw); m != nil {
		q.Explanation = strings.TrimSpace(m[1])
	}
	return q
}
