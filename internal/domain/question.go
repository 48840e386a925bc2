package domain

import "time"

// Difficulty is one of the four fixed game difficulty levels.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
)

// DifficultyScale is the ordered difficulty ladder; game state indexes into it.
var DifficultyScale = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyVeryHard,
}

// Placeholder values used when parsing raw question text fails. NoAnswer is
// special: a question carrying it is never scored as correct.
const (
	NoQuestionText = "No question found."
	NoOptionsText  = "No options available."
	NoAnswer       = "No answer provided."
	NoExplanation  = "No explanation available."
)

// Question is a parsed trivia item ready to be issued to a player.
type Question struct {
	Text        string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// QuestionSession is the ephemeral record of one issued question. At most one
// lives per player session between fetch and answer. Once Answered is set the
// record is read-only; repeat submissions replay the frozen verdict.
type QuestionSession struct {
	Token       string     `json:"token"`
	Question    string     `json:"question"`
	Options     []string   `json:"options"`
	Answer      string     `json:"answer"`
	Explanation string     `json:"explanation"`
	Difficulty  Difficulty `json:"difficulty"`
	IssuedAt    time.Time  `json:"issued_at"`
	Answered    bool       `json:"answered"`
	IsCorrect   bool       `json:"is_correct"`
	Reward      int64      `json:"reward"`
}
