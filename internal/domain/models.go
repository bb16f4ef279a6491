package domain

import "time"

// QuestionType tags how a quiz is answered and graded.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	ShortAnswer    QuestionType = "short_answer"
	Matching       QuestionType = "matching"
)

// MatchPair is one left/right pairing in a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Answer is what a learner submits: Text for multiple-choice and short-answer
// questions, Pairs for matching questions.
type Answer struct {
	Text  string      `json:"text,omitempty"`
	Pairs []MatchPair `json:"pairs,omitempty"`
}

// IsEmpty reports whether the learner provided nothing gradeable.
func (a Answer) IsEmpty() bool {
	return a.Text == "" && len(a.Pairs) == 0
}

// AnswerKey is the graded-against key, tagged with the question type so the
// grader never has to infer it from the submitted shape.
type AnswerKey struct {
	Type  QuestionType `json:"type"`
	Text  string       `json:"text,omitempty"`
	Pairs []MatchPair  `json:"pairs,omitempty"`
}

// IsZero reports whether the key carries no gradeable content.
func (k AnswerKey) IsZero() bool {
	return k.Type == "" && k.Text == "" && len(k.Pairs) == 0
}

// Quiz is the read-only content the engine grades against.
type Quiz struct {
	ID      string    `json:"id"`
	Prompt  string    `json:"prompt"`
	Options []string  `json:"options,omitempty"` // multiple choice only
	Key     AnswerKey `json:"key"`
}

// Submission records one accepted evaluation for a (user, quiz) pair.
// Immutable once created except for Feedback, which is written by a reviewer
// through the transport layer, never by the evaluator.
type Submission struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	Answer      Answer    `json:"answer"`
	Correct     bool      `json:"correct"`
	Attempt     int       `json:"attempt"`
	SubmittedAt time.Time `json:"submittedAt"`
	Feedback    string    `json:"feedback,omitempty"`
}

// SubmissionSummary is what the caller gets back from an accepted evaluation.
type SubmissionSummary struct {
	Message        string `json:"message"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalQuestions int    `json:"totalQuestions"`
	Score          int    `json:"score"`
	Correct        bool   `json:"correct"`
	Attempt        int    `json:"attempt"`
}

// SubmissionPage is one page of a user's submission history.
type SubmissionPage struct {
	Submissions []Submission `json:"submissions"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
}

// ProgressUpdate is pushed to live subscribers after each accepted evaluation.
type ProgressUpdate struct {
	UserID  string    `json:"userId"`
	QuizID  string    `json:"quizId"`
	Correct bool      `json:"correct"`
	Attempt int       `json:"attempt"`
	Score   int       `json:"score"`
	At      time.Time `json:"at"`
}
