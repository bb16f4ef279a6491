package app

import "lingua-quiz-service/internal/domain"

// Grade compares a submitted answer against the key and returns how many
// correctness units matched plus the total number of units. Dispatch is on the
// key's declared question type, never on the submitted shape.
//
// Matching is all-or-nothing: a learner must re-match every pair to earn
// credit, so a partial match grades as zero. Multiple-choice and short-answer
// questions are a single unit compared after normalization.
func Grade(key domain.AnswerKey, answer domain.Answer) (correct, total int) {
	switch key.Type {
	case domain.Matching:
		total = len(key.Pairs)
		count := 0
		for i, want := range key.Pairs {
			var got domain.MatchPair
			if i < len(answer.Pairs) {
				got = answer.Pairs[i]
			}
			if domain.Normalize(want.Left) == domain.Normalize(got.Left) &&
				domain.Normalize(want.Right) == domain.Normalize(got.Right) {
				count++
			}
		}
		if count == total {
			return total, total
		}
		return 0, total
	default:
		// multiple choice and short answer grade the same way
		if domain.Normalize(key.Text) == domain.Normalize(answer.Text) {
			return 1, 1
		}
		return 0, 1
	}
}
