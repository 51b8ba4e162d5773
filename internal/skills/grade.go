package skills

import (
	"math"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

// Grade counts exact answer matches for questions that carry a correct
// answer and returns the rounded percentage over all questions.
func Grade(questions []database.Question, answers map[int]string) (correctCount, score int) {
	if len(questions) == 0 {
		return 0, 0
	}
	for i, q := range questions {
		if q.CorrectAnswer == "" {
			continue
		}
		if answer, ok := answers[i]; ok && answer == q.CorrectAnswer {
			correctCount++
		}
	}
	score = int(math.Round(100 * float64(correctCount) / float64(len(questions))))
	return correctCount, score
}
