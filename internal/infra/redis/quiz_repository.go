package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"lingua-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches each quiz's answer key in Redis (hash per quiz) and
// falls back to a loader on cache miss.
// Keys are stored as: HSET quiz:{quizID}:key type {questionType} text {answer} pairs {json}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := r.cacheKey(quizID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return buildQuizFromCache(quizID, fields)
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			quiz, err := buildQuizFromCache(quizID, fields)
			if err != nil {
				return domain.Quiz{}, err
			}
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		values := map[string]interface{}{
			"type": string(quiz.Key.Type),
			"text": quiz.Key.Text,
		}
		if len(quiz.Key.Pairs) > 0 {
			pairs, err := json.Marshal(quiz.Key.Pairs)
			if err != nil {
				return domain.Quiz{}, err
			}
			values["pairs"] = string(pairs)
		}

		pipe := r.client.Pipeline()
		pipe.HSet(ctx, key, values)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) cacheKey(quizID string) string {
	return "quiz:" + quizID + ":key"
}

// buildQuizFromCache rebuilds a lightweight quiz from the cached hash.
// Prompt and options are not cached; grading only needs the key.
func buildQuizFromCache(quizID string, fields map[string]string) (domain.Quiz, error) {
	key := domain.AnswerKey{
		Type: domain.QuestionType(fields["type"]),
		Text: fields["text"],
	}
	if raw, ok := fields["pairs"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &key.Pairs); err != nil {
			return domain.Quiz{}, err
		}
	}
	return domain.Quiz{ID: quizID, Key: key}, nil
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
