package session

import (
	"context"
	"encoding/json"
	"time"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/game"
	"felini_trivia/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session records in Redis with a TTL so abandoned sessions
// expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func gameKey(sid string) string     { return "sess:game:" + sid }
func questionKey(sid string) string { return "sess:question:" + sid }
func claimKey(sid, token string) string {
	return "sess:answered:" + sid + ":" + token
}

func (s *RedisStore) Game(ctx context.Context, sid string) (*game.State, error) {
	data, err := s.client.Get(ctx, gameKey(sid)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st, err := game.Deserialize(data)
	if err != nil {
		// Fail closed: a record that no longer matches the contract is
		// dropped rather than interpreted.
		logger.Warn("dropping malformed game state", "sid", sid)
		_ = s.client.Del(ctx, gameKey(sid)).Err()
		return nil, nil
	}
	return st, nil
}

func (s *RedisStore) SaveGame(ctx context.Context, sid string, st *game.State) error {
	data, err := st.Serialize()
	if err != nil {
		return err
	}
	return s.client.Set(ctx, gameKey(sid), data, s.ttl).Err()
}

func (s *RedisStore) Question(ctx context.Context, sid string) (*domain.QuestionSession, error) {
	data, err := s.client.Get(ctx, questionKey(sid)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q domain.QuestionSession
	if err := json.Unmarshal(data, &q); err != nil || q.Token == "" {
		logger.Warn("dropping malformed question session", "sid", sid)
		_ = s.client.Del(ctx, questionKey(sid)).Err()
		return nil, nil
	}
	return &q, nil
}

func (s *RedisStore) SaveQuestion(ctx context.Context, sid string, q *domain.QuestionSession) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, questionKey(sid), data, s.ttl).Err()
}

// ClaimAnswer uses SETNX as the compare-and-set: the first submission for a
// token wins the claim, every concurrent retry loses it.
func (s *RedisStore) ClaimAnswer(ctx context.Context, sid, token string) (bool, error) {
	return s.client.SetNX(ctx, claimKey(sid, token), "1", s.ttl).Result()
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	return s.client.Del(ctx, gameKey(sid), questionKey(sid)).Err()
}
