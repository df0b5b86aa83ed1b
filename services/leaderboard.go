package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LeaderboardStore keeps per-quiz high scores in Redis sorted sets so the
// leaderboard endpoint does not have to aggregate attempts on every hit.
// Scores survive for the configured TTL and then age out.
type LeaderboardStore struct {
	redis *redis.Client
	ttl   time.Duration
	size  int
}

type LeaderboardEntry struct {
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	AttemptID  string `json:"attempt_id"`
}

func NewLeaderboardStore(client *redis.Client, ttl time.Duration, size int) *LeaderboardStore {
	return &LeaderboardStore{redis: client, ttl: ttl, size: size}
}

// Record stores a scored attempt. Attempt IDs are the sorted-set members
// and player names live in a hash next to it, so two players with the
// same name never clobber each other.
func (s *LeaderboardStore) Record(quizID uint, attemptID string, playerName string, score int) error {
	ctx := context.Background()

	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, s.scoreKey(quizID), redis.Z{
		Score:  float64(score),
		Member: attemptID,
	})
	pipe.HSet(ctx, s.nameKey(quizID), attemptID, playerName)
	pipe.Expire(ctx, s.scoreKey(quizID), s.ttl)
	pipe.Expire(ctx, s.nameKey(quizID), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Top returns the best attempts for a quiz, highest score first. An
// empty slice means Redis has nothing for this quiz; the caller decides
// whether to fall back to the database.
func (s *LeaderboardStore) Top(quizID uint) ([]LeaderboardEntry, error) {
	ctx := context.Background()

	members, err := s.redis.ZRevRangeWithScores(ctx, s.scoreKey(quizID), 0, int64(s.size-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	attemptIDs := make([]string, 0, len(members))
	for _, member := range members {
		attemptIDs = append(attemptIDs, fmt.Sprint(member.Member))
	}

	names, err := s.redis.HMGet(ctx, s.nameKey(quizID), attemptIDs...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for i, member := range members {
		name := "Unknown Player"
		if i < len(names) {
			if value, ok := names[i].(string); ok && value != "" {
				name = value
			}
		}
		entries = append(entries, LeaderboardEntry{
			PlayerName: name,
			Score:      int(member.Score),
			AttemptID:  attemptIDs[i],
		})
	}
	return entries, nil
}

// Clear drops the leaderboard for a quiz, for example after the quiz is
// deleted.
func (s *LeaderboardStore) Clear(quizID uint) error {
	ctx := context.Background()
	return s.redis.Del(ctx, s.scoreKey(quizID), s.nameKey(quizID)).Err()
}

func (s *LeaderboardStore) scoreKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:leaderboard", quizID)
}

func (s *LeaderboardStore) nameKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:players", quizID)
}
