package services

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quizhub/models"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// PlayerQuiz is the sanitized view of a quiz served to players.
// It never exposes which option is the correct one.
type PlayerQuiz struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	TotalPoints int              `json:"total_points"`
	Questions   []PlayerQuestion `json:"questions"`
}

type PlayerQuestion struct {
	ID      uint           `json:"id"`
	Text    string         `json:"text"`
	Points  int            `json:"points"`
	Options []PlayerOption `json:"options"`
}

type PlayerOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// SnapshotLoader produces the player view of a quiz from the source of truth.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, quizID uint) (*PlayerQuiz, error)
}

// DBSnapshotLoader loads player snapshots straight from the database.
type DBSnapshotLoader struct {
	db *gorm.DB
}

func NewDBSnapshotLoader(db *gorm.DB) *DBSnapshotLoader {
	return &DBSnapshotLoader{db: db}
}

func (l *DBSnapshotLoader) LoadSnapshot(ctx context.Context, quizID uint) (*PlayerQuiz, error) {
	var quiz models.Quiz
	err := l.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		First(&quiz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrQuizNotFound
		}
		return nil, err
	}

	snapshot := &PlayerQuiz{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		TotalPoints: quiz.TotalPoints(),
		Questions:   make([]PlayerQuestion, 0, len(quiz.Questions)),
	}
	for _, question := range quiz.Questions {
		pq := PlayerQuestion{
			ID:      question.ID,
			Text:    question.Text,
			Points:  question.Points,
			Options: make([]PlayerOption, 0, len(question.Options)),
		}
		for _, option := range question.Options {
			pq.Options = append(pq.Options, PlayerOption{ID: option.ID, Text: option.Text})
		}
		snapshot.Questions = append(snapshot.Questions, pq)
	}
	return snapshot, nil
}

type cachedSnapshot struct {
	snapshot  *PlayerQuiz
	expiresAt time.Time
}

// QuizCache keeps player snapshots in memory for a short TTL so that a
// popular quiz does not hit the database on every page load. Concurrent
// misses for the same quiz are collapsed into a single load.
type QuizCache struct {
	loader SnapshotLoader
	ttl    time.Duration
	clock  func() time.Time

	mu      sync.RWMutex
	entries map[uint]cachedSnapshot
	group   singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex
}

func NewQuizCache(loader SnapshotLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[uint]cachedSnapshot),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) Get(ctx context.Context, quizID uint) (*PlayerQuiz, error) {
	if snapshot, ok := c.lookup(quizID); ok {
		return snapshot, nil
	}

	key := strconv.FormatUint(uint64(quizID), 10)
	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		if snapshot, ok := c.lookup(quizID); ok {
			return snapshot, nil
		}
		snapshot, err := c.loader.LoadSnapshot(ctx, quizID)
		if err != nil {
			return nil, err
		}
		c.store(quizID, snapshot)
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*PlayerQuiz), nil
}

// Invalidate drops the cached snapshot after an authoring change.
func (c *QuizCache) Invalidate(quizID uint) {
	c.mu.Lock()
	delete(c.entries, quizID)
	c.mu.Unlock()
}

func (c *QuizCache) lookup(quizID uint) (*PlayerQuiz, bool) {
	c.mu.RLock()
	entry, ok := c.entries[quizID]
	c.mu.RUnlock()
	if !ok || c.clock().After(entry.expiresAt) {
		return nil, false
	}
	return entry.snapshot, true
}

func (c *QuizCache) store(quizID uint, snapshot *PlayerQuiz) {
	c.mu.Lock()
	c.entries[quizID] = cachedSnapshot{
		snapshot:  snapshot,
		expiresAt: c.clock().Add(c.ttlWithJitter()),
	}
	c.mu.Unlock()
}

// ttlWithJitter spreads expirations so snapshots cached together do not
// all reload at the same instant.
func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitter := c.ttl / 10
	if jitter <= 0 {
		return c.ttl
	}
	c.rndMu.Lock()
	offset := time.Duration(c.rnd.Int63n(int64(jitter)))
	c.rndMu.Unlock()
	return c.ttl + offset
}
