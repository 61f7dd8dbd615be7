package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/knightqmd/scheduler-app/internal/domain"
)

// weekDocument is the JSON form of a week kept under <prefix>:week.
type weekDocument struct {
	Days     []domain.DaySchedule `json:"days"`
	FreeText string               `json:"free_text,omitempty"`
}

// RedisScheduleStore implements ScheduleStore on two Redis keys: the week as
// one JSON document and the long-term plan as a plain string. A single SET
// replaces the whole week, so readers never observe a partial write.
type RedisScheduleStore struct {
	client redis.UniversalClient
	prefix string
	owner  string
}

// NewRedisScheduleStore creates a store using keys under prefix.
func NewRedisScheduleStore(client redis.UniversalClient, prefix, owner string) *RedisScheduleStore {
	if prefix == "" {
		prefix = "weekplan"
	}
	return &RedisScheduleStore{client: client, prefix: prefix, owner: owner}
}

func (s *RedisScheduleStore) weekKey() string { return s.prefix + ":week" }
func (s *RedisScheduleStore) planKey() string { return s.prefix + ":long_term_plan" }

func (s *RedisScheduleStore) Load(ctx context.Context) (*domain.WeekSchedule, error) {
	vals, err := s.client.MGet(ctx, s.weekKey(), s.planKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}

	week := domain.NewWeekSchedule(s.owner)
	if raw, ok := vals[0].(string); ok && raw != "" {
		var doc weekDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decoding stored week: %w", err)
		}
		week.ReplaceDays(doc.Days)
		week.SetFreeText(doc.FreeText)
	}
	if plan, ok := vals[1].(string); ok {
		week.LongTermPlan = strings.TrimSpace(plan)
	}
	return week, nil
}

func (s *RedisScheduleStore) Save(ctx context.Context, week *domain.WeekSchedule) error {
	payload, err := json.Marshal(weekDocument{Days: week.Days(), FreeText: week.FreeText})
	if err != nil {
		return fmt.Errorf("encoding week: %w", err)
	}
	plan := strings.TrimSpace(week.LongTermPlan)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.weekKey(), payload, 0)
		if plan != "" {
			pipe.Set(ctx, s.planKey(), plan, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}
	return nil
}

func (s *RedisScheduleStore) GetLongTermPlan(ctx context.Context) (string, error) {
	plan, err := s.client.Get(ctx, s.planKey()).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading long-term plan: %w", err)
	}
	return strings.TrimSpace(plan), nil
}

// SaveLongTermPlan stores the trimmed text; an empty text clears the plan.
func (s *RedisScheduleStore) SaveLongTermPlan(ctx context.Context, text string) error {
	plan := strings.TrimSpace(text)
	var err error
	if plan == "" {
		err = s.client.Del(ctx, s.planKey()).Err()
	} else {
		err = s.client.Set(ctx, s.planKey(), plan, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("saving long-term plan: %w", err)
	}
	return nil
}

// Compile-time verification that both backends satisfy ScheduleStore.
var (
	_ ScheduleStore = (*SQLiteScheduleStore)(nil)
	_ ScheduleStore = (*RedisScheduleStore)(nil)
)
