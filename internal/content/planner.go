package content

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Weekdays in calendar order; schedules always carry all seven keys.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var (
	ErrInvalidDay    = errors.New("planner: invalid day")
	ErrEmptyDay      = errors.New("planner: no post on day")
	ErrNotEnough     = errors.New("planner: not enough posts")
	ErrNothingToPlan = errors.New("planner: missing posts or post frequency")
)

// Schedule maps a weekday to its post text; nil means a free day.
type Schedule map[string]*string

func IsWeekday(day string) bool {
	day = strings.ToLower(day)
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// PlanStore persists the weekly schedule.
type PlanStore interface {
	Load(ctx context.Context) (Schedule, error)
	Save(ctx context.Context, s Schedule) error
}

type Planner struct {
	mu    sync.Mutex
	store PlanStore
	rng   *rand.Rand
}

func NewPlanner(store PlanStore, seed uint64) *Planner {
	if store == nil {
		store = NewMemoryPlanStore()
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Planner{store: store, rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func emptySchedule() Schedule {
	s := make(Schedule, len(Weekdays))
	for _, d := range Weekdays {
		s[d] = nil
	}
	return s
}

// Assign clears the week and places posts on the preferred days, or on a
// random sample of frequency days when none are given. frequency <= 0 means
// one day per post.
func (p *Planner) Assign(ctx context.Context, posts []string, frequency int, preferredDays []string) (Schedule, error) {
	if frequency <= 0 {
		frequency = len(posts)
	}
	if len(posts) == 0 || frequency == 0 {
		return nil, ErrNothingToPlan
	}
	if len(posts) < frequency {
		return nil, ErrNotEnough
	}
	if frequency > len(Weekdays) {
		frequency = len(Weekdays)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var days []string
	if len(preferredDays) > 0 {
		for _, d := range preferredDays {
			d = strings.ToLower(strings.TrimSpace(d))
			if !IsWeekday(d) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidDay, d)
			}
			days = append(days, d)
			if len(days) == frequency {
				break
			}
		}
	} else {
		for _, i := range p.rng.Perm(len(Weekdays))[:frequency] {
			days = append(days, Weekdays[i])
		}
	}

	s := emptySchedule()
	for i, d := range days {
		post := posts[i]
		s[d] = &post
	}
	if err := p.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Planner) Get(ctx context.Context) (Schedule, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Load(ctx)
}

func (p *Planner) Update(ctx context.Context, day, post string) error {
	day = strings.ToLower(day)
	if !IsWeekday(day) {
		return fmt.Errorf("%w: %s", ErrInvalidDay, day)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, err := p.store.Load(ctx)
	if err != nil {
		return err
	}
	s[day] = &post
	return p.store.Save(ctx, s)
}

// Delete frees the day and returns the removed post.
func (p *Planner) Delete(ctx context.Context, day string) (string, error) {
	day = strings.ToLower(day)
	if !IsWeekday(day) {
		return "", fmt.Errorf("%w: %s", ErrInvalidDay, day)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, err := p.store.Load(ctx)
	if err != nil {
		return "", err
	}
	prev := s[day]
	if prev == nil {
		return "", fmt.Errorf("%w: %s", ErrEmptyDay, day)
	}
	s[day] = nil
	if err := p.store.Save(ctx, s); err != nil {
		return "", err
	}
	return *prev, nil
}

type MemoryPlanStore struct {
	mu sync.Mutex
	s  Schedule
}

func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{s: emptySchedule()}
}

func (m *MemoryPlanStore) Load(context.Context) (Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := emptySchedule()
	for d, v := range m.s {
		if v != nil {
			post := *v
			out[d] = &post
		}
	}
	return out, nil
}

func (m *MemoryPlanStore) Save(_ context.Context, s Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = emptySchedule()
	for d, v := range s {
		if v != nil {
			post := *v
			m.s[d] = &post
		}
	}
	return nil
}

// RedisPlanStore keeps the schedule in one hash, field per occupied day.
type RedisPlanStore struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisPlanStore(rdb redis.UniversalClient) *RedisPlanStore {
	return &RedisPlanStore{rdb: rdb, key: "planner:week"}
}

func (r *RedisPlanStore) Load(ctx context.Context) (Schedule, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("planner: load: %w", err)
	}
	s := emptySchedule()
	for d, v := range fields {
		if IsWeekday(d) {
			post := v
			s[d] = &post
		}
	}
	return s, nil
}

func (r *RedisPlanStore) Save(ctx context.Context, s Schedule) error {
	values := make(map[string]any)
	for d, v := range s {
		if v != nil {
			values[d] = *v
		}
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(values) > 0 {
			pipe.HSet(ctx, r.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("planner: save: %w", err)
	}
	return nil
}
