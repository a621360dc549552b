package service

import (
	"context"
	"encoding/json"
	"evalmate_backend/internal/model"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore keeps per-student ephemeral state: the in-progress wizard
// payload (keyed by form id) and the set of forms whose passcode the student
// has already verified. The wizard payload is a working cache only — the
// DraftResponse row is the durable copy.
type SessionStore interface {
	LoadWizard(ctx context.Context, studentID, formID uint) (*model.WizardState, error)
	SaveWizard(ctx context.Context, studentID uint, state *model.WizardState) error
	ClearWizard(ctx context.Context, studentID, formID uint) error

	MarkPasscodeVerified(ctx context.Context, studentID, formID uint) error
	PasscodeVerified(ctx context.Context, studentID, formID uint) (bool, error)
}

type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func wizardKey(studentID, formID uint) string {
	return fmt.Sprintf("wizard:%d:%d", studentID, formID)
}

func passcodeKey(studentID uint) string {
	return fmt.Sprintf("passcode:verified:%d", studentID)
}

func (s *RedisSessionStore) LoadWizard(ctx context.Context, studentID, formID uint) (*model.WizardState, error) {
	raw, err := s.rdb.Get(ctx, wizardKey(studentID, formID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.WizardState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RedisSessionStore) SaveWizard(ctx context.Context, studentID uint, state *model.WizardState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, wizardKey(studentID, state.FormID), raw, s.ttl).Err()
}

func (s *RedisSessionStore) ClearWizard(ctx context.Context, studentID, formID uint) error {
	return s.rdb.Del(ctx, wizardKey(studentID, formID)).Err()
}

func (s *RedisSessionStore) MarkPasscodeVerified(ctx context.Context, studentID, formID uint) error {
	key := passcodeKey(studentID)
	if err := s.rdb.SAdd(ctx, key, formID).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, s.ttl).Err()
}

func (s *RedisSessionStore) PasscodeVerified(ctx context.Context, studentID, formID uint) (bool, error) {
	return s.rdb.SIsMember(ctx, passcodeKey(studentID), formID).Result()
}

// MemorySessionStore is the in-process fallback used in tests and when
// Redis is not configured. Same contract, no TTL enforcement.
type MemorySessionStore struct {
	mu       sync.Mutex
	wizards  map[string]*model.WizardState
	verified map[uint]map[uint]bool
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		wizards:  make(map[string]*model.WizardState),
		verified: make(map[uint]map[uint]bool),
	}
}

func (s *MemorySessionStore) LoadWizard(_ context.Context, studentID, formID uint) (*model.WizardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.wizards[wizardKey(studentID, formID)]
	if !ok {
		return nil, nil
	}
	cp := *st
	cp.Teammates = append([]string(nil), st.Teammates...)
	cp.Evaluations = append([]model.TeammateEvaluation(nil), st.Evaluations...)
	return &cp, nil
}

func (s *MemorySessionStore) SaveWizard(_ context.Context, studentID uint, state *model.WizardState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	cp.Teammates = append([]string(nil), state.Teammates...)
	cp.Evaluations = append([]model.TeammateEvaluation(nil), state.Evaluations...)
	s.wizards[wizardKey(studentID, state.FormID)] = &cp
	return nil
}

func (s *MemorySessionStore) ClearWizard(_ context.Context, studentID, formID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wizards, wizardKey(studentID, formID))
	return nil
}

func (s *MemorySessionStore) MarkPasscodeVerified(_ context.Context, studentID, formID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verified[studentID] == nil {
		s.verified[studentID] = make(map[uint]bool)
	}
	s.verified[studentID][formID] = true
	return nil
}

func (s *MemorySessionStore) PasscodeVerified(_ context.Context, studentID, formID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified[studentID][formID], nil
}
