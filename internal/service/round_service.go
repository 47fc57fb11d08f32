package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/annetmii/annetmii-english-camp/internal/content"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/models"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
	"github.com/annetmii/annetmii-english-camp/internal/sentence"
)

var (
	ErrRoundNotFound = errors.New("round not found")
	ErrSaveFailed    = errors.New("failed to save submission")
)

// submitWriteTimeout bounds a store write that outlives its request
const submitWriteTimeout = 10 * time.Second

// SubmissionWriter is the part of the submission store used by rounds
type SubmissionWriter interface {
	Upsert(ctx context.Context, p repository.UpsertParams) (*models.Submission, error)
	GetByKey(ctx context.Context, key models.Key) (*models.Submission, error)
}

// SceneResolver computes and caches a learner's current scene
type SceneResolver interface {
	ComputeCurrentScene(ctx context.Context, userID string) int
}

// SlotView is one sentence slot as rendered to the learner
type SlotView struct {
	Slot      int              `json:"slot"`
	Role      string           `json:"role"`
	Pool      []sentence.Token `json:"pool"`
	Available []sentence.Token `json:"available"`
	Placed    []sentence.Token `json:"placed"`
	Built     string           `json:"built"`
	// Target is revealed once the round is graded correct
	Target    string           `json:"target,omitempty"`
}

// BuilderView is a snapshot of a round session
type BuilderView struct {
	Slots       []SlotView          `json:"slots"`
	SaveStatus  sentence.SaveStatus `json:"save_status"`
	Result      sentence.Result     `json:"result"`
	Revision    uint64              `json:"revision"`
	WrongTokens []string            `json:"wrong_tokens"`
}

// RoundNav holds the back and next links of a round
type RoundNav struct {
	Back string `json:"back"`
	Next string `json:"next"`
}

// RoundView is everything the round screen shows
type RoundView struct {
	Scene        *content.Scene     `json:"scene"`
	Round        *content.Round     `json:"round"`
	Character    content.Character  `json:"character"`
	CurrentScene int                `json:"current_scene"`
	Nav          RoundNav           `json:"nav"`
	Builder      BuilderView        `json:"builder"`
	Saved        *models.Submission `json:"saved"`
}

// SubmitResult is the outcome of grading and saving an attempt. Stale is set
// when the placement changed while the write was in flight.
type SubmitResult struct {
	Builder     BuilderView        `json:"builder"`
	IsCorrect   bool               `json:"is_correct"`
	Status      models.Status      `json:"status"`
	WrongTokens []string           `json:"wrong_tokens"`
	Saved       *models.Submission `json:"saved"`
	Stale       bool               `json:"stale"`
}

// roundSession is one learner working on one round. mu serializes every
// operation on the builder.
type roundSession struct {
	mu       sync.Mutex
	builder  *sentence.Builder
	role1    string
	role2    string
	wrong    []string
	wrongRev uint64
	lastUsed time.Time
}

// RoundService keeps the in-progress builder of every open round and
// persists graded attempts
type RoundService struct {
	catalog  *content.Catalog
	store    SubmissionWriter
	resolver SceneResolver
	log      *logger.Logger

	newRNG func() *rand.Rand
	now    func() time.Time

	mu       sync.Mutex
	sessions map[models.Key]*roundSession
}

// NewRoundService creates a new round service
func NewRoundService(catalog *content.Catalog, store SubmissionWriter, resolver SceneResolver, log *logger.Logger) *RoundService {
	return &RoundService{
		catalog:  catalog,
		store:    store,
		resolver: resolver,
		log:      log.With("service", "RoundService"),
		newRNG:   func() *rand.Rand { return nil },
		now:      time.Now,
		sessions: make(map[models.Key]*roundSession),
	}
}

func (s *RoundService) lookup(sceneN, roundN int) (*content.Scene, *content.Round, error) {
	scene, round, err := s.catalog.Round(sceneN, roundN)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: scene %d round %d", ErrRoundNotFound, sceneN, roundN)
		}
		return nil, nil, err
	}
	return scene, round, nil
}

// session returns the round session for key, creating it on first use.
// Token ids are stable for a round, so a session recreated after eviction
// accepts the ids of the one it replaced.
func (s *RoundService) session(key models.Key, scene *content.Scene, round *content.Round) *roundSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		return sess
	}
	sess := &roundSession{
		builder: sentence.NewBuilder(sentence.Targets{
			Target1: round.TargetTokens1,
			Target2: round.TargetTokens2,
			Extra:   round.ExtraTokens,
		}, s.newRNG()),
		role1:    scene.Sentence1Role,
		role2:    scene.Sentence2Role,
		lastUsed: s.now(),
	}
	s.sessions[key] = sess
	return sess
}

// view renders a session. Callers hold sess.mu.
func (sess *roundSession) view() BuilderView {
	b := sess.builder
	v := BuilderView{
		SaveStatus:  b.SaveStatus(),
		Result:      b.Result(),
		Revision:    b.Revision(),
		WrongTokens: []string{},
	}
	for slot, role := range []string{sess.role1, sess.role2} {
		n := slot + 1
		sv := SlotView{
			Slot:      n,
			Role:      role,
			Pool:      b.Pool(n),
			Available: b.Available(n),
			Placed:    b.Placed(n),
			Built:     b.BuiltText(n),
		}
		if b.Result() == sentence.ResultCorrect {
			sv.Target = b.TargetText(n)
		}
		v.Slots = append(v.Slots, sv)
	}
	if b.Result() != sentence.ResultIdle && sess.wrongRev == b.Revision() && sess.wrong != nil {
		v.WrongTokens = append(v.WrongTokens, sess.wrong...)
	}
	return v
}

func roundNav(sceneN, roundN int) RoundNav {
	summary := fmt.Sprintf("/api/summary?scene=%d", sceneN)
	nav := RoundNav{Back: summary, Next: summary}
	if roundN > 1 {
		nav.Back = fmt.Sprintf("/api/scenes/%d/rounds/%d", sceneN, roundN-1)
	}
	if roundN < content.RoundsPerScene {
		nav.Next = fmt.Sprintf("/api/scenes/%d/rounds/%d", sceneN, roundN+1)
	}
	return nav
}

// Open returns the round screen for a learner. Opening a round reconciles
// the progress cursor and loads the learner's saved row.
func (s *RoundService) Open(ctx context.Context, userID string, sceneN, roundN int) (*RoundView, error) {
	scene, round, err := s.lookup(sceneN, roundN)
	if err != nil {
		return nil, err
	}

	current := s.resolver.ComputeCurrentScene(ctx, userID)

	key := models.Key{UserID: userID, SceneN: sceneN, RoundN: roundN}
	saved, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved submission: %w", err)
	}

	character, _ := s.catalog.Character(round.CharacterID)

	sess := s.session(key, scene, round)
	sess.mu.Lock()
	sess.lastUsed = s.now()
	builder := sess.view()
	sess.mu.Unlock()

	return &RoundView{
		Scene:        scene,
		Round:        round,
		Character:    character,
		CurrentScene: current,
		Nav:          roundNav(sceneN, roundN),
		Builder:      builder,
		Saved:        saved,
	}, nil
}

// Tap places or removes a token in a slot
func (s *RoundService) Tap(ctx context.Context, userID string, sceneN, roundN, slot int, tokenID string) (BuilderView, error) {
	return s.mutate(userID, sceneN, roundN, func(b *sentence.Builder) error {
		return b.Tap(slot, tokenID)
	})
}

// Reset clears both slots
func (s *RoundService) Reset(ctx context.Context, userID string, sceneN, roundN int) (BuilderView, error) {
	return s.mutate(userID, sceneN, roundN, func(b *sentence.Builder) error {
		return b.Reset()
	})
}

func (s *RoundService) mutate(userID string, sceneN, roundN int, fn func(*sentence.Builder) error) (BuilderView, error) {
	scene, round, err := s.lookup(sceneN, roundN)
	if err != nil {
		return BuilderView{}, err
	}
	sess := s.session(models.Key{UserID: userID, SceneN: sceneN, RoundN: roundN}, scene, round)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = s.now()
	if err := fn(sess.builder); err != nil {
		return sess.view(), err
	}
	return sess.view(), nil
}

// Submit grades the current placement and upserts it. The write runs outside
// the session lock and is not cancelled with the request. A completion that
// arrives after the placement changed does not touch the session.
func (s *RoundService) Submit(ctx context.Context, userID string, sceneN, roundN int) (*SubmitResult, error) {
	scene, round, err := s.lookup(sceneN, roundN)
	if err != nil {
		return nil, err
	}
	sess := s.session(models.Key{UserID: userID, SceneN: sceneN, RoundN: roundN}, scene, round)

	sess.mu.Lock()
	sess.lastUsed = s.now()
	attempt, err := sess.builder.BeginSubmit()
	if err != nil {
		view := sess.view()
		sess.mu.Unlock()
		return &SubmitResult{Builder: view}, err
	}
	sess.wrong = attempt.WrongTokens
	sess.wrongRev = attempt.Revision
	sess.mu.Unlock()

	status := models.StatusFor(attempt.Grade.IsCorrect)
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitWriteTimeout)
	saved, writeErr := s.store.Upsert(writeCtx, repository.UpsertParams{
		UserID:    userID,
		SceneN:    sceneN,
		RoundN:    roundN,
		Sentence1: attempt.Sentence1,
		Sentence2: attempt.Sentence2,
		Status:    status,
	})
	cancel()
	if writeErr != nil {
		s.log.Error("failed to save submission", "user_id", userID, "scene", sceneN, "round", roundN, "error", writeErr)
	}

	sess.mu.Lock()
	applied := sess.builder.FinishSubmit(attempt.Revision, writeErr)
	view := sess.view()
	sess.mu.Unlock()

	result := &SubmitResult{
		Builder:     view,
		IsCorrect:   attempt.Grade.IsCorrect,
		Status:      status,
		WrongTokens: attempt.WrongTokens,
		Saved:       saved,
		Stale:       !applied,
	}
	if result.WrongTokens == nil {
		result.WrongTokens = []string{}
	}
	if writeErr != nil {
		return result, fmt.Errorf("%w: %v", ErrSaveFailed, writeErr)
	}
	return result, nil
}

// ActiveSessions returns the number of open round sessions
func (s *RoundService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle drops sessions unused for longer than ttl. Busy sessions and
// sessions with a save in flight are kept.
func (s *RoundService) EvictIdle(ttl time.Duration) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		idle := now.Sub(sess.lastUsed) > ttl && sess.builder.SaveStatus() != sentence.SaveSaving
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, key)
			evicted++
		}
	}
	return evicted
}

// RunEviction evicts idle sessions every interval until ctx is done
func (s *RoundService) RunEviction(ctx context.Context, every, ttl time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(ttl); n > 0 {
				s.log.Debug("evicted idle round sessions", "count", n)
			}
		}
	}
}
