// Package progress computes a learner's current scene from stored
// submissions, using the cursor cache only as a starting hint.
package progress

import (
	"context"

	"github.com/annetmii/annetmii-english-camp/internal/cache"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
)

// MaxSceneAdvances caps the scan so a corrupted store cannot loop forever
const MaxSceneAdvances = 100

// Store is the read side of the submission store the resolver needs
type Store interface {
	HasAnySubmission(ctx context.Context, userID string) (bool, error)
	SubmittedRounds(ctx context.Context, userID string, sceneN int) ([]int, error)
}

// Resolver computes the current scene. It never returns an error: failures
// degrade to a safe value and are logged.
type Resolver struct {
	store Store
	cache cache.CursorCache
	log   *logger.Logger
}

func NewResolver(store Store, cursor cache.CursorCache, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{store: store, cache: cursor, log: log.With("component", "progress")}
}

// ComputeCurrentScene returns the first scene, starting from the cached
// cursor, whose rounds 1..3 are not all submitted. A learner with no rows
// at all is always on scene 1.
func (r *Resolver) ComputeCurrentScene(ctx context.Context, userID string) int {
	hasRows, err := r.store.HasAnySubmission(ctx, userID)
	if err != nil {
		r.log.Warn("checking for submissions failed", "user_id", userID, "error", err)
		return 1
	}
	if !hasRows {
		r.setCursor(ctx, userID, 1)
		return 1
	}

	candidate := r.startingScene(ctx, userID)
	for i := 0; i < MaxSceneAdvances; i++ {
		rounds, err := r.store.SubmittedRounds(ctx, userID, candidate)
		if err != nil {
			r.log.Warn("loading submitted rounds failed", "user_id", userID, "scene", candidate, "error", err)
			return candidate
		}
		if !allRoundsSubmitted(rounds) {
			return candidate
		}
		candidate++
		r.setCursor(ctx, userID, candidate)
	}

	r.log.Warn("scene scan hit its cap", "user_id", userID, "scene", candidate)
	return candidate
}

func (r *Resolver) startingScene(ctx context.Context, userID string) int {
	n, ok, err := r.cache.GetScene(ctx, userID)
	if err != nil {
		r.log.Warn("reading scene cursor failed", "user_id", userID, "error", err)
		return 1
	}
	if !ok || n < 1 {
		return 1
	}
	return n
}

func (r *Resolver) setCursor(ctx context.Context, userID string, sceneN int) {
	if err := r.cache.SetScene(ctx, userID, sceneN); err != nil {
		r.log.Warn("writing scene cursor failed", "user_id", userID, "scene", sceneN, "error", err)
	}
}

func allRoundsSubmitted(rounds []int) bool {
	var seen [4]bool
	for _, n := range rounds {
		if n >= 1 && n <= 3 {
			seen[n] = true
		}
	}
	return seen[1] && seen[2] && seen[3]
}
