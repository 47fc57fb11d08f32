package sentence

import (
	"errors"
	"math/rand"
)

var (
	ErrUnknownToken   = errors.New("unknown token")
	ErrInvalidSlot    = errors.New("slot must be 1 or 2")
	ErrSubmitInFlight = errors.New("a submission is already being saved")
)

// SaveStatus is the persistence indicator shown next to the submit button
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)

// Result is the grading indicator for the current attempt
type Result string

const (
	ResultIdle      Result = "idle"
	ResultCorrect   Result = "correct"
	ResultIncorrect Result = "incorrect"
)

type event int

const (
	evPlace event = iota
	evUnplace
	evReset
	evSubmit
	evSaved
	evSaveFailed
)

// effect describes what an event does to the revision and indicators.
// An empty status leaves the save indicator unchanged.
type effect struct {
	changesPlacement bool
	clearResult      bool
	status           SaveStatus
}

// Every placement change clears both indicators so a modified attempt
// never shows a stale grade.
var transitions = map[event]effect{
	evPlace:      {changesPlacement: true, clearResult: true, status: SaveIdle},
	evUnplace:    {changesPlacement: true, clearResult: true, status: SaveIdle},
	evReset:      {changesPlacement: true, clearResult: true, status: SaveIdle},
	evSubmit:     {status: SaveSaving},
	evSaved:      {status: SaveSaved},
	evSaveFailed: {status: SaveError},
}

// Targets is the canonical content of a round
type Targets struct {
	Target1 []string
	Target2 []string
	Extra   []string
}

// Attempt is a graded snapshot handed to the persistence layer
type Attempt struct {
	Revision    uint64
	Sentence1   string
	Sentence2   string
	Grade       Grade
	WrongTokens []string
}

// Builder holds the state of one learner working on one round. It is not
// safe for concurrent use; callers serialize access.
type Builder struct {
	targets  Targets
	pools    [2][]Token
	index    [2]map[string]Token
	placed   [2][]Token
	status   SaveStatus
	result   Result
	revision uint64
}

// NewBuilder builds and shuffles both pools once. The same distractors are
// offered in each pool.
func NewBuilder(targets Targets, rng *rand.Rand) *Builder {
	b := &Builder{
		targets: targets,
		status:  SaveIdle,
		result:  ResultIdle,
	}
	b.pools[0] = Shuffle(BuildPool(targets.Target1, targets.Extra, Namespace1), rng)
	b.pools[1] = Shuffle(BuildPool(targets.Target2, targets.Extra, Namespace2), rng)
	for i := range b.pools {
		b.index[i] = make(map[string]Token, len(b.pools[i]))
		for _, t := range b.pools[i] {
			b.index[i][t.ID] = t
		}
	}
	return b
}

func slotIndex(slot int) (int, error) {
	if slot != 1 && slot != 2 {
		return 0, ErrInvalidSlot
	}
	return slot - 1, nil
}

func (b *Builder) apply(ev event) {
	eff := transitions[ev]
	if eff.changesPlacement {
		b.revision++
	}
	if eff.clearResult {
		b.result = ResultIdle
	}
	if eff.status != "" {
		b.status = eff.status
	}
}

// Tap moves a token between the available pool and the placed sequence of a
// slot. Tapping a placed token removes it wherever it sits.
func (b *Builder) Tap(slot int, tokenID string) error {
	i, err := slotIndex(slot)
	if err != nil {
		return err
	}
	tok, ok := b.index[i][tokenID]
	if !ok {
		return ErrUnknownToken
	}

	for pos, placed := range b.placed[i] {
		if placed.ID == tokenID {
			b.placed[i] = append(b.placed[i][:pos:pos], b.placed[i][pos+1:]...)
			b.apply(evUnplace)
			return nil
		}
	}

	b.placed[i] = append(b.placed[i], tok)
	b.apply(evPlace)
	return nil
}

// Reset empties both slots
func (b *Builder) Reset() error {
	if b.status == SaveSaving {
		return ErrSubmitInFlight
	}
	b.placed[0] = nil
	b.placed[1] = nil
	b.apply(evReset)
	return nil
}

// Pool returns the shuffled pool of a slot in display order
func (b *Builder) Pool(slot int) []Token {
	i, err := slotIndex(slot)
	if err != nil {
		return nil
	}
	out := make([]Token, len(b.pools[i]))
	copy(out, b.pools[i])
	return out
}

// Available returns the pool of a slot minus its placed tokens
func (b *Builder) Available(slot int) []Token {
	i, err := slotIndex(slot)
	if err != nil {
		return nil
	}
	used := make(map[string]struct{}, len(b.placed[i]))
	for _, t := range b.placed[i] {
		used[t.ID] = struct{}{}
	}
	out := make([]Token, 0, len(b.pools[i])-len(used))
	for _, t := range b.pools[i] {
		if _, ok := used[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// Placed returns the placed sequence of a slot in order
func (b *Builder) Placed(slot int) []Token {
	i, err := slotIndex(slot)
	if err != nil {
		return nil
	}
	out := make([]Token, len(b.placed[i]))
	copy(out, b.placed[i])
	return out
}

// BuiltText is the formatted text of a slot
func (b *Builder) BuiltText(slot int) string {
	return Format(texts(b.Placed(slot)))
}

// SaveStatus returns the persistence indicator
func (b *Builder) SaveStatus() SaveStatus { return b.status }

// Result returns the grading indicator
func (b *Builder) Result() Result { return b.result }

// Revision increases on every placement change
func (b *Builder) Revision() uint64 { return b.revision }

// BeginSubmit grades the current placement and marks the builder as saving.
// The returned Attempt must be completed with FinishSubmit.
func (b *Builder) BeginSubmit() (Attempt, error) {
	if b.status == SaveSaving {
		return Attempt{}, ErrSubmitInFlight
	}

	picked1, picked2 := texts(b.placed[0]), texts(b.placed[1])
	a := Attempt{
		Revision:    b.revision,
		Sentence1:   Format(picked1),
		Sentence2:   Format(picked2),
		WrongTokens: WrongTokensBoth(picked1, b.targets.Target1, picked2, b.targets.Target2),
	}
	a.Grade = GradeSentences(a.Sentence1, a.Sentence2, b.targets.Target1, b.targets.Target2)

	b.apply(evSubmit)
	if a.Grade.IsCorrect {
		b.result = ResultCorrect
	} else {
		b.result = ResultIncorrect
	}
	return a, nil
}

// FinishSubmit records the outcome of the store write for an attempt. It is
// ignored when the placement changed after the attempt began, and reports
// whether it was applied.
func (b *Builder) FinishSubmit(revision uint64, err error) bool {
	if revision != b.revision || b.status != SaveSaving {
		return false
	}
	if err != nil {
		b.apply(evSaveFailed)
		return true
	}
	b.apply(evSaved)
	return true
}

// TargetText returns the formatted target of a slot
func (b *Builder) TargetText(slot int) string {
	switch slot {
	case 1:
		return Format(b.targets.Target1)
	case 2:
		return Format(b.targets.Target2)
	}
	return ""
}
