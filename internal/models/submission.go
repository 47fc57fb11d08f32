package models

import "time"

// Status is the graded outcome stored with a submission
type Status string

const (
	StatusCorrect Status = "Correct"
	StatusAlmost  Status = "Almost"
)

// StatusFor maps an exact-match result to its stored status
func StatusFor(isCorrect bool) Status {
	if isCorrect {
		return StatusCorrect
	}
	return StatusAlmost
}

// Valid reports whether s is one of the stored status values
func (s Status) Valid() bool {
	return s == StatusCorrect || s == StatusAlmost
}

// Submission is the single live row for one (learner, scene, round).
// Nullable columns are pointers so they serialize as JSON null.
type Submission struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	SceneN         int       `json:"scene_n"`
	RoundN         int       `json:"round_n"`
	Status         *Status   `json:"status"`
	Sentence1Built *string   `json:"sentence1_built"`
	Sentence2Built *string   `json:"sentence2_built"`
	CoachComment   *string   `json:"coach_comment"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Key identifies a submission row independent of its store id
type Key struct {
	UserID string
	SceneN int
	RoundN int
}

// Key returns the unique key of the row
func (s *Submission) Key() Key {
	return Key{UserID: s.UserID, SceneN: s.SceneN, RoundN: s.RoundN}
}

// IsCorrect reports whether the stored status is Correct
func (s *Submission) IsCorrect() bool {
	return s.Status != nil && *s.Status == StatusCorrect
}

// HasComment reports whether a coach has left a non-empty comment
func (s *Submission) HasComment() bool {
	return s.CoachComment != nil && *s.CoachComment != ""
}
