package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/annetmii/annetmii-english-camp/internal/content"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/models"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
)

// NotSubmitted labels a round without a saved row
const NotSubmitted = "Not submitted"

// maxCommentLength bounds a coach comment
const maxCommentLength = 2000

var ErrCommentTooLong = fmt.Errorf("comment must be at most %d characters", maxCommentLength)

// RoundSlot is one round of the selected scene on the summary screen
type RoundSlot struct {
	RoundN     int                `json:"round_n"`
	Label      string             `json:"label"`
	Submission *models.Submission `json:"submission"`
}

// Summary is a learner's submission history
type Summary struct {
	Scenes        []int               `json:"scenes"`
	SelectedScene int                 `json:"selected_scene"`
	CurrentScene  int                 `json:"current_scene"`
	Rows          []models.Submission `json:"rows"`
	Rounds        []RoundSlot         `json:"rounds"`
}

// CoachRow is a submission with its learner attached
type CoachRow struct {
	models.Submission
	LearnerEmail string `json:"learner_email"`
	LearnerName  string `json:"learner_name"`
}

// CoachReview is the coach's view of every learner's latest rows
type CoachReview struct {
	Scenes        []int      `json:"scenes"`
	SelectedScene int        `json:"selected_scene"`
	Rows          []CoachRow `json:"rows"`
}

// SubmissionService serves the summary and coach screens
type SubmissionService struct {
	submissions *repository.SubmissionRepository
	users       *repository.UserRepository
	resolver    SceneResolver
	email       *EmailService
	log         *logger.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(submissions *repository.SubmissionRepository, users *repository.UserRepository, resolver SceneResolver, email *EmailService, log *logger.Logger) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		users:       users,
		resolver:    resolver,
		email:       email,
		log:         log.With("service", "SubmissionService"),
	}
}

// Summary lists a learner's rows for one scene. sceneN <= 0 selects the
// learner's current scene.
func (s *SubmissionService) Summary(ctx context.Context, userID string, sceneN int) (*Summary, error) {
	rows, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	out := &Summary{
		Scenes:       distinctScenes(rows),
		CurrentScene: s.resolver.ComputeCurrentScene(ctx, userID),
		Rows:         []models.Submission{},
	}
	out.SelectedScene = sceneN
	if out.SelectedScene <= 0 {
		out.SelectedScene = out.CurrentScene
	}

	for _, row := range rows {
		if row.SceneN == out.SelectedScene {
			out.Rows = append(out.Rows, row)
		}
	}

	for roundN := 1; roundN <= content.RoundsPerScene; roundN++ {
		slot := RoundSlot{RoundN: roundN, Label: NotSubmitted}
		// rows are newest first within a round
		for i := range out.Rows {
			if out.Rows[i].RoundN == roundN {
				slot.Submission = &out.Rows[i]
				if out.Rows[i].Status != nil {
					slot.Label = string(*out.Rows[i].Status)
				}
				break
			}
		}
		out.Rounds = append(out.Rounds, slot)
	}
	return out, nil
}

// CoachReview returns the latest row per (learner, scene, round) for one
// scene. When sceneN is not among the stored scenes the smallest one is used.
func (s *SubmissionService) CoachReview(ctx context.Context, sceneN int) (*CoachReview, error) {
	all, err := s.submissions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	latest := latestPerKey(all)

	review := &CoachReview{
		Scenes: distinctScenes(latest),
		Rows:   []CoachRow{},
	}
	if len(review.Scenes) == 0 {
		review.Scenes = []int{1}
	}
	review.SelectedScene = review.Scenes[0]
	for _, n := range review.Scenes {
		if n == sceneN {
			review.SelectedScene = n
			break
		}
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, row := range latest {
		if row.SceneN != review.SelectedScene {
			continue
		}
		u := byID[row.UserID]
		review.Rows = append(review.Rows, CoachRow{Submission: row, LearnerEmail: u.Email, LearnerName: u.Name})
	}
	return review, nil
}

// SetCoachComment stores a coach comment and notifies the learner. A blank
// comment clears it. Notification failures are logged, not returned.
func (s *SubmissionService) SetCoachComment(ctx context.Context, id int64, comment string) (*models.Submission, error) {
	var value *string
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		if len([]rune(trimmed)) > maxCommentLength {
			return nil, ErrCommentTooLong
		}
		value = &trimmed
	}

	sub, err := s.submissions.UpdateCoachComment(ctx, id, value)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}

	if value != nil && s.email.IsEnabled() {
		s.notify(ctx, sub)
	}
	return sub, nil
}

func (s *SubmissionService) notify(ctx context.Context, sub *models.Submission) {
	user, err := s.users.GetUserByID(ctx, sub.UserID)
	if err != nil || user == nil {
		s.log.Warn("comment saved but learner not found", "submission_id", sub.ID, "error", err)
		return
	}
	if err := s.email.SendCoachCommentEmail(ctx, user.Email, user.Name, sub); err != nil {
		s.log.Warn("failed to send comment email", "submission_id", sub.ID, "error", err)
	}
}

// latestPerKey keeps the first row of each key from rows ordered newest
// first, then sorts by scene, round and id
func latestPerKey(rows []models.Submission) []models.Submission {
	seen := make(map[models.Key]bool, len(rows))
	out := make([]models.Submission, 0, len(rows))
	for _, row := range rows {
		if seen[row.Key()] {
			continue
		}
		seen[row.Key()] = true
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SceneN != out[j].SceneN {
			return out[i].SceneN < out[j].SceneN
		}
		if out[i].RoundN != out[j].RoundN {
			return out[i].RoundN < out[j].RoundN
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func distinctScenes(rows []models.Submission) []int {
	seen := make(map[int]bool)
	scenes := []int{}
	for _, row := range rows {
		if !seen[row.SceneN] {
			seen[row.SceneN] = true
			scenes = append(scenes, row.SceneN)
		}
	}
	sort.Ints(scenes)
	return scenes
}
