package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/annetmii/annetmii-english-camp/internal/database"
	"github.com/annetmii/annetmii-english-camp/internal/models"
)

// ErrSubmissionNotFound is returned when a submission id does not exist
var ErrSubmissionNotFound = errors.New("submission not found")

const submissionColumns = `id, user_id, scene_n, round_n, status, sentence1_built, sentence2_built,
	coach_comment, created_at, updated_at`

// SubmissionRepository handles database operations for submissions
type SubmissionRepository struct {
	db *database.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *database.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// UpsertParams are the learner-owned columns of a submission
type UpsertParams struct {
	UserID    string
	SceneN    int
	RoundN    int
	Sentence1 string
	Sentence2 string
	Status    models.Status
}

func (p UpsertParams) validate() error {
	if p.UserID == "" {
		return errors.New("user id is required")
	}
	if p.SceneN < 1 {
		return fmt.Errorf("invalid scene %d", p.SceneN)
	}
	if p.RoundN < 1 || p.RoundN > 3 {
		return fmt.Errorf("invalid round %d", p.RoundN)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	return nil
}

// Upsert inserts or overwrites the row for (user, scene, round) and returns
// it as stored. Only the sentences, status and updated_at are written on
// conflict, so an existing coach comment is kept.
func (r *SubmissionRepository) Upsert(ctx context.Context, p UpsertParams) (*models.Submission, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var saved *models.Submission
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := tx.GetDialect().UpsertSubmissionQuery()
		if _, err := tx.ExecContext(ctx, query, p.UserID, p.SceneN, p.RoundN, string(p.Status), p.Sentence1, p.Sentence2); err != nil {
			return fmt.Errorf("failed to upsert submission: %w", err)
		}

		sub, err := getByKey(ctx, tx, models.Key{UserID: p.UserID, SceneN: p.SceneN, RoundN: p.RoundN})
		if err != nil {
			return err
		}
		if sub == nil {
			return errors.New("upserted submission not readable")
		}
		saved = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// GetByKey returns the row for a key, or nil when the round was never submitted
func (r *SubmissionRepository) GetByKey(ctx context.Context, key models.Key) (*models.Submission, error) {
	return getByKey(ctx, r.db, key)
}

func getByKey(ctx context.Context, q database.DBTX, key models.Key) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE user_id = ? AND scene_n = ? AND round_n = ?`

	sub, err := scanSubmission(q.QueryRowContext(ctx, query, key.UserID, key.SceneN, key.RoundN))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// GetByID retrieves a submission by its store id
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ?`

	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// ListByUser returns a learner's rows ordered by scene, round, newest first
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		WHERE user_id = ?
		ORDER BY scene_n ASC, round_n ASC, created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

// ListAll returns every row, newest first
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM submissions
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query)
}

func (r *SubmissionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return subs, nil
}

// HasAnySubmission reports whether a learner has at least one row
func (r *SubmissionRepository) HasAnySubmission(ctx context.Context, userID string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM submissions WHERE user_id = ? LIMIT 1", userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check submissions: %w", err)
	}
	return true, nil
}

// SubmittedRounds lists the round numbers a learner has rows for in a scene
func (r *SubmissionRepository) SubmittedRounds(ctx context.Context, userID string, sceneN int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT round_n FROM submissions WHERE user_id = ? AND scene_n = ? ORDER BY round_n", userID, sceneN)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, n)
	}
	return rounds, rows.Err()
}

// UpdateCoachComment sets or clears (nil) the comment of a row and returns it
func (r *SubmissionRepository) UpdateCoachComment(ctx context.Context, id int64, comment *string) (*models.Submission, error) {
	// RowsAffected is not used to detect a missing row: MySQL reports zero
	// when the new value equals the old one.
	if _, err := r.db.ExecContext(ctx, "UPDATE submissions SET coach_comment = ? WHERE id = ?", nullString(comment), id); err != nil {
		return nil, fmt.Errorf("failed to update coach comment: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Restore inserts a row from a backup unless its key already exists.
// It reports whether the row was inserted.
func (r *SubmissionRepository) Restore(ctx context.Context, sub models.Submission) (bool, error) {
	inserted := false
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		existing, err := getByKey(ctx, tx, sub.Key())
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		var status interface{}
		if sub.Status != nil {
			status = string(*sub.Status)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO submissions (user_id, scene_n, round_n, status, sentence1_built, sentence2_built,
				coach_comment, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sub.UserID, sub.SceneN, sub.RoundN, status,
			nullString(sub.Sentence1Built), nullString(sub.Sentence2Built), nullString(sub.CoachComment),
			sub.CreatedAt.UTC(), sub.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to restore submission: %w", err)
		}
		inserted = true
		return nil
	})
	return inserted, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		sub                  models.Submission
		status               sql.NullString
		s1, s2, comment      sql.NullString
		createdAt, updatedAt sql.NullTime
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.SceneN, &sub.RoundN, &status, &s1, &s2,
		&comment, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if status.Valid {
		st := models.Status(status.String)
		sub.Status = &st
	}
	sub.Sentence1Built = stringPtr(s1)
	sub.Sentence2Built = stringPtr(s2)
	sub.CoachComment = stringPtr(comment)
	sub.CreatedAt = createdAt.Time
	sub.UpdatedAt = updatedAt.Time
	return &sub, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
