package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/models"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string              `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	DatabaseType string              `json:"database_type"`
	Users        []UserBackup        `json:"users"`
	Submissions  []models.Submission `json:"submissions"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ImportStats counts restored and skipped rows
type ImportStats struct {
	UsersRestored       int
	UsersSkipped        int
	SubmissionsRestored int
	SubmissionsSkipped  int
}

// BackupService handles database backup and restore operations
type BackupService struct {
	users        *repository.UserRepository
	submissions  *repository.SubmissionRepository
	databaseType string
	log          *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(users *repository.UserRepository, submissions *repository.SubmissionRepository, databaseType string, log *logger.Logger) *BackupService {
	return &BackupService{
		users:        users,
		submissions:  submissions,
		databaseType: databaseType,
		log:          log.With("service", "BackupService"),
	}
}

// Export writes a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	s.log.Info("database exported", "path", outputPath)
	return nil
}

// ExportToWriter exports the database to an io.Writer
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.databaseType,
		Users:        []UserBackup{},
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})
	}

	backup.Submissions, err = s.submissions.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to export submissions: %w", err)
	}
	if backup.Submissions == nil {
		backup.Submissions = []models.Submission{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("export complete", "users", len(backup.Users), "submissions", len(backup.Submissions))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) (*ImportStats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup. Users and submissions that already
// exist are skipped, so importing the same file twice is harmless.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) (*ImportStats, error) {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.log.Info("importing backup", "exported_at", backup.ExportedAt, "source", backup.DatabaseType)

	stats := &ImportStats{}
	for _, u := range backup.Users {
		inserted, err := s.users.RestoreUser(ctx, models.User{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})
		if err != nil {
			return stats, fmt.Errorf("failed to import user %s: %w", u.ID, err)
		}
		if inserted {
			stats.UsersRestored++
		} else {
			stats.UsersSkipped++
		}
	}

	for _, sub := range backup.Submissions {
		inserted, err := s.submissions.Restore(ctx, sub)
		if err != nil {
			return stats, fmt.Errorf("failed to import submission %d: %w", sub.ID, err)
		}
		if inserted {
			stats.SubmissionsRestored++
		} else {
			stats.SubmissionsSkipped++
		}
	}

	s.log.Info("import complete",
		"users_restored", stats.UsersRestored, "users_skipped", stats.UsersSkipped,
		"submissions_restored", stats.SubmissionsRestored, "submissions_skipped", stats.SubmissionsSkipped)
	return stats, nil
}
