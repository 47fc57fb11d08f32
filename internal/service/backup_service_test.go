package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/models"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
)

func newBackupService(t *testing.T) (*BackupService, *repository.UserRepository, *repository.SubmissionRepository) {
	t.Helper()
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	return NewBackupService(users, submissions, "sqlite", logger.Nop()), users, submissions
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, srcUsers, srcSubs := newBackupService(t)

	ann, err := srcUsers.CreateUser(ctx, "ann@example.com", "hash", "Ann")
	require.NoError(t, err)
	sub, err := srcSubs.Upsert(ctx, repository.UpsertParams{
		UserID: ann.ID, SceneN: 2, RoundN: 1, Sentence1: "one", Sentence2: "two", Status: models.StatusCorrect,
	})
	require.NoError(t, err)
	comment := "well done"
	_, err = srcSubs.UpdateCoachComment(ctx, sub.ID, &comment)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, src.Export(ctx, path))

	dst, dstUsers, dstSubs := newBackupService(t)
	stats, err := dst.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{UsersRestored: 1, SubmissionsRestored: 1}, *stats)

	restored, err := dstUsers.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, ann.ID, restored.ID)
	assert.Equal(t, "hash", restored.PasswordHash)

	row, err := dstSubs.GetByKey(ctx, models.Key{UserID: ann.ID, SceneN: 2, RoundN: 1})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.IsCorrect())
	assert.Equal(t, "well done", *row.CoachComment)

	stats, err = dst.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{UsersSkipped: 1, SubmissionsSkipped: 1}, *stats)
}

func TestExportEmptyDatabase(t *testing.T) {
	svc, _, _ := newBackupService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportToWriter(context.Background(), &buf))

	var data BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, backupVersion, data.Version)
	assert.Equal(t, "sqlite", data.DatabaseType)
	assert.NotNil(t, data.Users)
	assert.NotNil(t, data.Submissions)
	assert.Contains(t, buf.String(), `"submissions": []`)
}

func TestImportRejectsBadInput(t *testing.T) {
	svc, _, _ := newBackupService(t)

	_, err := svc.ImportFromReader(context.Background(), strings.NewReader("{not json"))
	assert.ErrorContains(t, err, "failed to decode backup")

	_, err = svc.ImportFromReader(context.Background(), strings.NewReader(`{"version":"9"}`))
	assert.ErrorContains(t, err, "unsupported backup version")
}
