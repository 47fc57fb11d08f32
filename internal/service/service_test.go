package service

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/require"

	"github.com/annetmii/annetmii-english-camp/internal/content"
	"github.com/annetmii/annetmii-english-camp/internal/database"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "camp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.RunMigrations(context.Background())
	require.NoError(t, err)
	return db
}

func defaultCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	catalog, err := content.Default()
	require.NoError(t, err)
	return catalog
}

type fakeResolver struct {
	scene int
	calls atomic.Int32
}

func (f *fakeResolver) ComputeCurrentScene(context.Context, string) int {
	f.calls.Add(1)
	return f.scene
}

type fakeSES struct {
	mu   sync.Mutex
	sent []*sesv2.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func (f *fakeSES) messages() []*sesv2.SendEmailInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*sesv2.SendEmailInput(nil), f.sent...)
}

func newTestEmail(client sesAPI) *EmailService {
	return newEmailService(client, "camp@example.com", "English Camp", "https://camp.example.com/", logger.Nop())
}
