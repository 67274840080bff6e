package engine

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/campfirehq/campfire/internal/classifier"
	"github.com/campfirehq/campfire/internal/models"
)

// memStore is an in-memory blob store for tests
type memStore struct {
	blobs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Put(ctx context.Context, key string, data []byte) error {
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	return data, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

// stubClassifier returns a fixed verdict or error
type stubClassifier struct {
	verdict classifier.Verdict
	err     error
}

func (s *stubClassifier) Classify(ctx context.Context, message string) (classifier.Verdict, error) {
	return s.verdict, s.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A single connection keeps every session on the same in-memory db
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = database.AutoMigrate(
		&models.Community{},
		&models.Membership{},
		&models.Cohort{},
		&models.CohortMember{},
		&models.Space{},
		&models.SpaceMember{},
		&models.Post{},
		&models.Attachment{},
		&models.Reply{},
		&models.LikeRelation{},
		&models.SaveRelation{},
		&models.Report{},
		&models.Resource{},
		&models.Event{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return database
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	database := newTestDB(t)
	eng := New(database, newMemStore(), nil, Options{
		MaxUploadSize: 1 << 20,
		FeedPageSize:  20,
		FeedMaxSize:   100,
	})
	return eng, database
}

// seedCommunity creates a community owned by adminID and adds the given
// users as plain members
func seedCommunity(t *testing.T, eng *Engine, adminID int64, memberIDs ...int64) *models.Community {
	t.Helper()
	ctx := context.Background()
	community, err := eng.Content.CreateCommunity(ctx, adminID, fmt.Sprintf("community-%s", t.Name()), "test community")
	if err != nil {
		t.Fatalf("failed to seed community: %v", err)
	}
	for _, id := range memberIDs {
		if err := eng.Registry.AddMember(ctx, adminID, community.ID, id, models.RoleMember); err != nil {
			t.Fatalf("failed to seed member %d: %v", id, err)
		}
	}
	return community
}

func seedPost(t *testing.T, eng *Engine, authorID, communityID int64) *models.Post {
	t.Helper()
	post, err := eng.Content.CreatePost(context.Background(), authorID, communityID, nil, "subject", "message body", nil)
	if err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return post
}
