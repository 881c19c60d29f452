//go:build integration
// +build integration

package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/types"
)

func setupTestDB(t *testing.T) *DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestSettings_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	culture := "xx-" + uuid.NewString()[:8]
	_, err := db.Load(ctx, culture)
	assert.True(t, errors.Is(err, settings.ErrNotFound))

	stored := []types.StoredSetting{{Alias: "runOnSave", Label: "Run on save", Tab: types.GeneralTab, Value: "0"}}
	require.NoError(t, db.Save(ctx, culture, stored))

	loaded, err := db.Load(ctx, culture)
	require.NoError(t, err)
	assert.Equal(t, stored, loaded)

	stored[0].Value = "1"
	require.NoError(t, db.Save(ctx, culture, stored))
	loaded, err = db.Load(ctx, culture)
	require.NoError(t, err)
	assert.Equal(t, "1", loaded[0].Value)

	cultures, err := db.Cultures(ctx)
	require.NoError(t, err)
	assert.Contains(t, cultures, culture)
}

func TestDocuments_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	id := int(time.Now().UnixNano() % 1_000_000_000)
	doc := &content.Document{
		ID:          id,
		Name:        "Integration",
		ContentType: "article",
		Properties: []content.Property{{
			Alias:  "title",
			Name:   "Title",
			Editor: types.EditorPlainText,
			Values: []content.PropertyValue{{Culture: "en-US", Published: "Hello"}},
		}},
	}
	require.NoError(t, db.SaveDocument(ctx, doc))
	defer db.DeleteDocument(ctx, id)

	loaded, err := db.Document(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "article", loaded.ContentType)
	value, err := loaded.Properties[0].Value("en-US")
	require.NoError(t, err)
	assert.Equal(t, "Hello", value)

	require.NoError(t, db.DeleteDocument(ctx, id))
	_, err = db.Document(ctx, id)
	assert.True(t, errors.Is(err, content.ErrDocumentNotFound))
}

func TestCheckRuns_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	docID := int(time.Now().UnixNano() % 1_000_000_000)
	first := CheckRun{ID: uuid.New(), DocumentID: docID, Culture: "en-US", Failed: true, Message: "No settings exist for English"}
	require.NoError(t, db.RecordRun(ctx, first))
	second := CheckRun{ID: uuid.New(), DocumentID: docID, Culture: "en-US", Mode: ModePartial}
	require.NoError(t, db.RecordRun(ctx, second))

	runs, err := db.ListRuns(ctx, docID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, ModeFull, runs[1].Mode)
	assert.True(t, runs[1].Failed)
}
