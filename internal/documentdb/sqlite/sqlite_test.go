package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
)

var students = documentdb.NewCollection("cosmosuniversity", "student")

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "documents.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func doc(id string, pk int, extra string) documentdb.Document {
	body := fmt.Sprintf(`{"id":%q,"pk":%d%s}`, id, pk, extra)
	return documentdb.Document{ID: id, PartitionKey: pk, Body: json.RawMessage(body)}
}

func TestStore_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	created, err := store.CreateDocument(ctx, students, doc("s1", 100, `,"name":"Ada"`))
	require.NoError(t, err)
	assert.Equal(t, "s1", created.ID)
	assert.Equal(t, 100, created.PartitionKey)
	assert.NotEmpty(t, created.ETag)

	got, err := store.ReadDocument(ctx, students, "s1", 100)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","pk":100,"name":"Ada"}`, string(got.Body))
}

func TestStore_ReadNotFound(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	_, err := store.CreateDocument(ctx, students, doc("s1", 100, ""))
	require.NoError(t, err)

	_, err = store.ReadDocument(ctx, students, "s1", 200)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)

	_, err = store.ReadDocument(ctx, students, "s2", 100)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)

	other := documentdb.NewCollection("cosmosuniversity", "courses")
	_, err = store.ReadDocument(ctx, other, "s1", 100)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)
}

func TestStore_CreateConflict(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	_, err := store.CreateDocument(ctx, students, doc("s1", 100, ""))
	require.NoError(t, err)

	_, err = store.CreateDocument(ctx, students, doc("s1", 100, ""))
	assert.ErrorIs(t, err, documentdb.ErrConflict)

	// Same id in another collection is fine.
	_, err = store.CreateDocument(ctx, documentdb.NewCollection("cosmosuniversity", "alumni"), doc("s1", 100, ""))
	assert.NoError(t, err)
}

func TestStore_Replace(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	created, err := store.CreateDocument(ctx, students, doc("s1", 100, `,"name":"Ada"`))
	require.NoError(t, err)

	replaced, err := store.ReplaceDocument(ctx, students, "s1", doc("s1", 100, `,"name":"Ada L."`))
	require.NoError(t, err)
	assert.NotEqual(t, created.ETag, replaced.ETag)

	got, err := store.ReadDocument(ctx, students, "s1", 100)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","pk":100,"name":"Ada L."}`, string(got.Body))

	_, err = store.ReplaceDocument(ctx, students, "s1", doc("s1", 7, ""))
	assert.ErrorIs(t, err, documentdb.ErrPartitionKeyMismatch)

	_, err = store.ReplaceDocument(ctx, students, "ghost", doc("ghost", 100, ""))
	assert.ErrorIs(t, err, documentdb.ErrNotFound)
}

func TestStore_ConcurrentReplaceAndQuery(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	for _, id := range []string{"a", "b"} {
		_, err := store.CreateDocument(ctx, students, doc(id, 1, `,"name":"start"`))
		require.NoError(t, err)
	}

	const rounds = 50
	var wg sync.WaitGroup
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(writer int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				name := fmt.Sprintf(`,"name":"w%d-%d"`, writer, i)
				_, err := store.ReplaceDocument(ctx, students, "a", doc("a", 1, name))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			page, err := store.QueryDocuments(ctx, students, documentdb.Query{}, documentdb.FeedOptions{MaxItemCount: -1})
			if assert.NoError(t, err) {
				assert.Len(t, page.Documents, 2)
			}
		}
	}()
	wg.Wait()

	got, err := store.ReadDocument(ctx, students, "a", 1)
	require.NoError(t, err)
	var body struct{ Name string }
	require.NoError(t, json.Unmarshal(got.Body, &body))
	assert.Regexp(t, fmt.Sprintf(`^w[0-2]-%d$`, rounds-1), body.Name)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	_, err := store.CreateDocument(ctx, students, doc("s1", 100, ""))
	require.NoError(t, err)

	_, err = store.DeleteDocument(ctx, students, "s1", 1)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)

	deleted, err := store.DeleteDocument(ctx, students, "s1", 100)
	require.NoError(t, err)
	assert.Equal(t, "s1", deleted.ID)

	_, err = store.ReadDocument(ctx, students, "s1", 100)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)
}

func TestStore_QueryPagesThroughEverything(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	for i := 0; i < 7; i++ {
		_, err := store.CreateDocument(ctx, students, doc(fmt.Sprintf("s%d", i), 100+i, ""))
		require.NoError(t, err)
	}

	opts := documentdb.FeedOptions{MaxItemCount: 2}
	var ids []string
	pages := 0
	for {
		page, err := store.QueryDocuments(ctx, students, documentdb.Query{}, opts)
		require.NoError(t, err)
		pages++
		for _, d := range page.Documents {
			ids = append(ids, d.ID)
		}
		if !page.HasMoreResults() {
			break
		}
		opts.Continuation = page.Continuation
	}

	assert.Equal(t, 4, pages)
	assert.Equal(t, []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6"}, ids)
}

func TestStore_QueryFilter(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	_, _ = store.CreateDocument(ctx, students, doc("s1", 100, `,"major":"Math","enrollmentYear":2020`))
	_, _ = store.CreateDocument(ctx, students, doc("s2", 100, `,"major":"Art","enrollmentYear":2020`))
	_, _ = store.CreateDocument(ctx, students, doc("s3", 200, `,"major":"Math","enrollmentYear":2021`))

	page, err := store.QueryDocuments(ctx, students, documentdb.Where("major", "Math"), documentdb.FeedOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Documents, 2)

	page, err = store.QueryDocuments(ctx, students,
		documentdb.Where("major", "Math").And("enrollmentYear", 2021), documentdb.FeedOptions{})
	require.NoError(t, err)
	require.Len(t, page.Documents, 1)
	assert.Equal(t, "s3", page.Documents[0].ID)

	_, err = store.QueryDocuments(ctx, students, documentdb.Where("x) OR (1", 1), documentdb.FeedOptions{})
	assert.ErrorIs(t, err, documentdb.ErrInvalidQuery)
}

func TestStore_Ping(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
