package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
)

var students = documentdb.NewCollection("cosmosuniversity", "student")

func doc(id string, pk int, extra string) documentdb.Document {
	body := fmt.Sprintf(`{"id":%q,"pk":%d%s}`, id, pk, extra)
	return documentdb.Document{ID: id, PartitionKey: pk, Body: json.RawMessage(body)}
}

func TestStore_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	store := New()

	created, err := store.CreateDocument(ctx, students, doc("s1", 100, `,"name":"Ada"`))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ETag)
	assert.False(t, created.Timestamp.IsZero())

	got, err := store.ReadDocument(ctx, students, "s1", 100)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","pk":100,"name":"Ada"}`, string(got.Body))
	assert.Equal(t, created.ETag, got.ETag)
}

func TestStore_ReadWrongPartition(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, err := store.CreateDocument(ctx, students, doc("s1", 100, ""))
	require.NoError(t, err)

	_, err = store.ReadDocument(ctx, students, "s1", 101)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)

	_, err = store.ReadDocument(ctx, students, "nope", 100)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)
}

func TestStore_CreateConflict(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, err := store.CreateDocument(ctx, students, doc("s1", 100, ""))
	require.NoError(t, err)

	_, err = store.CreateDocument(ctx, students, doc("s1", 200, ""))
	assert.ErrorIs(t, err, documentdb.ErrConflict)
}

func TestStore_Replace(t *testing.T) {
	ctx := context.Background()
	store := New()
	created, err := store.CreateDocument(ctx, students, doc("s1", 100, `,"name":"Ada"`))
	require.NoError(t, err)

	replaced, err := store.ReplaceDocument(ctx, students, "s1", doc("s1", 100, `,"name":"Ada L."`))
	require.NoError(t, err)
	assert.NotEqual(t, created.ETag, replaced.ETag)

	got, err := store.ReadDocument(ctx, students, "s1", 100)
	require.NoError(t, err)
	assert.Contains(t, string(got.Body), "Ada L.")

	_, err = store.ReplaceDocument(ctx, students, "s1", doc("s1", 999, ""))
	assert.ErrorIs(t, err, documentdb.ErrPartitionKeyMismatch)

	_, err = store.ReplaceDocument(ctx, students, "missing", doc("missing", 100, ""))
	assert.ErrorIs(t, err, documentdb.ErrNotFound)
}

func TestStore_ConcurrentReplaceAndQuery(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, id := range []string{"a", "b", "c"} {
		_, err := store.CreateDocument(ctx, students, doc(id, 1, `,"name":"start"`))
		require.NoError(t, err)
	}

	const rounds = 500
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
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
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			page, err := store.QueryDocuments(ctx, students, documentdb.Query{}, documentdb.FeedOptions{MaxItemCount: -1})
			if assert.NoError(t, err) {
				assert.Len(t, page.Documents, 3)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := store.ReadDocument(ctx, students, "a", 1)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	got, err := store.ReadDocument(ctx, students, "a", 1)
	require.NoError(t, err)
	var body struct{ Name string }
	require.NoError(t, json.Unmarshal(got.Body, &body))
	assert.Contains(t, []string{fmt.Sprintf("w0-%d", rounds-1), fmt.Sprintf("w1-%d", rounds-1)}, body.Name)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, err := store.CreateDocument(ctx, students, doc("s1", 100, ""))
	require.NoError(t, err)

	_, err = store.DeleteDocument(ctx, students, "s1", 5)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)

	deleted, err := store.DeleteDocument(ctx, students, "s1", 100)
	require.NoError(t, err)
	assert.Equal(t, "s1", deleted.ID)
	assert.Equal(t, 0, store.Len(students))

	_, err = store.DeleteDocument(ctx, students, "s1", 100)
	assert.ErrorIs(t, err, documentdb.ErrNotFound)
}

func TestStore_QueryPagination(t *testing.T) {
	ctx := context.Background()
	store := New()
	for i := 0; i < 7; i++ {
		_, err := store.CreateDocument(ctx, students, doc(fmt.Sprintf("s%d", i), i%2, ""))
		require.NoError(t, err)
	}

	var ids []string
	opts := documentdb.FeedOptions{MaxItemCount: 3}
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

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"s0", "s1", "s2", "s3", "s4", "s5", "s6"}, ids)
}

func TestStore_QueryExactPageHasNoContinuation(t *testing.T) {
	ctx := context.Background()
	store := New()
	for i := 0; i < 2; i++ {
		_, err := store.CreateDocument(ctx, students, doc(fmt.Sprintf("s%d", i), 1, ""))
		require.NoError(t, err)
	}

	page, err := store.QueryDocuments(ctx, students, documentdb.Query{}, documentdb.FeedOptions{MaxItemCount: 2})
	require.NoError(t, err)
	assert.Len(t, page.Documents, 2)
	assert.False(t, page.HasMoreResults())
}

func TestStore_QueryFilter(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, _ = store.CreateDocument(ctx, students, doc("s1", 1, `,"major":"Math"`))
	_, _ = store.CreateDocument(ctx, students, doc("s2", 1, `,"major":"Art"`))
	_, _ = store.CreateDocument(ctx, students, doc("s3", 2, `,"major":"Math"`))

	page, err := store.QueryDocuments(ctx, students, documentdb.Where("major", "Math"), documentdb.FeedOptions{})
	require.NoError(t, err)
	require.Len(t, page.Documents, 2)
	assert.Equal(t, "s1", page.Documents[0].ID)
	assert.Equal(t, "s3", page.Documents[1].ID)

	_, err = store.QueryDocuments(ctx, students, documentdb.Where("bad field", 1), documentdb.FeedOptions{})
	assert.ErrorIs(t, err, documentdb.ErrInvalidQuery)

	_, err = store.QueryDocuments(ctx, students, documentdb.Query{}, documentdb.FeedOptions{Continuation: "x"})
	assert.ErrorIs(t, err, documentdb.ErrInvalidQuery)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ReadDocument(ctx, students, "s1", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
