// Package memory provides an in-process documentdb.Client.
//
// Documents are kept per collection in insertion order; the continuation
// token of a query page is the sequence number of its last document.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
)

type record struct {
	seq uint64
	doc documentdb.Document
}

// Store is a documentdb.Client backed by maps.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*record
	seq         uint64
	now         func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]*record),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) ReadDocument(ctx context.Context, coll documentdb.Collection, id string, partitionKey int) (*documentdb.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[coll.String()][id]
	if !ok || rec.doc.PartitionKey != partitionKey {
		return nil, fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
	}
	return clone(rec.doc), nil
}

func (s *Store) QueryDocuments(ctx context.Context, coll documentdb.Collection, query documentdb.Query, opts documentdb.FeedOptions) (*documentdb.FeedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var after uint64
	if opts.Continuation != "" {
		parsed, err := strconv.ParseUint(opts.Continuation, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad continuation %q", documentdb.ErrInvalidQuery, opts.Continuation)
		}
		after = parsed
	}

	// Matches are copied under the lock; replaces rewrite records in place.
	s.mu.RLock()
	matched := make([]record, 0)
	for _, rec := range s.collections[coll.String()] {
		if rec.seq > after && query.Matches(rec.doc.Body) {
			matched = append(matched, record{seq: rec.seq, doc: *clone(rec.doc)})
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	limit := opts.PageSize()
	page := &documentdb.FeedPage{Documents: make([]documentdb.Document, 0, min(limit, len(matched)))}
	for i, rec := range matched {
		if i == limit {
			page.Continuation = strconv.FormatUint(matched[i-1].seq, 10)
			break
		}
		page.Documents = append(page.Documents, rec.doc)
	}
	return page, nil
}

func (s *Store) CreateDocument(ctx context.Context, coll documentdb.Collection, doc documentdb.Document) (*documentdb.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("create document in %s: empty id", coll)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[coll.String()]
	if docs == nil {
		docs = make(map[string]*record)
		s.collections[coll.String()] = docs
	}
	if _, exists := docs[doc.ID]; exists {
		return nil, fmt.Errorf("%w: %s", documentdb.ErrConflict, coll.DocumentLink(doc.ID))
	}

	s.seq++
	stored := s.stamp(doc)
	docs[doc.ID] = &record{seq: s.seq, doc: stored}
	return clone(stored), nil
}

func (s *Store) ReplaceDocument(ctx context.Context, coll documentdb.Collection, id string, doc documentdb.Document) (*documentdb.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[coll.String()][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
	}
	if rec.doc.PartitionKey != doc.PartitionKey {
		return nil, fmt.Errorf("%w: %s stored under %d, got %d",
			documentdb.ErrPartitionKeyMismatch, coll.DocumentLink(id), rec.doc.PartitionKey, doc.PartitionKey)
	}

	doc.ID = id
	rec.doc = s.stamp(doc)
	return clone(rec.doc), nil
}

func (s *Store) DeleteDocument(ctx context.Context, coll documentdb.Collection, id string, partitionKey int) (*documentdb.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[coll.String()]
	rec, ok := docs[id]
	if !ok || rec.doc.PartitionKey != partitionKey {
		return nil, fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
	}
	delete(docs, id)
	return clone(rec.doc), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// Len returns the number of documents in a collection.
func (s *Store) Len(coll documentdb.Collection) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[coll.String()])
}

func (s *Store) stamp(doc documentdb.Document) documentdb.Document {
	doc.ETag = documentdb.NewETag()
	doc.Timestamp = s.now()
	doc.Body = append([]byte(nil), doc.Body...)
	return doc
}

func clone(doc documentdb.Document) *documentdb.Document {
	doc.Body = append([]byte(nil), doc.Body...)
	return &doc
}

var _ documentdb.Client = (*Store)(nil)
