// Package repository provides the generic data access layer: five CRUD
// operations against one document collection, for any entity that can
// report its id and partition key.
//
// # Usage
//
//	students := repository.NewStudentRepository(client)
//	s, err := students.Get(ctx, "s1", 100) // s == nil when absent
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
)

// ErrInvalidArgument is returned before any store call when a required
// identifier is missing.
var ErrInvalidArgument = errors.New("invalid argument")

var errNoID = fmt.Errorf("%w: no student id specified", ErrInvalidArgument)

// listPageSize asks the store for its default page size on every batch.
const listPageSize = -1

// Entity is implemented by pointer types that can be stored as documents.
type Entity interface {
	DocumentID() string
	SetDocumentID(id string)
	PartitionKey() int
}

// entityPtr constrains PT to be *T and an Entity, so T can be decoded into.
type entityPtr[T any] interface {
	*T
	Entity
}

// Repository performs CRUD for entity type T on a fixed collection.
type Repository[T any, PT entityPtr[T]] struct {
	client   documentdb.Client
	coll     documentdb.Collection
	pageSize int
	newID    func() string
}

// New creates a repository for coll on the given client.
func New[T any, PT entityPtr[T]](client documentdb.Client, coll documentdb.Collection) *Repository[T, PT] {
	return &Repository[T, PT]{
		client:   client,
		coll:     coll,
		pageSize: listPageSize,
		newID:    uuid.NewString,
	}
}

// Collection returns the collection this repository addresses.
func (r *Repository[T, PT]) Collection() documentdb.Collection {
	return r.coll
}

// List returns every entity matching query, or every entity when query is
// nil. All pages are read before returning.
func (r *Repository[T, PT]) List(ctx context.Context, query *documentdb.Query) ([]T, error) {
	var q documentdb.Query
	if query != nil {
		q = *query
	}

	items := make([]T, 0)
	opts := documentdb.FeedOptions{MaxItemCount: r.pageSize}
	for {
		page, err := r.client.QueryDocuments(ctx, r.coll, q, opts)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", r.coll.Link(), err)
		}
		for _, doc := range page.Documents {
			item, err := decode[T](doc)
			if err != nil {
				return nil, err
			}
			items = append(items, *item)
		}
		if !page.HasMoreResults() {
			return items, nil
		}
		opts.Continuation = page.Continuation
	}
}

// Get returns the entity at id and partitionKey, or nil if there is none.
func (r *Repository[T, PT]) Get(ctx context.Context, id string, partitionKey int) (*T, error) {
	if id == "" {
		return nil, errNoID
	}

	doc, err := r.client.ReadDocument(ctx, r.coll, id, partitionKey)
	if err != nil {
		if errors.Is(err, documentdb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decode[T](*doc)
}

// Create inserts entity as a new document. An empty id is replaced with a
// generated one, written back into entity.
func (r *Repository[T, PT]) Create(ctx context.Context, entity PT) (*documentdb.Document, error) {
	if entity.DocumentID() == "" {
		entity.SetDocumentID(r.newID())
	}

	doc, err := encode(entity)
	if err != nil {
		return nil, err
	}
	return r.client.CreateDocument(ctx, r.coll, doc)
}

// Replace overwrites the whole document at id with entity. No concurrency
// token is checked; the last writer wins.
func (r *Repository[T, PT]) Replace(ctx context.Context, entity PT, id string) (*documentdb.Document, error) {
	if id == "" {
		return nil, errNoID
	}
	entity.SetDocumentID(id)

	doc, err := encode(entity)
	if err != nil {
		return nil, err
	}
	return r.client.ReplaceDocument(ctx, r.coll, id, doc)
}

// Delete removes the document at id and partitionKey.
func (r *Repository[T, PT]) Delete(ctx context.Context, id string, partitionKey int) (*documentdb.Document, error) {
	if id == "" {
		return nil, errNoID
	}
	return r.client.DeleteDocument(ctx, r.coll, id, partitionKey)
}

func encode(entity Entity) (documentdb.Document, error) {
	body, err := json.Marshal(entity)
	if err != nil {
		return documentdb.Document{}, fmt.Errorf("encode document %q: %w", entity.DocumentID(), err)
	}
	return documentdb.Document{
		ID:           entity.DocumentID(),
		PartitionKey: entity.PartitionKey(),
		Body:         body,
	}, nil
}

func decode[T any](doc documentdb.Document) (*T, error) {
	item := new(T)
	if err := json.Unmarshal(doc.Body, item); err != nil {
		return nil, fmt.Errorf("decode document %q: %w", doc.ID, err)
	}
	return item, nil
}
