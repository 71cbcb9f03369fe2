// Package documentdb defines the document-collection client used by the
// data access layer.
//
// A collection holds JSON documents addressed by an id and an integer
// partition key. Point reads and deletes must supply the partition key the
// document was created with; a mismatch is reported as ErrNotFound.
//
// # Drivers
//
//	documentdb/
//	├── sqlite/   # gorm + sqlite, one documents table (default)
//	├── surreal/  # SurrealDB over websocket
//	└── memory/   # in-process maps, for tests and local development
//
// # Error Handling
//
// Drivers wrap classified failures in the sentinel errors below so callers
// can use errors.Is. Unclassified driver errors are returned unchanged.
//
//	doc, err := client.ReadDocument(ctx, coll, "s1", 100)
//	if errors.Is(err, documentdb.ErrNotFound) {
//	    // absent, or stored under another partition key
//	}
package documentdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DefaultMaxItemCount is the page size used when FeedOptions.MaxItemCount <= 0.
const DefaultMaxItemCount = 100

var (
	// ErrNotFound indicates the document does not exist under the given id and partition key.
	ErrNotFound = errors.New("document not found")

	// ErrConflict indicates a document with the same id already exists in the collection.
	ErrConflict = errors.New("document already exists")

	// ErrPartitionKeyMismatch indicates a replace tried to move a document to another partition.
	ErrPartitionKeyMismatch = errors.New("partition key mismatch")

	// ErrInvalidQuery indicates a malformed query, such as a non-identifier field name.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrConnection indicates a failure to reach or talk to the store.
	ErrConnection = errors.New("document store connection error")
)

// Document is the stored document handle returned by writes.
type Document struct {
	ID           string
	PartitionKey int
	ETag         string
	Timestamp    time.Time
	Body         json.RawMessage
}

// FeedOptions controls a query page.
type FeedOptions struct {
	// MaxItemCount bounds the page size; <= 0 selects DefaultMaxItemCount.
	MaxItemCount int
	// Continuation resumes a previous scan. Empty starts from the beginning.
	Continuation string
}

// PageSize resolves MaxItemCount to a usable limit.
func (o FeedOptions) PageSize() int {
	if o.MaxItemCount <= 0 {
		return DefaultMaxItemCount
	}
	return o.MaxItemCount
}

// FeedPage is one batch of query results.
type FeedPage struct {
	Documents []Document
	// Continuation is empty once the scan is exhausted.
	Continuation string
}

// HasMoreResults reports whether another page can be requested.
func (p *FeedPage) HasMoreResults() bool {
	return p != nil && p.Continuation != ""
}

// Client is the contract every driver implements. Implementations must be
// safe for concurrent use.
type Client interface {
	ReadDocument(ctx context.Context, coll Collection, id string, partitionKey int) (*Document, error)
	QueryDocuments(ctx context.Context, coll Collection, query Query, opts FeedOptions) (*FeedPage, error)
	CreateDocument(ctx context.Context, coll Collection, doc Document) (*Document, error)
	ReplaceDocument(ctx context.Context, coll Collection, id string, doc Document) (*Document, error)
	DeleteDocument(ctx context.Context, coll Collection, id string, partitionKey int) (*Document, error)

	Ping(ctx context.Context) error
	Close() error
}
