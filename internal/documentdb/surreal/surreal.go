// Package surreal implements documentdb.Client on SurrealDB.
//
// Each collection is a SurrealDB table inside the database selected at
// connect time. A document is the record type::thing(<table>, <id>) with the
// fields:
//
//	doc_id  the document id
//	pk      partition key
//	data    decoded body, used for field filters
//	body    JSON text of the body, returned verbatim
//	etag    opaque write tag
//	ts      RFC 3339 write time
//	seq     insertion order, used for paging
//
// Queries page with START/LIMIT; the continuation token is the next offset.
package surreal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
)

// Config holds connection settings.
type Config struct {
	Endpoint  string // ws://host:port or wss://host:port
	User      string
	Password  string
	Namespace string
	Database  string
}

// record is the projection every statement returns.
type record struct {
	DocID string `json:"doc_id"`
	PK    int    `json:"pk"`
	Body  string `json:"body"`
	ETag  string `json:"etag"`
	TS    string `json:"ts"`
	Seq   int64  `json:"seq"`
}

type execFunc func(ctx context.Context, sql string, vars map[string]any) ([]record, error)

// Store is a documentdb.Client backed by SurrealDB.
type Store struct {
	db   *surrealdb.DB
	cfg  Config
	exec execFunc
	now  clock
}

// New creates a store; call Connect before use.
func New(cfg Config) *Store {
	s := &Store{cfg: cfg, now: systemClock}
	s.exec = s.run
	return s
}

// Connect opens the websocket, signs in and selects namespace and database.
func (s *Store) Connect(ctx context.Context) error {
	if s.cfg.Endpoint == "" {
		return fmt.Errorf("%w: no endpoint configured", documentdb.ErrConnection)
	}

	db, err := surrealdb.FromEndpointURLString(ctx, s.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", documentdb.ErrConnection, err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.cfg.User,
		Password: s.cfg.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", documentdb.ErrConnection, err)
	}

	if err := db.Use(ctx, s.cfg.Namespace, s.cfg.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", documentdb.ErrConnection, err)
	}

	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return documentdb.ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", documentdb.ErrConnection, err)
	}
	return nil
}

// run executes sql and flattens the records of every statement.
func (s *Store) run(ctx context.Context, sql string, vars map[string]any) ([]record, error) {
	if s.db == nil {
		return nil, documentdb.ErrConnection
	}

	results, err := surrealdb.Query[[]record](ctx, s.db, sql, vars)
	if err != nil {
		return nil, classify(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	var out []record
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, classify(r.Error.Message)
			}
			return nil, classify("statement status " + r.Status)
		}
		out = append(out, r.Result...)
	}
	return out, nil
}

func (s *Store) checkCollection(coll documentdb.Collection) error {
	if coll.Database != s.cfg.Database {
		return fmt.Errorf("collection %s is outside connected database %q", coll, s.cfg.Database)
	}
	if !isIdentifier(coll.Name) {
		return fmt.Errorf("%w: table %q", documentdb.ErrInvalidQuery, coll.Name)
	}
	return nil
}

func (s *Store) ReadDocument(ctx context.Context, coll documentdb.Collection, id string, partitionKey int) (*documentdb.Document, error) {
	if err := s.checkCollection(coll); err != nil {
		return nil, err
	}

	rows, err := s.exec(ctx, readStatement, map[string]any{
		"tb": coll.Name,
		"id": id,
		"pk": partitionKey,
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", coll.DocumentLink(id), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
	}
	return rows[0].toDocument()
}

func (s *Store) QueryDocuments(ctx context.Context, coll documentdb.Collection, query documentdb.Query, opts documentdb.FeedOptions) (*documentdb.FeedPage, error) {
	if err := s.checkCollection(coll); err != nil {
		return nil, err
	}

	start, err := parseContinuation(opts.Continuation)
	if err != nil {
		return nil, err
	}
	limit := opts.PageSize()

	sql, vars, err := buildQuery(coll.Name, query, start, limit+1)
	if err != nil {
		return nil, err
	}

	rows, err := s.exec(ctx, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", coll.Link(), err)
	}

	page := &documentdb.FeedPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		page.Continuation = formatContinuation(start + limit)
	}
	page.Documents = make([]documentdb.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		page.Documents = append(page.Documents, *doc)
	}
	return page, nil
}

func (s *Store) CreateDocument(ctx context.Context, coll documentdb.Collection, doc documentdb.Document) (*documentdb.Document, error) {
	if err := s.checkCollection(coll); err != nil {
		return nil, err
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("create document in %s: empty id", coll.Link())
	}

	now := s.now()
	row := record{
		DocID: doc.ID,
		PK:    doc.PartitionKey,
		Body:  string(doc.Body),
		ETag:  documentdb.NewETag(),
		TS:    now.Format(timeLayout),
		Seq:   now.UnixNano(),
	}
	vars, err := row.contentVars(coll.Name)
	if err != nil {
		return nil, err
	}

	if _, err := s.exec(ctx, createStatement, vars); err != nil {
		return nil, fmt.Errorf("create %s: %w", coll.DocumentLink(doc.ID), err)
	}
	return row.toDocument()
}

func (s *Store) ReplaceDocument(ctx context.Context, coll documentdb.Collection, id string, doc documentdb.Document) (*documentdb.Document, error) {
	if err := s.checkCollection(coll); err != nil {
		return nil, err
	}

	row := record{
		DocID: id,
		PK:    doc.PartitionKey,
		Body:  string(doc.Body),
		ETag:  documentdb.NewETag(),
		TS:    s.now().Format(timeLayout),
	}
	vars, err := row.contentVars(coll.Name)
	if err != nil {
		return nil, err
	}
	delete(vars, "seq")

	rows, err := s.exec(ctx, replaceStatement, vars)
	if err != nil {
		return nil, fmt.Errorf("replace %s: %w", coll.DocumentLink(id), err)
	}
	if len(rows) > 0 {
		return rows[0].toDocument()
	}

	// Nothing matched: tell a missing record from one in another partition.
	existing, err := s.exec(ctx, lookupStatement, map[string]any{"tb": coll.Name, "id": id})
	if err != nil {
		return nil, fmt.Errorf("replace %s: %w", coll.DocumentLink(id), err)
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
	}
	return nil, fmt.Errorf("%w: %s stored under %d, got %d",
		documentdb.ErrPartitionKeyMismatch, coll.DocumentLink(id), existing[0].PK, doc.PartitionKey)
}

func (s *Store) DeleteDocument(ctx context.Context, coll documentdb.Collection, id string, partitionKey int) (*documentdb.Document, error) {
	if err := s.checkCollection(coll); err != nil {
		return nil, err
	}

	rows, err := s.exec(ctx, deleteStatement, map[string]any{
		"tb": coll.Name,
		"id": id,
		"pk": partitionKey,
	})
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", coll.DocumentLink(id), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
	}
	return rows[0].toDocument()
}

// contentVars binds the record fields for CREATE/UPDATE CONTENT.
func (r record) contentVars(table string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(r.Body), &data); err != nil {
		return nil, fmt.Errorf("document %q body is not a JSON object: %w", r.DocID, err)
	}
	return map[string]any{
		"tb":   table,
		"id":   r.DocID,
		"pk":   r.PK,
		"data": data,
		"body": r.Body,
		"etag": r.ETag,
		"ts":   r.TS,
		"seq":  r.Seq,
	}, nil
}

func (r record) toDocument() (*documentdb.Document, error) {
	ts, err := parseTimestamp(r.TS)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", r.DocID, err)
	}
	return &documentdb.Document{
		ID:           r.DocID,
		PartitionKey: r.PK,
		ETag:         r.ETag,
		Timestamp:    ts,
		Body:         json.RawMessage(r.Body),
	}, nil
}

// classify maps a SurrealDB error message onto the documentdb sentinels.
func classify(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already exists"),
		strings.Contains(lower, "duplicate"),
		strings.Contains(lower, "unique"):
		return fmt.Errorf("%w: %s", documentdb.ErrConflict, msg)
	case strings.Contains(lower, "connection"),
		strings.Contains(lower, "websocket"),
		strings.Contains(lower, "broken pipe"):
		return fmt.Errorf("%w: %s", documentdb.ErrConnection, msg)
	default:
		return fmt.Errorf("surrealdb: %s", msg)
	}
}

var _ documentdb.Client = (*Store)(nil)
