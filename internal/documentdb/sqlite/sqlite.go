// Package sqlite implements documentdb.Client on a single gorm-managed
// sqlite table.
//
// Every collection shares the documents table; rows are addressed by
// (db_name, coll_name, doc_id). Queries page in insertion order and use the
// last row's seq as the continuation token. Field filters are evaluated
// with json_extract against the stored body.
//
// # Usage
//
//	store, err := sqlite.Open("./student-records.db", logger.Silent)
//	doc, err := store.ReadDocument(ctx, coll, "s1", 100)
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
)

// documentRow is the persisted form of one document.
type documentRow struct {
	Seq          uint64    `gorm:"primaryKey;autoIncrement"`
	DBName       string    `gorm:"column:db_name;size:255;not null;uniqueIndex:idx_documents_link,priority:1"`
	CollName     string    `gorm:"column:coll_name;size:255;not null;uniqueIndex:idx_documents_link,priority:2"`
	DocID        string    `gorm:"column:doc_id;size:255;not null;uniqueIndex:idx_documents_link,priority:3"`
	PartitionKey int       `gorm:"column:partition_key;not null;index"`
	Body         string    `gorm:"type:text;not null"`
	ETag         string    `gorm:"column:etag;size:64;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (documentRow) TableName() string {
	return "documents"
}

func (r *documentRow) toDocument() *documentdb.Document {
	return &documentdb.Document{
		ID:           r.DocID,
		PartitionKey: r.PartitionKey,
		ETag:         r.ETag,
		Timestamp:    r.UpdatedAt.UTC(),
		Body:         []byte(r.Body),
	}
}

// Store is a documentdb.Client backed by sqlite.
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite file at path and migrates the documents table.
func Open(path string, level logger.LogLevel) (*Store, error) {
	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", documentdb.ErrConnection, path, err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the documents table.
func New(db *gorm.DB) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", documentdb.ErrConnection, err)
	}
	// sqlite allows one writer; a single connection keeps concurrent
	// read-then-write transactions from failing with SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying connection, e.g. for a session store.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) scoped(ctx context.Context, coll documentdb.Collection) *gorm.DB {
	return s.db.WithContext(ctx).Model(&documentRow{}).
		Where("db_name = ? AND coll_name = ?", coll.Database, coll.Name)
}

func (s *Store) ReadDocument(ctx context.Context, coll documentdb.Collection, id string, partitionKey int) (*documentdb.Document, error) {
	var row documentRow
	err := s.scoped(ctx, coll).
		Where("doc_id = ? AND partition_key = ?", id, partitionKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
		}
		return nil, fmt.Errorf("read %s: %w", coll.DocumentLink(id), err)
	}
	return row.toDocument(), nil
}

func (s *Store) QueryDocuments(ctx context.Context, coll documentdb.Collection, query documentdb.Query, opts documentdb.FeedOptions) (*documentdb.FeedPage, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	tx := s.scoped(ctx, coll)
	if opts.Continuation != "" {
		after, err := strconv.ParseUint(opts.Continuation, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad continuation %q", documentdb.ErrInvalidQuery, opts.Continuation)
		}
		tx = tx.Where("seq > ?", after)
	}
	for _, cond := range query.Conditions {
		tx = tx.Where("json_extract(body, ?) = ?", "$."+cond.Field, cond.Value)
	}

	limit := opts.PageSize()
	var rows []documentRow
	// One extra row tells us whether another page exists.
	if err := tx.Order("seq ASC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", coll.Link(), err)
	}

	page := &documentdb.FeedPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		page.Continuation = strconv.FormatUint(rows[limit-1].Seq, 10)
	}
	page.Documents = make([]documentdb.Document, 0, len(rows))
	for i := range rows {
		page.Documents = append(page.Documents, *rows[i].toDocument())
	}
	return page, nil
}

func (s *Store) CreateDocument(ctx context.Context, coll documentdb.Collection, doc documentdb.Document) (*documentdb.Document, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("create document in %s: empty id", coll.Link())
	}

	row := documentRow{
		DBName:       coll.Database,
		CollName:     coll.Name,
		DocID:        doc.ID,
		PartitionKey: doc.PartitionKey,
		Body:         string(doc.Body),
		ETag:         documentdb.NewETag(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", documentdb.ErrConflict, coll.DocumentLink(doc.ID))
		}
		return nil, fmt.Errorf("create %s: %w", coll.DocumentLink(doc.ID), err)
	}
	return row.toDocument(), nil
}

func (s *Store) ReplaceDocument(ctx context.Context, coll documentdb.Collection, id string, doc documentdb.Document) (*documentdb.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("db_name = ? AND coll_name = ? AND doc_id = ?", coll.Database, coll.Name, id).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
		}
		if err != nil {
			return err
		}
		if row.PartitionKey != doc.PartitionKey {
			return fmt.Errorf("%w: %s stored under %d, got %d",
				documentdb.ErrPartitionKeyMismatch, coll.DocumentLink(id), row.PartitionKey, doc.PartitionKey)
		}

		row.Body = string(doc.Body)
		row.ETag = documentdb.NewETag()
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, wrapUnclassified("replace", coll.DocumentLink(id), err)
	}
	return row.toDocument(), nil
}

func (s *Store) DeleteDocument(ctx context.Context, coll documentdb.Collection, id string, partitionKey int) (*documentdb.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("db_name = ? AND coll_name = ? AND doc_id = ? AND partition_key = ?",
			coll.Database, coll.Name, id, partitionKey).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", documentdb.ErrNotFound, coll.DocumentLink(id))
		}
		if err != nil {
			return err
		}
		return tx.Delete(&documentRow{}, row.Seq).Error
	})
	if err != nil {
		return nil, wrapUnclassified("delete", coll.DocumentLink(id), err)
	}
	return row.toDocument(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", documentdb.ErrConnection, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", documentdb.ErrConnection, err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueViolation reports whether err is a sqlite unique or primary key violation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func wrapUnclassified(op, link string, err error) error {
	if errors.Is(err, documentdb.ErrNotFound) || errors.Is(err, documentdb.ErrPartitionKeyMismatch) {
		return err
	}
	return fmt.Errorf("%s %s: %w", op, link, err)
}

var _ documentdb.Client = (*Store)(nil)
