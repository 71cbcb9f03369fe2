package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/cosmosuniversity/studentrecords/internal/cli"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb/memory"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb/sqlite"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb/surreal"
	"github.com/cosmosuniversity/studentrecords/internal/entities"
	"github.com/cosmosuniversity/studentrecords/internal/http"
	"github.com/cosmosuniversity/studentrecords/internal/repository"
)

// =============================================================================
// Document Store Drivers
// =============================================================================

var _ documentdb.Client = (*sqlite.Store)(nil)
var _ documentdb.Client = (*surreal.Store)(nil)
var _ documentdb.Client = (*memory.Store)(nil)

// Health checks ping the client directly
var _ http.Pinger = documentdb.Client(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ repository.Entity = (*entities.Student)(nil)

// StudentStore implementations
var _ http.StudentStore = (*repository.StudentRepository)(nil)
var _ cli.StudentCreator = (*repository.StudentRepository)(nil)

// =============================================================================
// Sessions
// =============================================================================

var _ scs.Store = (*sqlite3store.SQLite3Store)(nil)
var _ scs.Store = (*memstore.MemStore)(nil)
