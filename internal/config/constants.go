package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the sqlite document store
	DefaultDatabasePath = "./student-records.db"

	// DefaultNamespace is the SurrealDB namespace holding the database
	DefaultNamespace = "studentrecords"
)

// Fixed document store addressing. These are not configurable.
const (
	DatabaseName   = "cosmosuniversity"
	CollectionName = "student"
)
