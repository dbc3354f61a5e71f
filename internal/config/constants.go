package config

// DefaultDatabasePath is where the tracker database lives when
// DATABASE_PATH is not set.
const DefaultDatabasePath = "./bookends.db"
