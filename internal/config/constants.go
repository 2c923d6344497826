package config

const (
	// DefaultDatabasePath is the default path for the reading store.
	DefaultDatabasePath = "./readlog.db"

	// DefaultInboxDir is where payload files from the remote feed are dropped.
	DefaultInboxDir = "./inbox"
)
