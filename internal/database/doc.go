// Package database provides the store façade: opening the SQLite file,
// bringing its schema to the current version and generic CRUD over the
// versioned entities.
//
// # Architecture
//
//	database/
//	├── database.go      # Open, migrations, preference tables
//	├── repository.go    # Generic Repository[T] keyed by entity type and id
//	├── migrations/      # Versioned schema chain (user_version)
//	├── books/           # Reading, session and quote operations
//	├── sync/            # Reconciliation run bookkeeping
//	└── settings/        # Key/value preferences
//
// # Usage
//
//	db, err := database.Open("./readlog.db", database.Options{})
//	if err != nil {
//		// Fatal: the store could not be opened or migrated.
//	}
//	booksRepo := books.NewRepository(db.DB)
//	book, err := booksRepo.GetBookByID(123)
//
// Open runs every pending migration step inside one transaction. A failing
// step rolls the whole chain back and leaves the persisted version unchanged.
package database
