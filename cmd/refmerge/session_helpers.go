package main

import (
	"os"

	"github.com/matsen/refmerge/internal/engine"
	"github.com/matsen/refmerge/internal/storage"
)

// mustReadFile reads an input document, exits on error.
func mustReadFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			exitWithError(ExitDataError, "file not found: %s", path)
		}
		exitWithError(ExitError, "reading %s: %v", path, err)
	}
	return string(data)
}

// mustLoadSession fetches and restores a stored session, exits on error.
func mustLoadSession(db *storage.DB, id string) (*storage.Session, *engine.Session) {
	rec, err := db.Get(id)
	exitOnError(err, "loading session")
	s, err := engine.Restore(rec.Snapshot, logger)
	exitOnError(err, "restoring session "+id)
	return rec, s
}

// mustSaveSession stores the current state of s under rec, exits on error.
func mustSaveSession(db *storage.DB, rec *storage.Session, s *engine.Session) {
	rec.Snapshot = s.Snapshot()
	if err := db.Save(rec); err != nil {
		exitWithError(ExitError, "saving session: %v", err)
	}
}

// outputSession prints the session state in the selected format.
func outputSession(id string, s *engine.Session) {
	resp := buildSessionResponse(id, s)
	if humanOutput {
		printSessionHuman(resp)
	} else {
		outputJSON(resp)
	}
}
