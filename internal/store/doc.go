// Package store owns margin's durable state: papers, tasks, clipboard
// snippets, email reminders, and goals, persisted in a single SQLite
// database. The schema is embedded and versioned; opening a database
// with a mismatched schema version fails rather than migrating
// silently.
//
// All write operations take a context and return wrapped errors.
// Lookups that miss return ErrNotFound.
package store
