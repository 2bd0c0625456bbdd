// Package store provides persistent storage for cheatsignal using SQLite.
//
// # Interfaces
//
//   - DirectoryStore: saved addresses, job/skill tags and hashtags
//   - JournalStore: conversation headers and messages, replayed at startup
//   - Store: both of the above plus Close
//
// SQLiteStore implements Store in a single struct. MockStore is an in-memory
// implementation for tests.
//
// # Schema
//
// The schema is versioned with SQLite's user_version pragma. Each entry in
// migrations upgrades the database by one version inside its own
// transaction, so an interrupted upgrade resumes where it stopped. A database
// newer than the binary is refused.
//
// Timestamps are stored as Unix milliseconds.
//
// # Validation
//
// Save methods validate their record before touching the database and return
// a *ValidationError naming each bad field.
//
//	err := s.SaveAddress(ctx, &store.CommunalAddress{AddressLine: "1 Main St"})
//	var verr *store.ValidationError
//	if errors.As(err, &verr) {
//		fmt.Println(verr.Fields["locality"]) // City/Town is required
//	}
package store
