// Package repository implements the SurrealDB data access layer for the
// Kinship API.
//
// Each repository struct satisfies one of the storage interfaces declared
// in the service package and handles a single entity: users, children,
// events, participants, volunteers, team applications, roster entries,
// announcements and inbox messages.
//
// # Repository Pattern
//
//   - NewXxxRepository accepts a database.Database
//   - Lookups that find nothing return (nil, nil); services decide which
//     domain error that becomes
//   - Records are created with CREATE type::table($tb) CONTENT $content and
//     replaced with UPDATE type::record($id) CONTENT $content, so fields
//     cleared on the model are removed from storage
//   - Optional fields are left out of the content map and read back as NONE
//   - Multi-record deletes go through database.AtomicBatch
//
// Record IDs keep their table prefix ("event:abc"). A lookup with an ID from
// another table is treated as not found without touching the database.
//
// The postgres subpackage provides the same interfaces on top of sqlx.
//
// # Example Usage
//
//	repo := NewEventRepository(db)
//	event, err := repo.GetByID(ctx, "event:abc123")
//	if err != nil {
//	    return err
//	}
//	if event == nil {
//	    // Handle not found
//	}
package repository
