// Package fixtures provides test data factories backed by the SurrealDB
// repositories.
//
//	f := fixtures.New(tdb.DB)
//	admin := f.CreateAdmin(t)
//	parent := f.CreateUser(t, fixtures.WithPhone("+15550001111"))
//	child := f.CreateChild(t, parent, 8)
//	event := f.CreateEvent(t, admin, fixtures.WithCapacity(10))
//	f.Register(t, event, child, model.ParticipantRegistered)
//
// Every fixture user has the password DefaultPassword.
package fixtures
