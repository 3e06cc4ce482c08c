// Package database provides the SQLite connection and schema migrations
// for SmartConnect Core.
//
// The store holds departments, roles, users, identity profiles, sensors,
// barriers and the append-only event log. Referential rules live in the
// schema itself:
//   - departments are RESTRICTed while sensors or barriers point at them
//   - deleting a sensor cascades to its events
//   - deleting a user nulls sensors.associated_user_id
//   - a CHECK keeps lost sensors free of an associated user
//   - a trigger rejects any UPDATE on events
//
// Migrations are embedded by the migrations package and applied with
// (*DB).Migrate at startup.
package database
