// Package auth decides who may do what.
//
// It contains:
//   - the role registry (Admin, Operator) and its stored records
//   - users and identity profiles (one profile per user)
//   - the identity resolver, optionally fronted by a Redis cache
//   - the declarative policy table and the pure Decide function
//   - bearer token verification (tokens are issued elsewhere)
//
// A caller without a profile resolves to RoleUnresolved and is denied
// everything. Operational state changes on sensors and barriers are
// Admin-only whatever the resource policy says.
package auth
