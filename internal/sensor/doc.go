// Package sensor manages RFID sensors and their lifecycle states.
//
// A sensor moves freely between Active, Inactive, Blocked and Lost. The one
// rule is that a Lost sensor has no associated user; it is enforced by the
// UPDATE that applies the change, so a concurrent edit can never slip a
// user onto a sensor that has just been marked Lost (or the reverse).
//
// Deleting a sensor deletes its events. Deleting a user detaches them from
// any sensor they were associated with.
package sensor
