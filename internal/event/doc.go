// Package event records and queries the immutable access log.
//
// Two validation tiers exist. Record is the strict path used by API
// clients and card readers: the sensor must be Active and a missing result
// means Permitted. RecordRelaxed only refuses Blocked and Lost sensors and
// needs an explicit result; the reader ingest uses it to log denials from
// Inactive sensors.
//
// Timestamps are assigned by the INSERT itself as the later of "now" and
// the newest stored event, so the log never runs backwards even if the
// wall clock does. Rows are never updated; a trigger rejects UPDATE.
package event
