// Package ingest connects card readers and gate controllers to the core
// over MQTT.
//
// A reader publishes on smartconnect/reader/{uid}/access when a card is
// presented. The report goes through the strict event path; if the reader
// is Inactive the attempt is still logged, as Denied, through the relaxed
// path. Blocked and Lost readers get a denial but leave no event. Every
// report is answered on smartconnect/reader/{uid}/decision.
//
// BarrierPublisher sends applied barrier states to the gate controllers
// as retained messages.
package ingest
