// Package barrier manages gates and their open/closed state.
//
// Transitions are unconditional and idempotent. The package never writes
// events; callers that want a manual open or close in the access log
// record it themselves. Applied states are handed to a Publisher so the
// gate controller can follow them.
package barrier
