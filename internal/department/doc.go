// Package department manages the organisational groupings that own
// sensors and, optionally, barriers.
//
// A department cannot be removed while anything still references it.
package department
