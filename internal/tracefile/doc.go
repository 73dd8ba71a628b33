// Package tracefile reads the per-slot trace files written by package
// trace and renders their records.
package tracefile
