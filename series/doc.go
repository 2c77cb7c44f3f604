// Package series defines the core data model: typed feature columns grouped
// by index keys over sorted timestamps. An EventSet holds the actual data; it
// carries no computation of its own.
package series
