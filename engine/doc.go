// Package engine evaluates operator graphs. It binds event sets to input
// nodes, schedules the graph, and runs operator implementations on a worker
// pool with atomic dependency counters; a failing operator cancels the run
// and skips its dependents.
package engine
