// Package graph implements the lazy operator graph. Nodes are schema
// placeholders; operators connect them and infer output schemas at
// construction time, before any data is touched. The engine package turns a
// graph plus input event sets into output event sets.
package graph
