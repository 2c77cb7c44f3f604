// Package window implements the moving-window operators. For an output
// timestamp t and window length w (seconds), events with timestamp t' such
// that t-w < t' <= t are inside the window. Each operator optionally samples
// its output at the timestamps of a second node instead of the input's own.
package window
