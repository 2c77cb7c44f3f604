// Package sampling implements the operators that change when or where
// events live without computing new feature values: resample, propagate,
// combine, lag and leak.
package sampling
