// Package smath implements the scalar arithmetic and comparison operators:
// each feature is combined with a single constant value. Arithmetic keeps the
// feature dtypes; comparisons produce bool features.
package smath
