package window

import (
	"math"

	"github.com/vk/eventflow/series"
)

// The kernels share the same two-pointer scan: right counts events with
// t' <= t, left counts events with t' <= t-w. Output timestamps are sorted,
// so both pointers only move forward.

func movingSum[T series.Number](srcTs []float64, values []T, outTs []float64, window float64) []T {
	out := make([]T, len(outTs))
	left, right := 0, 0
	var sum T
	for i, t := range outTs {
		for right < len(srcTs) && srcTs[right] <= t {
			sum += values[right]
			right++
		}
		for left < len(srcTs) && srcTs[left] <= t-window {
			sum -= values[left]
			left++
		}
		out[i] = sum
	}
	return out
}

func movingAverage[T interface{ float64 | float32 }](srcTs []float64, values []T, outTs []float64, window float64) []T {
	out := make([]T, len(outTs))
	left, right := 0, 0
	var sum T
	for i, t := range outTs {
		for right < len(srcTs) && srcTs[right] <= t {
			sum += values[right]
			right++
		}
		for left < len(srcTs) && srcTs[left] <= t-window {
			sum -= values[left]
			left++
		}
		if right == left {
			out[i] = T(math.NaN())
		} else {
			out[i] = sum / T(right-left)
		}
	}
	return out
}

func movingCount(srcTs []float64, outTs []float64, window float64) []int32 {
	out := make([]int32, len(outTs))
	left, right := 0, 0
	for i, t := range outTs {
		for right < len(srcTs) && srcTs[right] <= t {
			right++
		}
		for left < len(srcTs) && srcTs[left] <= t-window {
			left++
		}
		out[i] = int32(right - left)
	}
	return out
}

// movingExtremum keeps a monotonic deque of candidate positions; the front is
// the current extremum. better(a, b) reports whether a beats b.
func movingExtremum[T series.Number](srcTs []float64, values []T, outTs []float64, window float64, better func(a, b T) bool) []T {
	out := make([]T, len(outTs))
	var deque []int
	left, right := 0, 0
	for i, t := range outTs {
		for right < len(srcTs) && srcTs[right] <= t {
			for len(deque) > 0 && !better(values[deque[len(deque)-1]], values[right]) {
				deque = deque[:len(deque)-1]
			}
			deque = append(deque, right)
			right++
		}
		for left < len(srcTs) && srcTs[left] <= t-window {
			left++
		}
		for len(deque) > 0 && deque[0] < left {
			deque = deque[1:]
		}
		if len(deque) == 0 {
			out[i] = series.Missing[T]()
		} else {
			out[i] = values[deque[0]]
		}
	}
	return out
}
