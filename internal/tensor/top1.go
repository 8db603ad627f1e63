package tensor

import (
	"fmt"
	"math"
)

// Top1 returns the index of the highest of the first classes scores. Ties go
// to the earliest index. A vector shorter than classes is rejected instead of
// being truncated.
func Top1(scores []float32, classes int) (int, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyVector
	}
	if classes <= 0 {
		classes = len(scores)
	}
	if len(scores) < classes {
		return 0, fmt.Errorf("%w: expected %d scores, got %d", ErrShapeMismatch, classes, len(scores))
	}

	best := 0
	maxVal := float32(math.Inf(-1))
	for i, v := range scores[:classes] {
		if v > maxVal {
			maxVal = v
			best = i
		}
	}
	return best, nil
}
