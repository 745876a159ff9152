package walkforward

import (
	"math"

	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

// windowBounds is one train/test split expressed in bar indices. All
// bounds are half-open.
type windowBounds struct {
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int
}

// partition splits totalBars into n rolling train/test windows. The train
// length is chosen so that the first window's train/test split matches
// trainFrac, every test window is the same length, test windows are
// contiguous and non-overlapping, and together they cover the tail of the
// series exactly (the last window absorbs the integer-division remainder).
// Each train range is the trainLen bars immediately preceding its test
// range.
func partition(totalBars, n int, trainFrac float64) ([]windowBounds, error) {
	if n < 1 {
		return nil, errors.Wrap(errors.ErrCodeWindowPartition, "invalid window count",
			errors.NewParameterErrorf("windows", n, "must be at least 1"))
	}

	if trainFrac <= 0 || trainFrac >= 1 {
		return nil, errors.Wrap(errors.ErrCodeWindowPartition, "invalid train fraction",
			errors.NewParameterErrorf("train_fraction", trainFrac, "must be in (0, 1)"))
	}

	trainLen := int(math.Floor(float64(totalBars) * trainFrac / (trainFrac + float64(n)*(1-trainFrac))))
	testLen := (totalBars - trainLen) / n

	if trainLen < 1 || testLen < 1 {
		return nil, errors.Newf(errors.ErrCodeWindowPartition,
			"%d bars cannot be split into %d windows with train fraction %.2f",
			totalBars, n, trainFrac)
	}

	bounds := make([]windowBounds, n)

	for w := 0; w < n; w++ {
		testStart := trainLen + w*testLen
		testEnd := testStart + testLen

		if w == n-1 {
			testEnd = totalBars
		}

		bounds[w] = windowBounds{
			TrainStart: testStart - trainLen,
			TrainEnd:   testStart,
			TestStart:  testStart,
			TestEnd:    testEnd,
		}
	}

	return bounds, nil
}
