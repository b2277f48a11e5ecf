package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitSmoothingSpline_ZeroSmoothingInterpolates(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5, 6}
	ys := []float64{1, 4, -2, 8, 5, 5, 0}

	s, err := FitSmoothingSpline(xs, ys, 0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ys, s.PredictAll(xs), 1e-9)
}

func TestFitSmoothingSpline_LineNeedsNoInteriorKnots(t *testing.T) {
	xs := make([]float64, 50)
	ys := make([]float64, 50)
	for i := range xs {
		xs[i] = 4000 + 3*float64(i)
		ys[i] = 0.002*xs[i] - 1
	}

	s, err := FitSmoothingSpline(xs, ys, 0.001)
	require.NoError(t, err)
	assert.Equal(t, []float64{4000, 4147}, s.Knots())
	assert.InDeltaSlice(t, ys, s.PredictAll(xs), 1e-9)
}

func TestFitSmoothingSpline_LargeSmoothingIsRegressionLine(t *testing.T) {
	xs := []float64{-2, -1, 0, 1, 2}
	ys := []float64{4, 1, 0, 1, 4}

	s, err := FitSmoothingSpline(xs, ys, 100)
	require.NoError(t, err)
	assert.Len(t, s.Knots(), 2)
	assert.InDelta(t, 2, s.Predict(-2), 1e-9)
	assert.InDelta(t, 2, s.Predict(0), 1e-9)
	assert.InDelta(t, 2, s.Predict(2), 1e-9)
}

func TestFitSmoothingSpline_ResidualWithinSmoothing(t *testing.T) {
	n := 400
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 10*math.Sin(float64(i)/40) + 0.3*math.Sin(float64(i)*7.3)
	}

	for _, smoothing := range []float64{0.5, 20, 200} {
		s, err := FitSmoothingSpline(xs, ys, smoothing)
		require.NoError(t, err)

		var ss float64
		for i, v := range s.PredictAll(xs) {
			ss += (ys[i] - v) * (ys[i] - v)
		}
		assert.LessOrEqual(t, ss, smoothing, "smoothing %v", smoothing)
	}

	coarse, err := FitSmoothingSpline(xs, ys, 200)
	require.NoError(t, err)
	assert.Less(t, len(coarse.Knots()), 50)
}

func TestFitSmoothingSpline_Errors(t *testing.T) {
	_, err := FitSmoothingSpline([]float64{1}, []float64{1}, 1)
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = FitSmoothingSpline([]float64{1, 3, 2}, []float64{1, 1, 1}, 1)
	assert.ErrorIs(t, err, ErrNotMonotonic)

	_, err = FitSmoothingSpline([]float64{3, 1, 2}, []float64{1, 1, 1}, 1)
	assert.ErrorIs(t, err, ErrNotMonotonic)

	_, err = FitSmoothingSpline([]float64{1, 2}, []float64{1}, 1)
	assert.Error(t, err)

	_, err = FitSmoothingSpline([]float64{1, 2}, []float64{1, 2}, -1)
	assert.Error(t, err)
}

func TestLeastSquares(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}

	// a line is reproduced exactly at the knots
	coeffs, err := leastSquares(xs, []float64{1, 3, 5, 7, 9}, []int{0, 2, 4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 5, 9}, coeffs, 1e-12)

	// knots at 0, 1 and 2 with a data point between each pair
	coeffs, err = leastSquares([]float64{0, 0.5, 1, 1.5, 2}, []float64{1, 1.5, 2, 2.5, 3}, []int{0, 2, 4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, coeffs, 1e-12)
}

func TestFitSmoothingSpline_DecreasingGrid(t *testing.T) {
	xs := []float64{7000, 6997, 6994, 6991, 6988, 6985}
	ys := []float64{1, 1.2, 0.9, 1.4, 1.1, 1.3}

	s, err := FitSmoothingSpline(xs, ys, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{6985, 7000}, []float64{s.Knots()[0], s.Knots()[len(s.Knots())-1]})
	assert.InDeltaSlice(t, ys, s.PredictAll(xs), 1e-9)

	smooth, err := FitSmoothingSpline(xs, ys, 100)
	require.NoError(t, err)
	reversed, err := FitSmoothingSpline(
		[]float64{6985, 6988, 6991, 6994, 6997, 7000},
		[]float64{1.3, 1.1, 1.4, 0.9, 1.2, 1}, 100)
	require.NoError(t, err)
	assert.InDeltaSlice(t, reversed.PredictAll(xs), smooth.PredictAll(xs), 1e-12)
}

func TestFitSmoothingSpline_ManyPoints(t *testing.T) {
	n := 6000
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = 3900 + 0.5*float64(i)
		// deterministic noise around a slow continuum
		ys[i] = 1 + 0.2*math.Sin(float64(i)/900) + 0.05*math.Sin(float64(i)*12.9898)
	}

	s, err := FitSmoothingSpline(xs, ys, DefaultSmoothing)
	require.NoError(t, err)

	var ss float64
	for i, v := range s.PredictAll(xs) {
		ss += (ys[i] - v) * (ys[i] - v)
	}
	assert.LessOrEqual(t, ss, float64(DefaultSmoothing))
}
