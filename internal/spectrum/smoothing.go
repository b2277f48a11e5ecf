package spectrum

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// ErrTooFewPoints is returned when a spline is fitted to fewer than two points.
var ErrTooFewPoints = errors.New("at least two points are required")

// SmoothingSpline is a degree one least squares spline: a polyline through
// its knots whose residual sum of squares against the fitted data does not
// exceed the smoothing factor.
type SmoothingSpline struct {
	knots  []float64
	coeffs []float64
	line   *linear
}

// FitSmoothingSpline fits a smoothing spline to (xs, ys). xs must be strictly
// monotonic; a decreasing grid is reversed first. Knots start at the two end
// points. While the residual sum of squares exceeds smoothing, every interval
// holding at least its share of the interior residual gets a knot at the data
// point splitting that residual in half. A smoothing of 0 therefore
// interpolates every point.
func FitSmoothingSpline(xs, ys []float64, smoothing float64) (*SmoothingSpline, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("%d abscissae but %d values", n, len(ys))
	}
	if n < 2 {
		return nil, ErrTooFewPoints
	}
	if xs[0] > xs[n-1] {
		xs, ys = slices.Clone(xs), slices.Clone(ys)
		slices.Reverse(xs)
		slices.Reverse(ys)
	}
	if !strictlyIncreasing(xs) {
		return nil, ErrNotMonotonic
	}
	if smoothing < 0 {
		return nil, fmt.Errorf("smoothing factor %v must not be negative", smoothing)
	}

	// knots are kept as indices into xs
	knots := []int{0, n - 1}
	residuals := make([]float64, n)

	for {
		coeffs, err := leastSquares(xs, ys, knots)
		if err != nil {
			return nil, err
		}
		total := evaluateResiduals(xs, ys, knots, coeffs, residuals)
		if total <= smoothing {
			return newSmoothingSpline(xs, knots, coeffs)
		}

		split := splitPoints(knots, residuals)
		if len(split) == 0 {
			return newSmoothingSpline(xs, knots, coeffs)
		}
		knots = append(knots, split...)
		slices.Sort(knots)
	}
}

func newSmoothingSpline(xs []float64, knots []int, coeffs []float64) (*SmoothingSpline, error) {
	s := &SmoothingSpline{
		knots:  make([]float64, len(knots)),
		coeffs: coeffs,
	}
	for i, k := range knots {
		s.knots[i] = xs[k]
	}

	var err error
	if s.line, err = newLinear(s.knots, s.coeffs); err != nil {
		return nil, err
	}
	return s, nil
}

// Knots returns the knot abscissae.
func (s *SmoothingSpline) Knots() []float64 {
	return slices.Clone(s.knots)
}

// Predict evaluates the spline at x. Outside the knot range the end values
// are held.
func (s *SmoothingSpline) Predict(x float64) float64 {
	return s.line.predict(x)
}

// PredictAll evaluates the spline at every point of xs.
func (s *SmoothingSpline) PredictAll(xs []float64) []float64 {
	return s.line.predictAll(xs)
}

// hat returns the interval of knots holding data point i and the weight of
// the interval's right knot.
func hat(xs []float64, knots []int, i int) (interval int, u float64) {
	interval, found := slices.BinarySearch(knots, i)
	if found {
		if interval == len(knots)-1 {
			return interval - 1, 1
		}
		return interval, 0
	}
	interval--
	left, right := xs[knots[interval]], xs[knots[interval+1]]
	return interval, (xs[i] - left) / (right - left)
}

// leastSquares solves the normal equations of the hat function basis. Every
// knot sits on a data point, so the tridiagonal system is symmetric positive
// definite.
func leastSquares(xs, ys []float64, knots []int) ([]float64, error) {
	m := len(knots)
	// upper band storage, diagonal then super diagonal per row
	band := make([]float64, 2*m)
	rhs := make([]float64, m)

	for i := range xs {
		k, u := hat(xs, knots, i)
		w0, w1 := 1-u, u
		band[2*k] += w0 * w0
		band[2*(k+1)] += w1 * w1
		band[2*k+1] += w0 * w1
		rhs[k] += w0 * ys[i]
		rhs[k+1] += w1 * ys[i]
	}

	var chol mat.BandCholesky
	if ok := chol.Factorize(mat.NewSymBandDense(m, 1, band)); !ok {
		return nil, errors.New("spline normal equations are not positive definite")
	}

	coeffs := mat.NewVecDense(m, nil)
	// a Condition error still carries a solution
	var cond mat.Condition
	if err := chol.SolveVecTo(coeffs, mat.NewVecDense(m, rhs)); err != nil && !errors.As(err, &cond) {
		return nil, fmt.Errorf("solving spline normal equations: %w", err)
	}
	return coeffs.RawVector().Data, nil
}

func evaluateResiduals(xs, ys []float64, knots []int, coeffs, residuals []float64) float64 {
	var total float64
	for i := range xs {
		k, u := hat(xs, knots, i)
		r := ys[i] - ((1-u)*coeffs[k] + u*coeffs[k+1])
		residuals[i] = r
		total += r * r
	}
	return total
}

// splitPoints returns a split point for every interval whose interior
// residual sum of squares is at least the mean over the intervals that have
// interior points. The split point is where the interval's cumulative
// residual reaches half of its sum.
func splitPoints(knots []int, residuals []float64) []int {
	sums := make([]float64, len(knots)-1)
	var total float64
	var candidates int
	for k := range sums {
		if knots[k+1]-knots[k] < 2 {
			sums[k] = -1
			continue
		}
		for i := knots[k] + 1; i < knots[k+1]; i++ {
			sums[k] += residuals[i] * residuals[i]
		}
		total += sums[k]
		candidates++
	}
	if candidates == 0 {
		return nil
	}
	mean := total / float64(candidates)

	var split []int
	for k, ss := range sums {
		if ss < 0 || ss < mean {
			continue
		}
		split = append(split, halfResidual(knots[k], knots[k+1], ss, residuals))
	}
	return split
}

func halfResidual(from, to int, ss float64, residuals []float64) int {
	var cumulative float64
	for i := from + 1; i < to; i++ {
		cumulative += residuals[i] * residuals[i]
		if cumulative >= ss/2 {
			return i
		}
	}
	return to - 1
}
