package detectors

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LineFit holds an ordinary least-squares fit of y over x together with the
// diagnostics shared by the trend detector and the forecast engine.
type LineFit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
	PValue    float64
	StdErr    float64
}

// FitLine performs an OLS regression. x and y must be equal length with at
// least two points; callers enforce that. PValue is the two-sided significance
// of the slope under a Student-t test with n-2 degrees of freedom, StdErr the
// standard error of the slope estimate.
func FitLine(x, y []float64) LineFit {
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	fit := LineFit{Slope: slope, Intercept: intercept, PValue: 1}

	r := stat.Correlation(x, y, nil)
	if !math.IsNaN(r) {
		fit.RSquared = r * r
	}

	n := len(x)
	if n <= 2 {
		return fit
	}

	xMean := stat.Mean(x, nil)
	var ssRes, sxx float64
	for i := range x {
		resid := y[i] - (intercept + slope*x[i])
		ssRes += resid * resid
		dx := x[i] - xMean
		sxx += dx * dx
	}
	if sxx > 0 {
		fit.StdErr = math.Sqrt(ssRes / float64(n-2) / sxx)
	}

	if math.IsNaN(r) {
		return fit
	}
	if fit.RSquared >= 1 {
		fit.PValue = 0
		return fit
	}

	tStat := r * math.Sqrt(float64(n-2)/(1-fit.RSquared))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	fit.PValue = 2 * (1 - tDist.CDF(math.Abs(tStat)))
	return fit
}
