package bayesopt

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//////
// Const, vars, types.
//////

// GaussianProcess is the default surrogate model: exact Gaussian process
// regression with an RBF kernel. It predicts, for any encoded point, the
// expected objective value and the uncertainty of that expectation.
//
// A GaussianProcess value is immutable once fitted: Fit returns a new
// instance and never mutates the receiver, so fitted snapshots can be
// shared read-only across concurrent local searches and kept for result
// introspection without aliasing hazards.
//
// The kernel width defaults to a value suited to the normalized [0, 1]
// encoding produced by ParamSpace. Observed values are standardized at fit
// time (centered and divided by their standard deviation), so the
// covariance solve always happens at unit scale regardless of the
// objective's output range; predictions are mapped back afterwards. This
// keeps the Noise term meaningful relative to the unit kernel, so
// near-duplicate points stay factorizable whatever the magnitude of y.
type GaussianProcess struct {
	// LengthScale is the RBF kernel width. Larger values produce smoother
	// interpolation, smaller values more local influence.
	LengthScale float64

	// Noise is the variance of the iid observation noise added to the
	// kernel diagonal, relative to the standardized unit scale of the
	// targets. Keep it above zero: it also stabilizes the Cholesky
	// factorization.
	Noise float64

	// Fitted state. Nil on an unfitted instance.
	x      [][]float64
	chol   *mat.Cholesky
	alpha  *mat.VecDense
	meanY  float64
	scaleY float64
}

//////
// Methods.
//////

// rbf evaluates the unit-amplitude RBF kernel between two encoded points.
//
// Mathematical formula:
//
//	k(x1, x2) = exp(-sum((x1 - x2)^2) / (2 * l^2))
func (gp *GaussianProcess) rbf(x1, x2 []float64) float64 {
	var sum float64

	for i := range x1 {
		diff := x1[i] - x2[i]

		sum += diff * diff
	}

	return math.Exp(-sum / (2 * gp.LengthScale * gp.LengthScale))
}

// Fit trains a new Gaussian process on encoded points X and observed
// values y and returns it. The receiver is left untouched.
//
// Returns a *SurrogateFitError when the covariance matrix cannot be
// factorized, which typically means duplicated points with inconsistent
// values or a degenerate kernel configuration.
func (gp *GaussianProcess) Fit(X [][]float64, y []float64) (Surrogate, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, &SurrogateFitError{Err: errors.New("training data is empty or mismatched")}
	}

	fitted := &GaussianProcess{
		LengthScale: gp.LengthScale,
		Noise:       gp.Noise,
	}

	// Standardize the targets, falling back to unit scale for constant
	// observations.
	meanY, varY := stat.MeanVariance(y, nil)
	if len(y) < 2 || varY <= 0 {
		varY = 1
	}

	fitted.meanY = meanY
	fitted.scaleY = math.Sqrt(varY)

	// Deep-copy the training inputs so later mutation by the caller
	// cannot corrupt the fitted state.
	fitted.x = make([][]float64, len(X))
	for i, row := range X {
		fitted.x[i] = append([]float64(nil), row...)
	}

	n := len(X)

	cov := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			k := fitted.rbf(fitted.x[i], fitted.x[j])
			if i == j {
				k += fitted.Noise
			}

			cov.SetSym(i, j, k)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, &SurrogateFitError{Err: errors.New("covariance matrix is not positive definite")}
	}

	standardized := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		standardized.SetVec(i, (y[i]-meanY)/fitted.scaleY)
	}

	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, standardized); err != nil {
		return nil, &SurrogateFitError{Err: err}
	}

	fitted.chol = &chol
	fitted.alpha = alpha

	return fitted, nil
}

// Predict returns the predictive mean and standard deviation at the
// encoded point x. An unfitted model predicts a flat prior of mean 0 and
// unit standard deviation.
func (gp *GaussianProcess) Predict(x []float64) (mean, std float64) {
	if gp.chol == nil {
		return 0, 1
	}

	n := len(gp.x)

	k := make([]float64, n)
	for i := range gp.x {
		k[i] = gp.rbf(x, gp.x[i])
	}

	kVec := mat.NewVecDense(n, k)

	mean = gp.meanY + gp.scaleY*mat.Dot(kVec, gp.alpha)

	// Predictive variance at unit scale: k(x, x) + noise - k' K^-1 k,
	// mapped back to the target scale.

	solved := mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(solved, kVec); err != nil {
		return mean, 0
	}

	variance := 1 + gp.Noise - mat.Dot(kVec, solved)
	if variance < 0 {
		variance = 0
	}

	return mean, gp.scaleY * math.Sqrt(variance)
}

//////
// Factory.
//////

// NewGaussianProcess returns an unfitted Gaussian process with defaults
// suited to the normalized encoding produced by ParamSpace.
func NewGaussianProcess() *GaussianProcess {
	return &GaussianProcess{
		LengthScale: 0.3,
		Noise:       1e-6,
	}
}
