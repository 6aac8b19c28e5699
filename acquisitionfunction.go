package bayesopt

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Acquisition scoring for Bayesian optimization.
// Each strategy turns the surrogate posterior at a candidate point into a
// scalar score balancing exploration (trying uncertain areas) and
// exploitation (focusing on predicted good areas). Lower scores mark more
// promising candidates; gains are negated to keep that single convention.
//////

// stdNormal is the unit normal used for the Φ and φ terms of EI and PI.
var stdNormal = distuv.UnitNormal

// lcb computes the lower confidence bound: the predicted mean minus kappa
// standard deviations. Larger kappa favors exploring uncertain regions.
func lcb(mean, std, kappa float64) float64 {
	return mean - kappa*std
}

// expectedImprovement computes the negated expected improvement over the
// best observed value. At a point with zero predictive uncertainty there
// is no improvement potential and the score is 0.
func expectedImprovement(mean, std, best, xi float64) float64 {
	if std <= 0 {
		return 0
	}

	improve := best - mean - xi
	z := improve / std

	return -(improve*stdNormal.CDF(z) + std*stdNormal.Prob(z))
}

// probabilityOfImprovement computes the negated probability that a point
// improves on the best observed value by at least xi. Like EI it
// degrades to 0 at zero predictive uncertainty.
func probabilityOfImprovement(mean, std, best, xi float64) float64 {
	if std <= 0 {
		return 0
	}

	z := (best - mean - xi) / std

	return -stdNormal.CDF(z)
}

// acqScore evaluates the base acquisition formula for a strategy tag given
// the surrogate posterior (mean, std) at a candidate and the best value
// observed so far. Per-second strategies share their base formula with EI
// and PI; the cost division happens in acquisition.score.
func acqScore(strategy Strategy, mean, std, best, kappa, xi float64) float64 {
	switch strategy {
	case StrategyLCB:
		return lcb(mean, std, kappa)
	case StrategyEI, StrategyEIps:
		return expectedImprovement(mean, std, best, xi)
	case StrategyPI, StrategyPIps:
		return probabilityOfImprovement(mean, std, best, xi)
	default:
		return math.Inf(1)
	}
}

// acquisition bundles everything needed to score an encoded candidate
// point during one guided iteration: the strategy tag, its parameters,
// the fitted surrogate and, for per-second strategies, the fitted cost
// model. Values are read-only within an iteration, so one acquisition may
// be shared across concurrent local-search restarts.
type acquisition struct {
	strategy  Strategy
	kappa     float64
	xi        float64
	best      float64
	model     Surrogate
	costModel Surrogate
}

// score computes the acquisition score at an encoded point. For the
// per-second strategies the base score is divided by the predicted
// evaluation time, taken from a cost model fit on the log of the observed
// run times.
func (a acquisition) score(x []float64) float64 {
	mean, std := a.model.Predict(x)

	s := acqScore(a.strategy, mean, std, a.best, a.kappa, a.xi)

	if a.strategy.perSecond() && a.costModel != nil {
		logSeconds, _ := a.costModel.Predict(x)

		s /= math.Exp(logSeconds)
	}

	return s
}
