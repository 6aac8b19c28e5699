package bayesopt

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadratic1D is a known objective with its minimum at x = 0.
func quadratic1D(x Point) (float64, error) {
	v := x[0].(float64)

	return v * v, nil
}

func testSpace1D(t *testing.T) Space {
	t.Helper()

	space, err := NewSpace(Real{Low: -2, High: 2})
	require.NoError(t, err)

	return space
}

func TestMinimizeQuadraticConverges(t *testing.T) {
	config := DefaultConfig()
	config.NCalls = 15
	config.NRandomStarts = 5
	config.Seed = 7

	res, err := Minimize(config, quadratic1D, testSpace1D(t))
	require.NoError(t, err)

	// Budget fully spent: 5 random + 10 guided evaluations.
	assert.Len(t, res.Observations, 15)

	// One surrogate snapshot per guided iteration.
	assert.Len(t, res.Models, 10)

	// The guided budget should close in on the minimum at x = 0.
	assert.InDelta(t, 0, res.Fun, 1e-2)
}

func TestMinimizeDeterministicTrace(t *testing.T) {
	runOnce := func() *Result {
		config := DefaultConfig()
		config.NCalls = 12
		config.NRandomStarts = 4
		config.Seed = 99

		res, err := Minimize(config, quadratic1D, testSpace1D(t))
		require.NoError(t, err)

		return res
	}

	first := runOnce()
	second := runOnce()

	assert.Equal(t, first.XIters(), second.XIters())
	assert.Equal(t, first.FuncVals(), second.FuncVals())
	assert.Equal(t, first.X, second.X)
	assert.Equal(t, first.Fun, second.Fun)
}

func TestMinimizeInitialPointOrdering(t *testing.T) {
	x0 := []Point{{-1.5}, {0.25}, {1.0}}

	config := DefaultConfig()
	config.NCalls = 10
	config.NRandomStarts = 3
	config.X0 = x0
	config.Seed = 3

	res, err := Minimize(config, quadratic1D, testSpace1D(t))
	require.NoError(t, err)
	require.Len(t, res.Observations, 10)

	// The supplied points are evaluated first, in order.
	for i, x := range x0 {
		assert.Equal(t, x, res.Observations[i].X)
	}

	// The random starts that follow do not repeat the supplied points.
	for i := len(x0); i < len(x0)+config.NRandomStarts; i++ {
		for _, x := range x0 {
			assert.NotEqual(t, x, res.Observations[i].X)
		}
	}
}

func TestMinimizeX0Y0SkipsEvaluation(t *testing.T) {
	var calls int32

	counted := func(x Point) (float64, error) {
		atomic.AddInt32(&calls, 1)

		return quadratic1D(x)
	}

	config := DefaultConfig()
	config.NCalls = 8
	config.NRandomStarts = 3
	config.X0 = []Point{{-1.0}, {1.0}}
	config.Y0 = []float64{1.0, 1.0}
	config.Seed = 5

	res, err := Minimize(config, counted, testSpace1D(t))
	require.NoError(t, err)

	// Pre-evaluated pairs are recorded without objective calls.
	assert.Equal(t, int32(8), atomic.LoadInt32(&calls))
	assert.Len(t, res.Observations, 10)
	assert.Equal(t, 1.0, res.Observations[0].Value)
	assert.Equal(t, 1.0, res.Observations[1].Value)
}

func TestMinimizeObjectiveErrorPropagates(t *testing.T) {
	boom := errors.New("instrument offline")

	var calls int

	failing := func(x Point) (float64, error) {
		calls++
		if calls == 7 {
			return 0, boom
		}

		return quadratic1D(x)
	}

	config := DefaultConfig()
	config.NCalls = 15
	config.NRandomStarts = 5
	config.Seed = 11

	res, err := Minimize(config, failing, testSpace1D(t))
	require.Error(t, err)

	var objErr *ObjectiveError
	require.ErrorAs(t, err, &objErr)
	assert.ErrorIs(t, err, boom)

	// No partial observation is recorded for the failed call.
	require.NotNil(t, res)
	assert.Len(t, res.Observations, 6)
}

func TestMinimizeEarlyStopCallback(t *testing.T) {
	config := DefaultConfig()
	config.NCalls = 20
	config.NRandomStarts = 5
	config.Seed = 2
	config.Callbacks = []Callback{
		func(partial *Result) error {
			if len(partial.Observations) == 4 {
				return ErrEarlyStop
			}

			return nil
		},
	}

	res, err := Minimize(config, quadratic1D, testSpace1D(t))
	require.NoError(t, err)
	assert.Len(t, res.Observations, 4)
}

func TestMinimizeBudgetValidation(t *testing.T) {
	var calls int32

	counted := func(x Point) (float64, error) {
		atomic.AddInt32(&calls, 1)

		return quadratic1D(x)
	}

	config := DefaultConfig()
	config.NCalls = 5
	config.NRandomStarts = 5
	config.X0 = []Point{{0.1}, {0.2}}
	config.Seed = 1

	res, err := Minimize(config, counted, testSpace1D(t))

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Nil(t, res)

	// Fail fast: no evaluation happens on an invalid configuration.
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestMinimizeRandomStartLowerBound(t *testing.T) {
	config := DefaultConfig()
	config.NCalls = 3
	config.NRandomStarts = 0
	config.Seed = 4

	res, err := Minimize(config, quadratic1D, testSpace1D(t))
	require.NoError(t, err)

	// One random point must seed the surrogate, leaving two guided calls.
	assert.Len(t, res.Observations, 3)
	assert.Len(t, res.Models, 2)
}

func TestMinimizeRejectsPerSecondStrategy(t *testing.T) {
	config := DefaultConfig()
	config.Strategy = StrategyEIps

	res, err := Minimize(config, quadratic1D, testSpace1D(t))

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Nil(t, res)
}

func TestMinimizeWithCostRecordsCosts(t *testing.T) {
	costed := func(x Point) (float64, float64, error) {
		v := x[0].(float64)

		return v * v, 0.5, nil
	}

	config := DefaultConfig()
	config.NCalls = 10
	config.NRandomStarts = 4
	config.Strategy = StrategyEIps
	config.Seed = 6

	res, err := MinimizeWithCost(config, costed, testSpace1D(t))
	require.NoError(t, err)
	require.Len(t, res.Observations, 10)

	for _, o := range res.Observations {
		assert.Equal(t, 0.5, o.Cost)
	}
}

func TestMinimizeProgressChannel(t *testing.T) {
	config := DefaultConfig()
	config.NCalls = 8
	config.NRandomStarts = 3
	config.Seed = 21

	progressChan := make(chan ProgressUpdate, config.NCalls)
	config.ProgressChan = progressChan

	res, err := Minimize(config, quadratic1D, testSpace1D(t))
	require.NoError(t, err)
	close(progressChan)

	var updates int

	best := res.FuncVals()[0]

	for update := range progressChan {
		updates++

		// Best-so-far never regresses.
		assert.LessOrEqual(t, update.Best, best)
		best = update.Best
	}

	assert.Equal(t, 8, updates)
}

func TestMinimizeLargeScaleObjective(t *testing.T) {
	// Objective values in the millions. Guided iterations revisit the
	// neighborhood of the minimum, so the surrogate must cope with
	// near-duplicate points at this scale.
	steep := func(x Point) (float64, error) {
		v := x[0].(float64)

		return 1e6 * v * v, nil
	}

	config := DefaultConfig()
	config.NCalls = 40
	config.Seed = 1

	res, err := Minimize(config, steep, testSpace1D(t))
	require.NoError(t, err)

	assert.Len(t, res.Observations, 40)
	assert.InDelta(t, 0, res.Fun, 1e4)
}

func TestMinimizeRejectsInvalidInitialPoint(t *testing.T) {
	space, err := NewSpace(
		Real{Low: 0, High: 1},
		Categorical{Values: []string{"rbf", "linear"}},
	)
	require.NoError(t, err)

	var calls int32

	counted := func(x Point) (float64, error) {
		atomic.AddInt32(&calls, 1)

		return 0, nil
	}

	config := DefaultConfig()
	config.NCalls = 10
	config.Seed = 8
	config.X0 = []Point{{0.5, "matern"}}

	res, err := Minimize(config, counted, space)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "matern")
	assert.Nil(t, res)

	// Fail fast: the unknown category is caught before any evaluation.
	assert.Zero(t, atomic.LoadInt32(&calls))
}

// brokenSurrogate fails every fit, simulating a surrogate that cannot
// handle the observed data.
type brokenSurrogate struct{}

func (brokenSurrogate) Fit(X [][]float64, y []float64) (Surrogate, error) {
	return nil, &SurrogateFitError{Err: errors.New("degenerate kernel")}
}

func (brokenSurrogate) Predict(x []float64) (mean, std float64) { return 0, 1 }

func TestMinimizeSurrogateFitErrorKeepsObservations(t *testing.T) {
	config := DefaultConfig()
	config.NCalls = 10
	config.NRandomStarts = 4
	config.Seed = 13
	config.NewSurrogate = func() Surrogate { return brokenSurrogate{} }

	res, err := Minimize(config, quadratic1D, testSpace1D(t))
	require.Error(t, err)

	var fitErr *SurrogateFitError
	require.ErrorAs(t, err, &fitErr)

	// The run aborts at the first guided fit, but the random
	// observations already made remain queryable.
	require.NotNil(t, res)
	assert.Len(t, res.Observations, 4)
	assert.Empty(t, res.Models)
}

func TestMinimizeMixedSpace(t *testing.T) {
	space, err := NewSpace(
		Real{Low: 0, High: 1},
		Integer{Low: 1, High: 8},
		Categorical{Values: []string{"rbf", "linear"}},
	)
	require.NoError(t, err)

	objective := func(x Point) (float64, error) {
		v := x[0].(float64)
		n := x[1].(int)

		penalty := 0.0
		if x[2].(string) == "linear" {
			penalty = 0.5
		}

		return v + float64(n)/8 + penalty, nil
	}

	config := DefaultConfig()
	config.NCalls = 12
	config.NRandomStarts = 5
	config.Seed = 17

	res, err := Minimize(config, objective, space)
	require.NoError(t, err)
	assert.Len(t, res.Observations, 12)

	// Decoded points keep their native types.
	best := res.X
	assert.IsType(t, float64(0), best[0])
	assert.IsType(t, int(0), best[1])
	assert.IsType(t, "", best[2])
}
