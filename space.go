package bayesopt

import (
	"math"
	"math/rand"
)

//////
// Const, vars, types.
//////

// Dimension describes a single axis of the search space. The built-in
// implementations are Real, Integer and Categorical.
//
// Every dimension is normalized into the unit interval for the surrogate
// model: Encode maps a decoded value to [0, 1] and decode maps back,
// rounding Integer values to the nearest step and Categorical values to
// the nearest category. The default Gaussian process kernel width assumes
// this normalized representation.
type Dimension interface {
	// sample draws one decoded value from the dimension.
	sample(rng *rand.Rand) any

	// encode maps a decoded value into [0, 1].
	encode(v any) float64

	// decode maps a normalized value back to a decoded value.
	decode(t float64) any

	// categorical reports whether the dimension is an unordered set.
	categorical() bool

	// validate checks the dimension's own bounds.
	validate() error

	// check verifies that a decoded value belongs to the dimension.
	check(v any) error
}

// Real is a continuous dimension bounded by [Low, High].
//
// Usage example:
//
//	learningRate := Real{Low: 1e-4, High: 1e-1}
type Real struct {
	// Low is the inclusive lower bound.
	Low float64

	// High is the inclusive upper bound.
	High float64
}

// Integer is a discrete numeric dimension over the inclusive range
// [Low, High].
//
// Usage example:
//
//	workers := Integer{Low: 1, High: 32}
type Integer struct {
	// Low is the inclusive lower bound.
	Low int

	// High is the inclusive upper bound.
	High int
}

// Categorical is an unordered set of named choices. A space containing a
// Categorical dimension always uses the sampling acquisition backend,
// since local search over unordered categories is ill-defined.
//
// Usage example:
//
//	kernel := Categorical{Values: []string{"rbf", "matern", "linear"}}
type Categorical struct {
	// Values holds the available choices. Must not be empty.
	Values []string
}

// ParamSpace is the standard Space implementation over a fixed list of
// dimensions. Build it with NewSpace.
type ParamSpace struct {
	dims []Dimension
}

//////
// Dimension implementations.
//////

func (d Real) sample(rng *rand.Rand) any {
	return d.Low + rng.Float64()*(d.High-d.Low)
}

func (d Real) encode(v any) float64 {
	return (v.(float64) - d.Low) / (d.High - d.Low)
}

func (d Real) decode(t float64) any {
	return d.Low + clip(t, 0, 1)*(d.High-d.Low)
}

func (d Real) categorical() bool { return false }

func (d Real) validate() error {
	if !(d.Low < d.High) {
		return configErrorf("real dimension requires Low < High, got [%v, %v]", d.Low, d.High)
	}

	return nil
}

func (d Real) check(v any) error {
	f, ok := v.(float64)
	if !ok {
		return configErrorf("expected float64, got %T", v)
	}

	if f < d.Low || f > d.High {
		return configErrorf("value %v outside [%v, %v]", f, d.Low, d.High)
	}

	return nil
}

func (d Integer) sample(rng *rand.Rand) any {
	return d.Low + rng.Intn(d.High-d.Low+1)
}

func (d Integer) encode(v any) float64 {
	if d.High == d.Low {
		return 0
	}

	return float64(v.(int)-d.Low) / float64(d.High-d.Low)
}

func (d Integer) decode(t float64) any {
	v := d.Low + int(math.Round(clip(t, 0, 1)*float64(d.High-d.Low)))

	return clip(v, d.Low, d.High)
}

func (d Integer) categorical() bool { return false }

func (d Integer) validate() error {
	if d.High < d.Low {
		return configErrorf("integer dimension requires Low <= High, got [%d, %d]", d.Low, d.High)
	}

	return nil
}

func (d Integer) check(v any) error {
	n, ok := v.(int)
	if !ok {
		return configErrorf("expected int, got %T", v)
	}

	if n < d.Low || n > d.High {
		return configErrorf("value %d outside [%d, %d]", n, d.Low, d.High)
	}

	return nil
}

func (d Categorical) sample(rng *rand.Rand) any {
	return d.Values[rng.Intn(len(d.Values))]
}

func (d Categorical) encode(v any) float64 {
	s := v.(string)

	idx := 0

	for i, val := range d.Values {
		if val == s {
			idx = i

			break
		}
	}

	if len(d.Values) == 1 {
		return 0
	}

	return float64(idx) / float64(len(d.Values)-1)
}

func (d Categorical) decode(t float64) any {
	idx := int(math.Round(clip(t, 0, 1) * float64(len(d.Values)-1)))

	return d.Values[clip(idx, 0, len(d.Values)-1)]
}

func (d Categorical) categorical() bool { return true }

func (d Categorical) validate() error {
	if len(d.Values) == 0 {
		return configErrorf("categorical dimension requires at least one value")
	}

	return nil
}

func (d Categorical) check(v any) error {
	s, ok := v.(string)
	if !ok {
		return configErrorf("expected string, got %T", v)
	}

	for _, val := range d.Values {
		if val == s {
			return nil
		}
	}

	return configErrorf("unknown category %q, valid values are %v", s, d.Values)
}

//////
// Space implementation.
//////

// Sample draws n decoded points uniformly from the space.
func (s *ParamSpace) Sample(rng *rand.Rand, n int) []Point {
	points := make([]Point, n)
	for i := range points {
		p := make(Point, len(s.dims))
		for j, d := range s.dims {
			p[j] = d.sample(rng)
		}

		points[i] = p
	}

	return points
}

// Encode maps a decoded point into the normalized numeric representation
// used by the surrogate model, one value in [0, 1] per dimension.
func (s *ParamSpace) Encode(x Point) []float64 {
	v := make([]float64, len(s.dims))
	for i, d := range s.dims {
		v[i] = d.encode(x[i])
	}

	return v
}

// Decode maps a normalized vector back to a decoded point, rounding
// discrete dimensions to their nearest valid value.
func (s *ParamSpace) Decode(v []float64) Point {
	x := make(Point, len(s.dims))
	for i, d := range s.dims {
		x[i] = d.decode(v[i])
	}

	return x
}

// Bounds returns the box bounds of the encoded representation. All
// dimensions are normalized, so every bound is [0, 1].
func (s *ParamSpace) Bounds() [][2]float64 {
	bounds := make([][2]float64, len(s.dims))
	for i := range bounds {
		bounds[i] = [2]float64{0, 1}
	}

	return bounds
}

// HasCategorical reports whether any dimension is categorical.
func (s *ParamSpace) HasCategorical() bool {
	for _, d := range s.dims {
		if d.categorical() {
			return true
		}
	}

	return false
}

// CheckPoint verifies that a decoded point belongs to the space: the right
// number of values, each of the right type and within its dimension's
// bounds. The driver uses it to reject invalid user-supplied initial
// points before spending any evaluation on them.
func (s *ParamSpace) CheckPoint(x Point) error {
	if len(x) != len(s.dims) {
		return configErrorf("point has %d values, space has %d dimensions", len(x), len(s.dims))
	}

	for i, d := range s.dims {
		if err := d.check(x[i]); err != nil {
			return configErrorf("dimension %d: %v", i, err)
		}
	}

	return nil
}

// NDims returns the number of dimensions of the space.
func (s *ParamSpace) NDims() int { return len(s.dims) }

//////
// Factory.
//////

// NewSpace builds a ParamSpace from the given dimensions, validating each
// dimension's bounds.
//
// Usage example:
//
//	space, err := NewSpace(
//	    Real{Low: -2, High: 2},
//	    Integer{Low: 1, High: 64},
//	    Categorical{Values: []string{"adam", "sgd"}},
//	)
func NewSpace(dims ...Dimension) (*ParamSpace, error) {
	if len(dims) == 0 {
		return nil, configErrorf("search space requires at least one dimension")
	}

	for i, d := range dims {
		if err := d.validate(); err != nil {
			return nil, configErrorf("dimension %d: %v", i, err)
		}
	}

	return &ParamSpace{dims: dims}, nil
}
