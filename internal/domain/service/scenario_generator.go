package service

import (
	"math/rand"
	"time"

	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/pkg/errors"
)

// pathFloor keeps price and rent paths strictly positive when a draw would
// drive them to zero or below.
const pathFloor = 1e-6

// ScenarioSet holds the stochastic inputs for one simulation run.
// PricePaths and RentPaths are N x (H+1) matrices with column 0 equal to the
// base value; Rates is an N-length vector of whole-horizon interest rates.
type ScenarioSet struct {
	PricePaths [][]float64
	RentPaths  [][]float64
	Rates      []float64
	// Seed is the seed actually used, persisted so the run is reproducible.
	Seed int64
}

// Scenarios returns the scenario count N.
func (s *ScenarioSet) Scenarios() int {
	return len(s.Rates)
}

// ScenarioGenerator produces correlated price, rent and interest-rate draws
// from the configured distributions. Given the same seed and parameters the
// output is bit-for-bit identical.
type ScenarioGenerator struct {
	cfg config.SimulationConfig
}

// NewScenarioGenerator validates the parameter set and returns a generator.
// Mismatched shock/probability lengths or probabilities not summing to 1 are
// configuration errors.
func NewScenarioGenerator(cfg config.SimulationConfig) (*ScenarioGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.ErrConfiguration(err.Error())
	}
	return &ScenarioGenerator{cfg: cfg}, nil
}

// Generate draws N scenarios from the given base values. A zero configured
// seed derives one from the clock; the effective seed is recorded on the
// returned set.
func (g *ScenarioGenerator) Generate(basePrice, baseRent, baseRate float64) (*ScenarioSet, error) {
	if basePrice <= 0 {
		return nil, errors.ErrConfiguration("base price must be positive")
	}
	if baseRent <= 0 {
		return nil, errors.ErrConfiguration("base rent must be positive")
	}

	seed := g.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	n := g.cfg.Scenarios
	h := g.cfg.HorizonYears

	set := &ScenarioSet{
		PricePaths: make([][]float64, n),
		RentPaths:  make([][]float64, n),
		Rates:      make([]float64, n),
		Seed:       seed,
	}

	for i := 0; i < n; i++ {
		set.PricePaths[i] = g.compoundPath(rng, basePrice, h,
			g.cfg.PriceGrowthMean, g.cfg.PriceGrowthStd, 0, false)
		set.RentPaths[i] = g.compoundPath(rng, baseRent, h,
			g.cfg.RentGrowthMean, g.cfg.RentGrowthStd, g.cfg.RentGrowthCap, true)
		set.Rates[i] = g.drawRate(rng, baseRate)
	}

	return set, nil
}

// compoundPath compounds a per-step normal growth draw onto base, flooring
// the path at pathFloor. When capped, per-step growth never exceeds cap.
func (g *ScenarioGenerator) compoundPath(rng *rand.Rand, base float64, horizon int,
	mean, std, cap float64, capped bool) []float64 {

	path := make([]float64, horizon+1)
	path[0] = base
	for t := 1; t <= horizon; t++ {
		growth := rng.NormFloat64()*std + mean
		if capped && growth > cap {
			growth = cap
		}
		v := path[t-1] * (1 + growth)
		if v < pathFloor {
			v = pathFloor
		}
		path[t] = v
	}
	return path
}

// drawRate samples one shock from the configured discrete distribution and
// applies it to the base rate, floored at zero.
func (g *ScenarioGenerator) drawRate(rng *rand.Rand, baseRate float64) float64 {
	u := rng.Float64()
	var cum float64
	shock := g.cfg.RateShocks[len(g.cfg.RateShocks)-1]
	for i, p := range g.cfg.RateShockProbs {
		cum += p
		if u < cum {
			shock = g.cfg.RateShocks[i]
			break
		}
	}
	rate := baseRate + shock
	if rate < 0 {
		rate = 0
	}
	return rate
}
