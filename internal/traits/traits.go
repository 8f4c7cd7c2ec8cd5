// Package traits generates and carries immutable personality profiles.
// All traits live on a 0-100 scale and are fixed at creation; nothing in
// the simulation writes a trait after an agent is spawned.
package traits

import (
	"fmt"
	"math"

	"github.com/oswinhale/steading/internal/config"
	"github.com/oswinhale/steading/internal/rng"
)

// Vector holds the twelve traits of an agent.
type Vector struct {
	Strength          float64 `json:"strength"`
	Endurance         float64 `json:"endurance"`
	Dexterity         float64 `json:"dexterity"`
	Intelligence      float64 `json:"intelligence"`
	Patience          float64 `json:"patience"`
	RiskTolerance     float64 `json:"risk_tolerance"`
	Sociability       float64 `json:"sociability"`
	Ambition          float64 `json:"ambition"`
	Conscientiousness float64 `json:"conscientiousness"`
	Empathy           float64 `json:"empathy"`
	Creativity        float64 `json:"creativity"`
	Optimism          float64 `json:"optimism"`
}

// Generation order for the correlated block. Strength is drawn separately
// with a sex-specific distribution, so it is not part of the block.
var correlated = []string{
	"endurance", "dexterity", "intelligence", "patience", "risk_tolerance",
	"sociability", "ambition", "conscientiousness", "empathy", "creativity",
	"optimism",
}

const (
	maleStrengthMean   = 60.0
	femaleStrengthMean = 45.0
	strengthStd        = 12.0
)

// Get returns a trait by its snake_case name. Unknown names return the
// midpoint so a misspelled weight row biases nothing.
func (v Vector) Get(name string) float64 {
	switch name {
	case "strength":
		return v.Strength
	case "endurance":
		return v.Endurance
	case "dexterity":
		return v.Dexterity
	case "intelligence":
		return v.Intelligence
	case "patience":
		return v.Patience
	case "risk_tolerance":
		return v.RiskTolerance
	case "sociability":
		return v.Sociability
	case "ambition":
		return v.Ambition
	case "conscientiousness":
		return v.Conscientiousness
	case "empathy":
		return v.Empathy
	case "creativity":
		return v.Creativity
	case "optimism":
		return v.Optimism
	}
	return 50
}

// Norm returns a trait scaled to [0, 1].
func (v Vector) Norm(name string) float64 { return v.Get(name) / 100 }

func (v *Vector) set(name string, val float64) {
	switch name {
	case "strength":
		v.Strength = val
	case "endurance":
		v.Endurance = val
	case "dexterity":
		v.Dexterity = val
	case "intelligence":
		v.Intelligence = val
	case "patience":
		v.Patience = val
	case "risk_tolerance":
		v.RiskTolerance = val
	case "sociability":
		v.Sociability = val
	case "ambition":
		v.Ambition = val
	case "conscientiousness":
		v.Conscientiousness = val
	case "empathy":
		v.Empathy = val
	case "creativity":
		v.Creativity = val
	case "optimism":
		v.Optimism = val
	}
}

// Generate draws a correlated trait vector: the configured pairwise
// correlations are assembled into a matrix, Cholesky-factored, and applied
// to independent standard normals. A pure function of the stream state and
// the config.
func Generate(rs *rng.Stream, cfg *config.Config, male bool) (Vector, error) {
	n := len(correlated)
	corr := identity(n)

	index := make(map[string]int, n)
	for i, name := range correlated {
		index[name] = i
	}
	for _, c := range cfg.Traits.Correlations {
		ia, oka := index[c.A]
		ib, okb := index[c.B]
		if !oka || !okb {
			continue
		}
		corr[ia][ib] = c.Rho
		corr[ib][ia] = c.Rho
	}

	chol, err := cholesky(corr)
	if err != nil {
		return Vector{}, fmt.Errorf("trait correlations not positive definite: %w", err)
	}

	z := make([]float64, n)
	for i := range z {
		z[i] = rs.NormFloat64()
	}

	var v Vector
	for i, name := range correlated {
		sum := 0.0
		for j := 0; j <= i; j++ {
			sum += chol[i][j] * z[j]
		}
		v.set(name, clampTrait(cfg.Traits.Mean+sum*cfg.Traits.StdDev))
	}

	mean := femaleStrengthMean
	if male {
		mean = maleStrengthMean
	}
	v.Strength = clampTrait(mean + rs.NormFloat64()*strengthStd)
	return v, nil
}

// Inherit produces child traits from the parental midpoint plus noise.
// Strength blends the midpoint with the sex-typical mean.
func Inherit(a, b Vector, rs *rng.Stream, cfg *config.Config, male bool) Vector {
	var v Vector
	for _, name := range correlated {
		mid := (a.Get(name) + b.Get(name)) / 2
		v.set(name, clampTrait(mid+rs.NormFloat64()*cfg.Traits.InheritNoise))
	}

	mean := femaleStrengthMean
	if male {
		mean = maleStrengthMean
	}
	mid := (a.Strength + b.Strength) / 2
	v.Strength = clampTrait((mid+mean)/2 + rs.NormFloat64()*8)
	return v
}

func clampTrait(x float64) float64 {
	return math.Min(99, math.Max(1, x))
}

func identity(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

// cholesky returns the lower-triangular factor of a symmetric matrix,
// loading the diagonal and retrying when the matrix is not positive
// definite as given.
func cholesky(m [][]float64) ([][]float64, error) {
	n := len(m)
	for load := 0.0; load <= 0.5; load += 0.01 {
		a := make([][]float64, n)
		for i := range a {
			a[i] = append([]float64(nil), m[i]...)
			a[i][i] += load
		}
		if load > 0 {
			// Re-normalize to unit diagonal after loading.
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					a[i][j] /= math.Sqrt((m[i][i] + load) * (m[j][j] + load))
				}
			}
		}
		if l, ok := factor(a); ok {
			return l, nil
		}
	}
	return nil, fmt.Errorf("matrix not factorable after diagonal loading")
}

func factor(a [][]float64) ([][]float64, bool) {
	n := len(a)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, false
				}
				l[i][i] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, true
}
