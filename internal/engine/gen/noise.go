package gen

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Kind selects the continuous noise function terrain is sampled from.
type Kind string

const (
	// KindSimplex is smooth open-simplex noise.
	KindSimplex Kind = "simplex"
	// KindPerlin is classic Perlin gradient noise.
	KindPerlin Kind = "perlin"
	// KindRidged folds simplex noise into sharp ridge lines, suited to
	// mountainous layers.
	KindRidged Kind = "ridged"
)

// Noise is a deterministic continuous noise field with output roughly in
// [-1, 1].
type Noise interface {
	At2(x, y float64) float64
	At3(x, y, z float64) float64
}

type simplexNoise struct {
	n opensimplex.Noise
}

func (s simplexNoise) At2(x, y float64) float64    { return s.n.Eval2(x, y) }
func (s simplexNoise) At3(x, y, z float64) float64 { return s.n.Eval3(x, y, z) }

type perlinNoise struct {
	p *perlin.Perlin
}

func (p perlinNoise) At2(x, y float64) float64    { return p.p.Noise2D(x, y) }
func (p perlinNoise) At3(x, y, z float64) float64 { return p.p.Noise3D(x, y, z) }

type ridgedNoise struct {
	n opensimplex.Noise
}

func (r ridgedNoise) At2(x, y float64) float64 {
	return 1 - 2*math.Abs(r.n.Eval2(x, y))
}

func (r ridgedNoise) At3(x, y, z float64) float64 {
	return 1 - 2*math.Abs(r.n.Eval3(x, y, z))
}

// NewNoise builds the noise field for kind, seeded deterministically.
func NewNoise(kind Kind, seed int64) (Noise, error) {
	switch kind {
	case KindSimplex:
		return simplexNoise{n: opensimplex.New(seed)}, nil
	case KindPerlin:
		return perlinNoise{p: perlin.NewPerlin(2, 2, 3, seed)}, nil
	case KindRidged:
		return ridgedNoise{n: opensimplex.New(seed)}, nil
	default:
		return nil, fmt.Errorf("gen: unknown noise kind %q", kind)
	}
}
