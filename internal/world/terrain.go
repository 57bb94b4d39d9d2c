// Package world derives the colony's ground from the run seed using layered
// simplex noise. It is presentation data: nothing here touches the
// simulation's random stream.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/colony-sim/internal/entropy"
)

// Ground is the surface type at a point.
type Ground uint8

const (
	GroundWater Ground = iota
	GroundMarsh
	GroundGrass
	GroundForest
	GroundRock
)

// String returns the ground's wire name.
func (g Ground) String() string {
	switch g {
	case GroundWater:
		return "water"
	case GroundMarsh:
		return "marsh"
	case GroundGrass:
		return "grass"
	case GroundForest:
		return "forest"
	case GroundRock:
		return "rock"
	}
	return "unknown"
}

// Config holds terrain shaping parameters.
type Config struct {
	Frequency   float64 // base noise frequency per world unit
	Octaves     int
	Persistence float64
	WaterLevel  float64 // height below which ground is water (0.0–1.0)
	RockLevel   float64 // height above which ground is rock (0.0–1.0)
	ClearRadius float64 // flattened area around the colony centre
}

// DefaultConfig returns terrain tuned for a world radius of about 36.
func DefaultConfig() Config {
	return Config{
		Frequency:   0.045,
		Octaves:     4,
		Persistence: 0.5,
		WaterLevel:  0.22,
		RockLevel:   0.78,
		ClearRadius: 8,
	}
}

// Terrain samples height and moisture fields for one seed.
type Terrain struct {
	cfg      Config
	seed     int64
	height   opensimplex.Noise
	moisture opensimplex.Noise
}

// New creates terrain for a run seed string.
func New(seed string, cfg Config) *Terrain {
	n := int64(entropy.SeedFromString(seed))
	return &Terrain{
		cfg:      cfg,
		seed:     n,
		height:   opensimplex.NewNormalized(n),
		moisture: opensimplex.NewNormalized(n + 1),
	}
}

// Height returns the ground height at (x, z) in [0, 1]. The colony centre is
// blended toward mid height so the starting buildings stand on dry land.
func (t *Terrain) Height(x, z float64) float64 {
	h := octaveNoise(t.height, x, z, t.cfg.Octaves, t.cfg.Frequency, t.cfg.Persistence)
	if t.cfg.ClearRadius > 0 {
		d := math.Hypot(x, z) / t.cfg.ClearRadius
		if d < 1 {
			w := 1 - d*d
			h = h*(1-w) + 0.5*w
		}
	}
	return h
}

// Moisture returns the moisture at (x, z) in [0, 1].
func (t *Terrain) Moisture(x, z float64) float64 {
	return octaveNoise(t.moisture, x, z, 2, t.cfg.Frequency*1.5, 0.5)
}

// GroundAt classifies the surface at (x, z).
func (t *Terrain) GroundAt(x, z float64) Ground {
	return deriveGround(t.Height(x, z), t.Moisture(x, z), t.cfg)
}

func deriveGround(height, moisture float64, cfg Config) Ground {
	if height < cfg.WaterLevel {
		return GroundWater
	}
	if height > cfg.RockLevel {
		return GroundRock
	}
	if moisture > 0.68 && height < 0.4 {
		return GroundMarsh
	}
	if moisture > 0.5 {
		return GroundForest
	}
	return GroundGrass
}

// Grid is a square sampling of the terrain centred on the origin, stored
// row-major from (-Radius, -Radius).
type Grid struct {
	Radius  float64   `json:"radius"`
	Spacing float64   `json:"spacing"`
	Size    int       `json:"size"`
	Heights []float64 `json:"heights"`
	Ground  []string  `json:"ground"`
}

// Sample builds a grid covering [-radius, radius] on both axes.
func (t *Terrain) Sample(radius, spacing float64) Grid {
	if spacing <= 0 {
		spacing = 1
	}
	size := int(math.Floor(2*radius/spacing)) + 1
	g := Grid{
		Radius:  radius,
		Spacing: spacing,
		Size:    size,
		Heights: make([]float64, 0, size*size),
		Ground:  make([]string, 0, size*size),
	}
	for row := 0; row < size; row++ {
		z := -radius + float64(row)*spacing
		for col := 0; col < size; col++ {
			x := -radius + float64(col)*spacing
			g.Heights = append(g.Heights, t.Height(x, z))
			g.Ground = append(g.Ground, t.GroundAt(x, z).String())
		}
	}
	return g
}

// GroundCounts returns a summary of ground type distribution.
func GroundCounts(g Grid) map[string]int {
	counts := make(map[string]int)
	for _, name := range g.Ground {
		counts[name]++
	}
	return counts
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
