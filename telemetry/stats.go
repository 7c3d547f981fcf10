package telemetry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldStats summarizes one diagnostic readback of the solver fields.
type FieldStats struct {
	Frame        int64   `csv:"frame"`
	DivergenceL2 float64 `csv:"divergence_l2"`
	DyeMax       float64 `csv:"dye_max"`
	DyeMean      float64 `csv:"dye_mean"`
	NaNs         int     `csv:"nans"`
}

// DivergenceL2 computes the L2 norm of a divergence field readback.
func DivergenceL2(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	v := make([]float64, len(samples))
	for i, s := range samples {
		v[i] = float64(s)
	}
	return floats.Norm(v, 2)
}

// DyeStats reduces an RGBA readback of the dye field to the max and mean of
// per-texel brightness (max of r, g, b).
func DyeStats(rgba []float32) (maxBrightness, meanBrightness float64) {
	if len(rgba) < 4 {
		return 0, 0
	}
	brightness := make([]float64, 0, len(rgba)/4)
	for i := 0; i+3 < len(rgba); i += 4 {
		b := math.Max(float64(rgba[i]), math.Max(float64(rgba[i+1]), float64(rgba[i+2])))
		brightness = append(brightness, b)
	}
	return floats.Max(brightness), stat.Mean(brightness, nil)
}

// CountNaNs reports how many samples are NaN or infinite. A healthy solver
// readback has zero.
func CountNaNs(samples []float32) int {
	n := 0
	for _, s := range samples {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			n++
		}
	}
	return n
}
