package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
)

const (
	// DefaultOutlierThreshold is the robust |z| above which a value counts as an outlier.
	DefaultOutlierThreshold = 3.5
	// minOutlierSample is the smallest column outliers are counted for.
	minOutlierSample = 8
	// madScale makes the MAD consistent with the standard deviation under normality.
	madScale = 0.6745
)

// Outliers summarises robust z-scores of a numeric column.
type Outliers struct {
	Count     int     `json:"count"`
	MaxAbsZ   float64 `json:"max_abs_z"`
	Threshold float64 `json:"threshold"`
}

// RobustOutliers counts values with |0.6745·(v−median)/MAD| above threshold.
// It reports false for fewer than 8 values or a zero MAD.
func RobustOutliers(vals []float64, threshold float64) (Outliers, bool) {
	if len(vals) < minOutlierSample {
		return Outliers{}, false
	}
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}
	data := stats.Float64Data(vals)
	median, err := stats.Median(data)
	if err != nil {
		return Outliers{}, false
	}
	mad, err := stats.MedianAbsoluteDeviationPopulation(data)
	if err != nil || mad == 0 {
		return Outliers{}, false
	}
	out := Outliers{Threshold: threshold}
	for _, v := range vals {
		z := math.Abs(madScale * (v - median) / mad)
		if z > out.MaxAbsZ {
			out.MaxAbsZ = z
		}
		if z > threshold {
			out.Count++
		}
	}
	return out, true
}
