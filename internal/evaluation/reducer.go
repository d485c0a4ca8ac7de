package evaluation

import "gonum.org/v1/gonum/stat"

// ZScore95 is the two-sided 0.975 normal quantile used for the confidence
// band around the mean precision curve.
const ZScore95 = 1.959964

// Summary is the reduction of all rounds: per method, the mean and population
// standard deviation of every bundle metric, plus the mean precision
// curve with its per-position deviation for plotting.
type Summary struct {
	Methods   []string
	Rounds    int
	Mean      map[string]map[string]float64
	Std       map[string]map[string]float64
	Curve     map[string][]float64
	CurveStd  map[string][]float64
	CurveBand map[string][]float64
}

// Reduce collapses per-round method scores into a Summary. The method slice
// fixes presentation order; rounds are order-insensitive. Deviations are
// population standard deviations across rounds.
func Reduce(rounds []map[string]MethodScores, methodOrder []string) Summary {
	s := Summary{
		Methods:   methodOrder,
		Rounds:    len(rounds),
		Mean:      make(map[string]map[string]float64, len(methodOrder)),
		Std:       make(map[string]map[string]float64, len(methodOrder)),
		Curve:     make(map[string][]float64, len(methodOrder)),
		CurveStd:  make(map[string][]float64, len(methodOrder)),
		CurveBand: make(map[string][]float64, len(methodOrder)),
	}

	for _, method := range methodOrder {
		s.Mean[method] = make(map[string]float64, len(BundleMetrics))
		s.Std[method] = make(map[string]float64, len(BundleMetrics))

		samples := make([]float64, 0, len(rounds))
		for _, name := range BundleMetrics {
			samples = samples[:0]
			for _, round := range rounds {
				samples = append(samples, round[method].Metrics[name])
			}
			s.Mean[method][name] = stat.Mean(samples, nil)
			s.Std[method][name] = stat.PopStdDev(samples, nil)
		}

		curve := make([]float64, CurveLen)
		curveStd := make([]float64, CurveLen)
		band := make([]float64, CurveLen)
		for k := 0; k < CurveLen; k++ {
			samples = samples[:0]
			for _, round := range rounds {
				samples = append(samples, round[method].Curve[k])
			}
			curve[k] = stat.Mean(samples, nil)
			curveStd[k] = stat.PopStdDev(samples, nil)
			band[k] = ZScore95 * curveStd[k]
		}
		s.Curve[method] = curve
		s.CurveStd[method] = curveStd
		s.CurveBand[method] = band
	}

	return s
}
