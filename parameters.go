package recall

import "fmt"

// DefaultWeights are the memory-model weights of the stability/difficulty
// policy. They are the first twenty FSRS default parameters; the trainable
// decay exponent is not used because retrievability follows exp(-t/S).
var DefaultWeights = [20]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w[0..3]  initial stability S₀(G)
	6.4133, 0.8334, 3.0194, 0.001, // w[4..7]  difficulty params (unused by the multiplicative rule)
	1.8722, 0.1666, 0.796, 1.4835, // w[8..11] recall stability params
	0.0614, 0.2629, 1.6483, 0.6014, // w[12..15] forget stability params
	1.8729, 0.5425, 0.0912, 0.0658, // w[16..19] easy/short-term params
}

// LowerBounds defines the minimum allowed value for each weight.
var LowerBounds = [20]float64{
	0.001, 0.001, 0.001, 0.001,
	1.0, 0.001, 0.001, 0.001,
	0.0, 0.0, 0.001, 0.001,
	0.001, 0.001, 0.0, 0.0,
	1.0, 0.0, 0.0, 0.0,
}

// UpperBounds defines the maximum allowed value for each weight.
var UpperBounds = [20]float64{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5, 5.0,
	0.25, 0.9, 4.0, 1.0,
	6.0, 2.0, 2.0, 0.8,
}

// ValidateWeights checks that all weights are within [LowerBounds, UpperBounds].
func ValidateWeights(w [20]float64) error {
	for i := range w {
		if w[i] < LowerBounds[i] || w[i] > UpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidParameters, i, w[i], LowerBounds[i], UpperBounds[i])
		}
	}
	return nil
}
