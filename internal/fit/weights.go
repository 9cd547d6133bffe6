package fit

import (
	"fmt"
	"math"
)

// Weights is the share of each criterion in the overall score.
type Weights struct {
	Skills     float64 `json:"skills"`
	Budget     float64 `json:"budget"`
	Experience float64 `json:"experience"`
	Portfolio  float64 `json:"portfolio"`
}

// Sum of all weights.
func (w Weights) Sum() float64 {
	return w.Skills + w.Budget + w.Experience + w.Portfolio
}

// Weights are fixed per complexity so scores stay comparable across calls.
var weights = map[Complexity]Weights{
	Low:    {Skills: 0.40, Budget: 0.35, Experience: 0.10, Portfolio: 0.15},
	Medium: {Skills: 0.40, Budget: 0.30, Experience: 0.15, Portfolio: 0.15},
	High:   {Skills: 0.35, Budget: 0.20, Experience: 0.25, Portfolio: 0.20},
}

// assumedHours turns a fixed price budget into an implied hourly rate.
var assumedHours = map[Complexity]float64{
	Low:    20,
	Medium: 40,
	High:   80,
}

// experienceThreshold is the years of experience at which adequacy reaches 0.8.
var experienceThreshold = map[Complexity]float64{
	Low:    1,
	Medium: 3,
	High:   5,
}

func init() {
	for _, c := range []Complexity{Low, Medium, High} {
		w, ok := weights[c]
		if !ok {
			panic(fmt.Sprintf("fit: no weights for complexity %q", c))
		}
		if math.Abs(w.Sum()-1) > 1e-9 {
			panic(fmt.Sprintf("fit: weights for complexity %q sum to %v", c, w.Sum()))
		}
		if assumedHours[c] <= 0 || experienceThreshold[c] <= 0 {
			panic(fmt.Sprintf("fit: incomplete tables for complexity %q", c))
		}
	}
}

// WeightsFor returns the weight table row for complexity.
func WeightsFor(c Complexity) Weights {
	return weights[c.orDefault()]
}
