package rating

import (
	"math"

	"github.com/partyhub/partyhub/pkg/model"
)

const Buckets = model.MaxScore - model.MinScore + 1

// Distribution counts each score into bucket score-1. Scores outside the valid range are ignored.
func Distribution(scores []int) [Buckets]int {
	var distribution [Buckets]int
	for _, score := range scores {
		if score < model.MinScore || score > model.MaxScore {
			continue
		}
		distribution[score-model.MinScore]++
	}
	return distribution
}

// Summary of the ratings of a party
// swagger:model RatingSummary
type Summary struct {
	Count        int          `json:"count"`
	Average      float64      `json:"average"`
	Distribution [Buckets]int `json:"distribution"`
	// Mine is the score given by the requesting user, if any
	Mine *int `json:"mine,omitempty"`
}

// Summarize computes count, average and distribution of the valid scores. The average is rounded
// to two decimals and is 0 without ratings.
func Summarize(scores []int) Summary {
	distribution := Distribution(scores)

	count, sum := 0, 0
	for bucket, n := range distribution {
		count += n
		sum += n * (bucket + model.MinScore)
	}

	var average float64
	if count > 0 {
		average = math.Round(float64(sum)/float64(count)*100) / 100
	}

	return Summary{
		Count:        count,
		Average:      average,
		Distribution: distribution,
	}
}
