package tools

import (
	"context"
	"fmt"
	"math"
)

// NPSAnalyze computes a Net Promoter Score from 0-10 survey ratings:
// promoters are 9-10, passives 7-8, detractors 0-6, and the score is the
// promoter percentage minus the detractor percentage.
func NPSAnalyze() *Tool {
	return &Tool{
		Name:        "nps_analyze",
		Description: "Calculate a Net Promoter Score and segment breakdown from survey ratings",
		InputSchema: objectSchema(map[string]interface{}{
			"ratings": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "number", "minimum": 0, "maximum": 10},
				"description": "Survey ratings on the 0-10 scale",
			},
		}, "ratings"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			ratings, err := numberSliceArg(args, "ratings")
			if err != nil {
				return nil, err
			}
			if len(ratings) == 0 {
				return nil, fmt.Errorf("ratings must not be empty")
			}

			var promoters, passives, detractors int
			for _, r := range ratings {
				if r < 0 || r > 10 || r != math.Trunc(r) {
					return nil, fmt.Errorf("rating %v is not an integer between 0 and 10", r)
				}
				switch {
				case r >= 9:
					promoters++
				case r >= 7:
					passives++
				default:
					detractors++
				}
			}

			total := len(ratings)
			score := math.Round(float64(promoters-detractors) / float64(total) * 100)

			return map[string]interface{}{
				"score":      int(score),
				"responses":  total,
				"promoters":  promoters,
				"passives":   passives,
				"detractors": detractors,
				"breakdown": map[string]interface{}{
					"promoters":  pct(promoters, total),
					"passives":   pct(passives, total),
					"detractors": pct(detractors, total),
				},
			}, nil
		},
	}
}

func pct(n, total int) float64 {
	return math.Round(float64(n)/float64(total)*1000) / 10
}
