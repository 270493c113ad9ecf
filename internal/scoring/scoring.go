// Package scoring holds the pure decision logic of a scan: which model
// labels count as AI-indicating, the heuristic risk points, and the
// three-tier verdict thresholds.
package scoring

import (
	"fmt"
	"strings"

	"safeswipe/internal/detector"
)

// Verdict labels, ordered by severity.
const (
	VerdictNotAI       = "Not Made with AI"
	VerdictPotentially = "Potentially Made with AI"
	VerdictDefinitely  = "Definitely Made with AI"
)

const (
	// FlagThreshold is the per-image AI score at which a signal is emitted.
	FlagThreshold = 0.55
	// definiteThreshold and potentialThreshold gate the adjusted probability.
	definiteThreshold  = 0.85
	potentialThreshold = 0.55
	// riskThreshold alone can promote a verdict to "Potentially".
	riskThreshold = 20
	// maxHeuristicBoost caps how much heuristic risk can raise the
	// adjusted probability (risk/100, at most 0.15).
	maxHeuristicBoost = 0.15

	nearDuplicateRisk = 12
	clicheRiskPerHit  = 4
	maxClicheRisk     = 12
	maxClichesListed  = 4
)

// likelyAIKeywords mark classifier labels that indicate a synthetic image.
// Matching is a case-insensitive substring test, so "AI-generated art"
// and "fake_photo" both count.
var likelyAIKeywords = []string{"ai", "fake", "generated", "synthetic", "art"}

// NearDuplicateSignal is emitted when two uploaded photos hash too close.
const NearDuplicateSignal = "Multiple uploaded photos are near-duplicates."

// BioCliches are phrases so common in fabricated dating bios that their
// presence adds heuristic risk.
var BioCliches = []string{
	"love to travel",
	"adventure",
	"foodie",
	"spontaneous",
	"work hard play hard",
	"down to earth",
}

// AIScore extracts the image's AI probability from model predictions: the
// highest score among AI-indicating labels. The second return is the label
// that produced it, empty when no label matched.
func AIScore(preds []detector.Prediction) (float64, string) {
	var best float64
	var bestLabel string
	for _, p := range preds {
		label := strings.ToLower(p.Label)
		for _, kw := range likelyAIKeywords {
			if strings.Contains(label, kw) {
				if p.Score >= best {
					best = p.Score
					bestLabel = p.Label
				}
				break
			}
		}
	}
	return best, bestLabel
}

// AISignal formats the per-image signal for a flagged score.
func AISignal(score float64) string {
	return fmt.Sprintf("AI indicator present in an image (confidence %.1f%%).", score*100)
}

// BioClicheHits returns the clichés present in the bio, in list order.
func BioClicheHits(bio string) []string {
	if bio == "" {
		return nil
	}
	lower := strings.ToLower(bio)
	var hits []string
	for _, c := range BioCliches {
		if strings.Contains(lower, c) {
			hits = append(hits, c)
		}
	}
	return hits
}

// ClicheSignal formats the bio signal, listing at most four hits.
func ClicheSignal(hits []string) string {
	if len(hits) > maxClichesListed {
		hits = hits[:maxClichesListed]
	}
	return "Bio uses common cliches: " + strings.Join(hits, ", ")
}

// HeuristicRisk totals the non-model risk points.
func HeuristicRisk(nearDuplicates bool, clicheHits int) int {
	risk := 0
	if nearDuplicates {
		risk += nearDuplicateRisk
	}
	if clicheHits > 0 {
		r := clicheRiskPerHit * clicheHits
		if r > maxClicheRisk {
			r = maxClicheRisk
		}
		risk += r
	}
	return risk
}

// VerdictFor combines the top AI probability across images with heuristic
// risk. Risk adds a small boost to the probability and can independently
// promote the verdict to "Potentially".
func VerdictFor(topAI float64, risk int) string {
	boost := float64(risk) / 100.0
	if boost > maxHeuristicBoost {
		boost = maxHeuristicBoost
	}
	p := topAI + boost

	switch {
	case p >= definiteThreshold:
		return VerdictDefinitely
	case p >= potentialThreshold || risk >= riskThreshold:
		return VerdictPotentially
	default:
		return VerdictNotAI
	}
}
