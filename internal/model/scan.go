package model

import "time"

// ImageReport holds the per-image outcome of a scan.
// ObjectKey points at the archived original in object storage. PHash is the
// perceptual hash used for near-duplicate detection. AIScore is the highest
// AI-indicating label score the classifier returned for this image, or 0 if
// inference was unavailable.
type ImageReport struct {
	ObjectKey   string  `json:"object_key"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	Size        int64   `json:"size"`
	PHash       string  `json:"phash"`
	AIScore     float64 `json:"ai_score"`
	TopLabel    string  `json:"top_label,omitempty"`
	Flagged     bool    `json:"flagged"`
}

// Scan represents one completed profile analysis.
// This is a pure domain model with no database-specific dependencies or tags.
// Degraded is set when the classifier was unreachable for at least one image,
// meaning the verdict rests on heuristics alone for those images.
type Scan struct {
	ID         string        `json:"id"`
	Verdict    string        `json:"verdict"`
	RiskScore  int           `json:"risk_score"`
	TopAIScore float64       `json:"top_ai_score"`
	ModelID    string        `json:"model_id"`
	Bio        string        `json:"bio,omitempty"`
	Signals    []string      `json:"signals"`
	Images     []ImageReport `json:"images"`
	Degraded   bool          `json:"degraded"`
	CreatedAt  time.Time     `json:"created_at"`
}
