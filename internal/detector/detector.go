package detector

import "context"

// Prediction is one label/score pair returned by an image-classification model.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Detector classifies an image against a remote model.
// Implementations must be safe for concurrent use; Classify is called from
// multiple goroutines during a single scan.
type Detector interface {
	// Classify sends the raw encoded image and returns the model's label scores.
	Classify(ctx context.Context, imageData []byte) ([]Prediction, error)

	// CheckHealth probes the inference endpoint. Used at startup as a warning,
	// not a gate: the service still starts when the model is unreachable.
	CheckHealth(ctx context.Context) error

	// ModelID reports the model this detector is bound to.
	ModelID() string
}
