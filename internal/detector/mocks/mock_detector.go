package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"safeswipe/internal/detector"
)

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Classify(ctx context.Context, imageData []byte) ([]detector.Prediction, error) {
	args := m.Called(ctx, imageData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]detector.Prediction), args.Error(1)
}

func (m *MockDetector) CheckHealth(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDetector) ModelID() string {
	args := m.Called()
	return args.String(0)
}
