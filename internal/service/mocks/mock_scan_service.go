package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"safeswipe/internal/model"
	"safeswipe/internal/service"
)

type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) Analyze(ctx context.Context, images []service.UploadedImage, bio string) (*model.Scan, error) {
	args := m.Called(ctx, images, bio)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Scan), args.Error(1)
}

func (m *MockScanService) List(ctx context.Context, limit, offset int) (*service.ScanListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanListResult), args.Error(1)
}

func (m *MockScanService) Get(ctx context.Context, id string) (*model.Scan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Scan), args.Error(1)
}

func (m *MockScanService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScanService) PresignImages(ctx context.Context, id string) ([]service.ImageLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ImageLink), args.Error(1)
}
