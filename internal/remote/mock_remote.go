package remote

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ragdash/internal/domain"
)

// MockService is a mock implementation of domain.RemoteService using testify/mock.
type MockService struct {
	mock.Mock
}

func (m *MockService) ExtractDocument(ctx context.Context, filename string, data []byte) (domain.Document, error) {
	args := m.Called(ctx, filename, data)
	return args.Get(0).(domain.Document), args.Error(1)
}

func (m *MockService) RunPipeline(ctx context.Context, text, query string, cfg domain.PipelineConfig) (domain.PipelineResult, error) {
	args := m.Called(ctx, text, query, cfg)
	return args.Get(0).(domain.PipelineResult), args.Error(1)
}
