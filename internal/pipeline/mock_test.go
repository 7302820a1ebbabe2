package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/confiauto/agency-finder/internal/cost"
	"github.com/confiauto/agency-finder/internal/model"
)

// --- Places Mock ---

type mockPlacesClient struct {
	mock.Mock
}

func (m *mockPlacesClient) SearchNearby(ctx context.Context, loc model.Location, radiusMeters int, keyword string) ([]model.Agency, error) {
	args := m.Called(ctx, loc, radiusMeters, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Agency), args.Error(1)
}

func (m *mockPlacesClient) FetchReviews(ctx context.Context, placeID string) ([]model.Review, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

// --- Deep Research Mock ---

type mockDeepClient struct {
	mock.Mock
}

func (m *mockDeepClient) Analyze(ctx context.Context, agency model.Agency) (*model.DeepAnalysis, cost.Usage, error) {
	args := m.Called(ctx, agency)
	if args.Get(0) == nil {
		return nil, args.Get(1).(cost.Usage), args.Error(2)
	}
	return args.Get(0).(*model.DeepAnalysis), args.Get(1).(cost.Usage), args.Error(2)
}
