package marketplace

import (
	"context"

	"CapoWatch/internal/model"
)

// MockClient returns controllable fixed data for development and testing.
type MockClient struct {
	Sales      []model.SaleEvent
	SalesErr   error
	Holdings   map[string]int
	HoldingErr error
	FloorQuote FloorQuote
	FloorErr   error

	SalesCalls   int
	HoldingCalls int
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) RecentSales(_ context.Context, limit int) ([]model.SaleEvent, error) {
	m.SalesCalls++
	if m.SalesErr != nil {
		return nil, m.SalesErr
	}
	if len(m.Sales) > limit {
		return m.Sales[:limit], nil
	}
	return m.Sales, nil
}

func (m *MockClient) HoldingCount(_ context.Context, address string) (int, error) {
	m.HoldingCalls++
	if m.HoldingErr != nil {
		return 0, m.HoldingErr
	}
	return m.Holdings[address], nil
}

func (m *MockClient) Floor(_ context.Context) (FloorQuote, error) {
	if m.FloorErr != nil {
		return FloorQuote{}, m.FloorErr
	}
	return m.FloorQuote, nil
}
