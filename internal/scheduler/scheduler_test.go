package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CapoWatch/internal/marketplace"
	"CapoWatch/internal/model"
	"CapoWatch/internal/publisher"
	"CapoWatch/internal/render"
)

func TestRegister_InvalidCron(t *testing.T) {
	s := NewScheduler(context.Background(), nil, &marketplace.MockClient{},
		publisher.NewDryRunPublisher(), render.NewNoopRenderer())
	assert.Error(t, s.Register("not a cron"))
}

func TestRegister_ValidCron(t *testing.T) {
	s := NewScheduler(context.Background(), nil, &marketplace.MockClient{},
		publisher.NewDryRunPublisher(), render.NewNoopRenderer())
	assert.NoError(t, s.Register("0 */5 * * * *"))
}

func TestSelftest_AllDependenciesHealthy(t *testing.T) {
	mock := &marketplace.MockClient{
		Sales: []model.SaleEvent{{
			AssetID: "1", Buyer: "0xbuyer", Kind: model.KindSale, Quantity: 1,
			Payment:    model.Payment{Amount: "1", Decimals: 0, Symbol: "ETH"},
			OccurredAt: time.Now(),
		}},
		Holdings:   map[string]int{"0xbuyer": 4},
		FloorQuote: marketplace.FloorQuote{Price: decimal.RequireFromString("0.4"), Symbol: "ETH"},
	}
	s := NewScheduler(context.Background(), nil, mock,
		publisher.NewDryRunPublisher(), render.NewNoopRenderer())

	require.NoError(t, s.Selftest(context.Background()))
	assert.Equal(t, 1, mock.HoldingCalls)
}

func TestSelftest_MarketplaceDown(t *testing.T) {
	mock := &marketplace.MockClient{SalesErr: errors.New("503")}
	s := NewScheduler(context.Background(), nil, mock,
		publisher.NewDryRunPublisher(), render.NewNoopRenderer())

	err := s.Selftest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recent sales")
}
