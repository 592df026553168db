package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CapoWatch/internal/checkpoint"
	"CapoWatch/internal/marketplace"
	"CapoWatch/internal/model"
	"CapoWatch/internal/rank"
	"CapoWatch/internal/recorder"
	"CapoWatch/internal/render"
)

// fakePublisher records posts and can be told to fail.
type fakePublisher struct {
	posts     []model.Post
	failFirst int  // fail this many publishes outright
	failMedia bool // fail any publish carrying media
	calls     int
}

func (f *fakePublisher) Name() string                   { return "fake" }
func (f *fakePublisher) Verify(_ context.Context) error { return nil }
func (f *fakePublisher) Publish(_ context.Context, post model.Post) error {
	f.calls++
	if f.calls <= f.failFirst {
		return errors.New("publish failed")
	}
	if f.failMedia && len(post.Media) > 0 {
		return errors.New("media rejected")
	}
	f.posts = append(f.posts, post)
	return nil
}

type fakeRenderer struct {
	buf []byte
	err error
}

func (f *fakeRenderer) RenderCard(_ context.Context, _ render.CardRequest) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.buf, nil
}
func (f *fakeRenderer) Available(_ context.Context) bool { return f.err == nil }

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func sale(id string, at time.Time, buyer, seller string) model.SaleEvent {
	return model.SaleEvent{
		AssetID:    id,
		AssetName:  "Famiglia #" + id,
		Buyer:      buyer,
		Seller:     seller,
		Payment:    model.Payment{Amount: "1000000000000000000", Decimals: 18, Symbol: "ETH"},
		OccurredAt: at,
		Kind:       model.KindSale,
		Quantity:   1,
	}
}

func newTestPipeline(t *testing.T, mock *marketplace.MockClient, pub *fakePublisher, r render.Renderer) *Pipeline {
	t.Helper()
	cfg := Config{
		FetchLimit:     50,
		BatchCap:       3,
		Pace:           0,
		RetryAttempts:  2,
		RetryBaseDelay: time.Millisecond,
		AlertThreshold: 20 * time.Hour,
	}
	store := checkpoint.NewStore(filepath.Join(t.TempDir(), "checkpoint.json"))
	resolver := rank.NewResolver(mock, 2, time.Millisecond)
	p := New(cfg, mock, resolver, pub, r, store, recorder.NewNoopRecorder())
	p.now = func() time.Time { return t0.Add(time.Minute) }
	return p
}

func seedCheckpoint(p *Pipeline, cp model.Checkpoint) {
	p.store.Save(model.CheckpointUpdate{LastCheck: &cp.LastCheck, LastFloorAlert: &cp.LastFloorAlert})
}

func TestFetchRecentSales_FiltersValidatesDedupes(t *testing.T) {
	stale := sale("1", t0.Add(-time.Minute), "0xa", "0xb")
	fresh := sale("2", t0.Add(10*time.Second), "0xa", "0xb")
	dup := fresh
	bundle := sale("3", t0.Add(20*time.Second), "0xa", "0xb")
	bundle.Quantity = 2
	free := sale("4", t0.Add(30*time.Second), "0xa", "0xb")
	free.Payment = model.Payment{Amount: "0", Decimals: 18, Symbol: "ETH"}
	listing := sale("5", t0.Add(40*time.Second), "0xa", "0xb")
	listing.Kind = model.KindListing
	noBuyer := sale("6", t0.Add(50*time.Second), "", "0xb")

	mock := &marketplace.MockClient{Sales: []model.SaleEvent{stale, fresh, dup, bundle, free, listing, noBuyer}}
	p := newTestPipeline(t, mock, &fakePublisher{}, &fakeRenderer{err: render.ErrUnavailable})

	out := p.FetchRecentSales(context.Background(), model.Checkpoint{LastCheck: t0})
	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].AssetID)
}

func TestFetchRecentSales_KeepsMarketplaceOrder(t *testing.T) {
	// Reverse-chronological input stays reverse-chronological.
	e1 := sale("1", t0.Add(30*time.Second), "0xa", "")
	e2 := sale("2", t0.Add(20*time.Second), "0xb", "")
	e3 := sale("3", t0.Add(10*time.Second), "0xc", "")
	mock := &marketplace.MockClient{Sales: []model.SaleEvent{e1, e2, e3}}
	p := newTestPipeline(t, mock, &fakePublisher{}, &fakeRenderer{err: render.ErrUnavailable})

	out := p.FetchRecentSales(context.Background(), model.Checkpoint{LastCheck: t0})
	require.Len(t, out, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{out[0].AssetID, out[1].AssetID, out[2].AssetID})
}

func TestFetchRecentSales_OutageDegradesToEmpty(t *testing.T) {
	mock := &marketplace.MockClient{SalesErr: errors.New("502")}
	p := newTestPipeline(t, mock, &fakePublisher{}, &fakeRenderer{err: render.ErrUnavailable})

	out := p.FetchRecentSales(context.Background(), model.Checkpoint{LastCheck: t0})
	assert.Empty(t, out)
	assert.Equal(t, 2, mock.SalesCalls) // bounded retry, then give up
}

func TestProcessBatch_CapLimitsAttempts(t *testing.T) {
	var events []model.SaleEvent
	for i := 0; i < 10; i++ {
		events = append(events, sale(fmt.Sprintf("%d", i), t0.Add(time.Duration(i)*time.Second), "0xa", ""))
	}
	pub := &fakePublisher{}
	mock := &marketplace.MockClient{Holdings: map[string]int{"0xa": 3}}
	p := newTestPipeline(t, mock, pub, &fakeRenderer{err: render.ErrUnavailable})

	report := p.ProcessBatch(context.Background(), events)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Published)
	assert.Equal(t, 7, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, pub.posts, 3)
}

func TestProcessBatch_MediaFailureFallsBackToText(t *testing.T) {
	pub := &fakePublisher{failMedia: true}
	mock := &marketplace.MockClient{Holdings: map[string]int{"0xa": 3}}
	p := newTestPipeline(t, mock, pub, &fakeRenderer{buf: []byte{0x89}})

	report := p.ProcessBatch(context.Background(), []model.SaleEvent{sale("1", t0, "0xa", "")})
	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, pub.posts, 1)
	assert.Empty(t, pub.posts[0].Media) // landed without the attachment
}

func TestProcessBatch_FailedEventDoesNotBlockRest(t *testing.T) {
	pub := &fakePublisher{failFirst: 2} // first event fails text-only too
	mock := &marketplace.MockClient{Holdings: map[string]int{"0xa": 3}}
	p := newTestPipeline(t, mock, pub, &fakeRenderer{buf: []byte{0x89}})

	events := []model.SaleEvent{
		sale("1", t0, "0xa", ""),
		sale("2", t0.Add(time.Second), "0xa", ""),
	}
	report := p.ProcessBatch(context.Background(), events)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 1, report.Failed)
}

func TestAlertDue_Gating(t *testing.T) {
	threshold := 20 * time.Hour
	now := t0

	assert.True(t, AlertDue(model.Checkpoint{}, threshold, now), "never alerted")
	assert.False(t, AlertDue(model.Checkpoint{LastFloorAlert: now.Add(-19 * time.Hour)}, threshold, now))
	assert.True(t, AlertDue(model.Checkpoint{LastFloorAlert: now.Add(-21 * time.Hour)}, threshold, now))
}

func TestRun_EndToEndConsolidation(t *testing.T) {
	event := sale("412", t0.Add(10*time.Second), "0xwhale", "0xexited")
	mock := &marketplace.MockClient{
		Sales:    []model.SaleEvent{event},
		Holdings: map[string]int{"0xwhale": 30, "0xexited": 0},
	}
	pub := &fakePublisher{}
	p := newTestPipeline(t, mock, pub, &fakeRenderer{err: render.ErrUnavailable})
	seedCheckpoint(p, model.Checkpoint{LastCheck: t0})

	report := p.Run(context.Background())

	assert.Equal(t, 1, report.Published)
	require.Len(t, pub.posts, 1)
	assert.Contains(t, pub.posts[0].Text, "CONSOLIDATES")
	assert.Contains(t, pub.posts[0].Text, "GODFATHER")

	cp := p.store.Load()
	assert.True(t, cp.LastCheck.After(t0.Add(9*time.Second)), "checkpoint advanced past the sale")
	assert.True(t, cp.LastCheck.Equal(event.OccurredAt))
}

func TestRun_ReprocessingIsAtLeastOnce(t *testing.T) {
	// An unchanged checkpoint plus an unchanged upstream event set reprocesses
	// the same event: a duplicate post, never a crash or corrupted state.
	event := sale("412", t0.Add(10*time.Second), "0xwhale", "0xexited")
	mock := &marketplace.MockClient{
		Sales:    []model.SaleEvent{event},
		Holdings: map[string]int{"0xwhale": 30, "0xexited": 0},
	}
	pub := &fakePublisher{}
	p := newTestPipeline(t, mock, pub, &fakeRenderer{err: render.ErrUnavailable})

	cp := model.Checkpoint{LastCheck: t0}
	first := p.ProcessBatch(context.Background(), p.FetchRecentSales(context.Background(), cp))
	second := p.ProcessBatch(context.Background(), p.FetchRecentSales(context.Background(), cp))

	assert.Equal(t, first, second)
	assert.Len(t, pub.posts, 2) // duplicate post, by design
}

func TestRun_QuietPeriodEmitsFloorAlert(t *testing.T) {
	mock := &marketplace.MockClient{
		FloorQuote: marketplace.FloorQuote{Price: decimal.RequireFromString("0.42"), Symbol: "ETH"},
	}
	pub := &fakePublisher{}
	p := newTestPipeline(t, mock, pub, &fakeRenderer{err: render.ErrUnavailable})
	seedCheckpoint(p, model.Checkpoint{
		LastCheck:      t0,
		LastFloorAlert: t0.Add(-21 * time.Hour),
	})

	p.Run(context.Background())

	require.Len(t, pub.posts, 1)
	assert.Contains(t, pub.posts[0].Text, "0.42 ETH")
	cp := p.store.Load()
	assert.True(t, cp.LastFloorAlert.After(t0), "alert timestamp advanced")
}

func TestRun_AlertSuppressedWhenSalesPresent(t *testing.T) {
	event := sale("1", t0.Add(10*time.Second), "0xa", "")
	mock := &marketplace.MockClient{
		Sales:      []model.SaleEvent{event},
		Holdings:   map[string]int{"0xa": 3},
		FloorQuote: marketplace.FloorQuote{Price: decimal.RequireFromString("0.42"), Symbol: "ETH"},
	}
	pub := &fakePublisher{}
	p := newTestPipeline(t, mock, pub, &fakeRenderer{err: render.ErrUnavailable})
	seedCheckpoint(p, model.Checkpoint{
		LastCheck:      t0,
		LastFloorAlert: t0.Add(-48 * time.Hour), // long overdue
	})

	p.Run(context.Background())

	// Only the sale posted; the alert waits for a genuinely quiet run.
	require.Len(t, pub.posts, 1)
	assert.NotContains(t, pub.posts[0].Text, "floor")
}

func TestRun_AlertNotDueStaysQuiet(t *testing.T) {
	mock := &marketplace.MockClient{}
	pub := &fakePublisher{}
	p := newTestPipeline(t, mock, pub, &fakeRenderer{err: render.ErrUnavailable})
	seedCheckpoint(p, model.Checkpoint{
		LastCheck:      t0,
		LastFloorAlert: t0.Add(-19 * time.Hour),
	})

	p.Run(context.Background())
	assert.Empty(t, pub.posts)
}
