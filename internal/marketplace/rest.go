package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"CapoWatch/internal/model"
)

// RESTClient implements Client against the marketplace's REST API.
type RESTClient struct {
	BaseURL    string
	APIKey     string
	Collection string
	HTTP       *http.Client
}

// NewRESTClient creates a client with optional proxy support.
func NewRESTClient(baseURL, apiKey, collection, proxyURL string) *RESTClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Collection: collection,
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (c *RESTClient) Name() string { return "marketplace-rest" }

// apiEvent is the wire shape of one marketplace event. Fields are parsed into
// a typed SaleEvent; anything malformed fails closed and is dropped by
// validation downstream.
type apiEvent struct {
	EventType string `json:"event_type"`
	Quantity  int    `json:"quantity"`
	CreatedAt int64  `json:"created_at"` // unix seconds
	Buyer     string `json:"buyer_address"`
	Seller    string `json:"seller_address"`
	NFT       *struct {
		TokenID string `json:"token_id"`
		Name    string `json:"name"`
	} `json:"nft"`
	Payment *struct {
		Amount   string `json:"amount"`
		Decimals int32  `json:"decimals"`
		Symbol   string `json:"symbol"`
	} `json:"payment"`
}

func (a apiEvent) toSaleEvent() model.SaleEvent {
	e := model.SaleEvent{
		Buyer:      a.Buyer,
		Seller:     a.Seller,
		OccurredAt: time.Unix(a.CreatedAt, 0).UTC(),
		Kind:       model.EventKind(a.EventType),
		Quantity:   a.Quantity,
	}
	if a.NFT != nil {
		e.AssetID = a.NFT.TokenID
		e.AssetName = a.NFT.Name
	}
	if a.Payment != nil {
		e.Payment = model.Payment{
			Amount:   a.Payment.Amount,
			Decimals: a.Payment.Decimals,
			Symbol:   a.Payment.Symbol,
		}
	}
	return e
}

func (c *RESTClient) RecentSales(ctx context.Context, limit int) ([]model.SaleEvent, error) {
	endpoint := fmt.Sprintf("%s/api/v2/events?collection=%s&event_type=sale&limit=%d",
		c.BaseURL, url.QueryEscape(c.Collection), limit)

	var payload struct {
		Events []apiEvent `json:"events"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	events := make([]model.SaleEvent, 0, len(payload.Events))
	for _, ae := range payload.Events {
		events = append(events, ae.toSaleEvent())
	}
	return events, nil
}

func (c *RESTClient) HoldingCount(ctx context.Context, address string) (int, error) {
	endpoint := fmt.Sprintf("%s/api/v2/accounts/%s/nfts?collection=%s&count_only=true",
		c.BaseURL, url.PathEscape(address), url.QueryEscape(c.Collection))

	var payload struct {
		Count int `json:"count"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return 0, fmt.Errorf("fetch holding count: %w", err)
	}
	return payload.Count, nil
}

func (c *RESTClient) Floor(ctx context.Context) (FloorQuote, error) {
	endpoint := fmt.Sprintf("%s/api/v2/collections/%s/stats",
		c.BaseURL, url.PathEscape(c.Collection))

	var payload struct {
		FloorPrice string `json:"floor_price"`
		Symbol     string `json:"symbol"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return FloorQuote{}, fmt.Errorf("fetch floor: %w", err)
	}
	price, err := decimal.NewFromString(payload.FloorPrice)
	if err != nil {
		return FloorQuote{}, fmt.Errorf("parse floor price %q: %w", payload.FloorPrice, err)
	}
	return FloorQuote{Price: price, Symbol: payload.Symbol}, nil
}

func (c *RESTClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-KEY", c.APIKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
