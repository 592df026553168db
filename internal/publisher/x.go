package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"CapoWatch/internal/model"
)

// XPublisher posts to the X API v2. Media buffers are uploaded first and
// attached to the tweet by id.
type XPublisher struct {
	BaseURL     string // e.g. https://api.x.com
	UploadURL   string // e.g. https://upload.twitter.com
	BearerToken string
	HTTP        *http.Client
}

// NewXPublisher creates a publisher with optional proxy support.
func NewXPublisher(baseURL, uploadURL, bearerToken, proxyURL string) *XPublisher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &XPublisher{
		BaseURL:     baseURL,
		UploadURL:   uploadURL,
		BearerToken: bearerToken,
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (p *XPublisher) Name() string { return "x" }

// Publish uploads any media, then creates the tweet.
func (p *XPublisher) Publish(ctx context.Context, post model.Post) error {
	var mediaIDs []string
	for i, buf := range post.Media {
		id, err := p.uploadMedia(ctx, buf)
		if err != nil {
			return fmt.Errorf("upload media %d: %w", i, err)
		}
		mediaIDs = append(mediaIDs, id)
	}

	payload := map[string]any{"text": post.Text}
	if len(mediaIDs) > 0 {
		payload["media"] = map[string]any{"media_ids": mediaIDs}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.BearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("create tweet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("x api error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Verify hits the authenticated-user endpoint to confirm credentials.
func (p *XPublisher) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/2/users/me", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.BearerToken)
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("verify credentials: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verify credentials: status %d", resp.StatusCode)
	}
	return nil
}

func (p *XPublisher) uploadMedia(ctx context.Context, buf []byte) (string, error) {
	form := url.Values{}
	form.Set("media_data", base64.StdEncoding.EncodeToString(buf))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.UploadURL+"/1.1/media/upload.json", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.BearerToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("media upload: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode media upload response: %w", err)
	}
	return result.MediaIDString, nil
}
