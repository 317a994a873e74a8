package gateways

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"regenwasi/internal/models"
	"regenwasi/internal/providers"
	"regenwasi/internal/structures"
)

const (
	defaultHubRetryDelay = 2 * time.Second
	defaultHubTimeout    = 10 * time.Second
)

type HubRegisterRequest struct {
	Name       string `json:"name"`
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail,omitempty"`
	AppURL     string `json:"appUrl"`
	Sprite     string `json:"sprite"`
}

type HubRegisterResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type HubStats struct {
	Happiness int `json:"happiness"`
	Energy    int `json:"energy"`
	Hunger    int `json:"hunger"`
}

type HubSyncRequest struct {
	RegenmonID      string                 `json:"regenmonId"`
	Stats           HubStats               `json:"stats"`
	TotalPoints     int                    `json:"totalPoints"`
	TrainingHistory []models.TrainingEntry `json:"trainingHistory"`
}

type HubSyncResponse struct {
	Data struct {
		Balance *int `json:"balance,omitempty"`
	} `json:"data"`
}

// HubGatewayInterface is the remote social backend: registration, periodic
// sync, leaderboard, public profiles, and the interactive feed/gift/message
// actions. Every call makes one automatic retry after a fixed delay.
type HubGatewayInterface interface {
	Register(ctx context.Context, req HubRegisterRequest) (*HubRegisterResponse, error)
	Sync(ctx context.Context, req HubSyncRequest) (*HubSyncResponse, error)
	Leaderboard(ctx context.Context, page, limit int, stage string) (json.RawMessage, error)
	Profile(ctx context.Context, id string) (json.RawMessage, error)
	Feed(ctx context.Context, targetID, fromID string) (json.RawMessage, error)
	Gift(ctx context.Context, targetID, fromID string, amount int) (json.RawMessage, error)
	Messages(ctx context.Context, targetID string) (json.RawMessage, error)
	SendMessage(ctx context.Context, targetID, fromID, fromName, message string) (json.RawMessage, error)
	Activity(ctx context.Context, id string) (json.RawMessage, error)
}

type HubGateway struct {
	baseURL    string
	retryDelay time.Duration
	httpClient *http.Client
	logger     providers.Logger
}

func NewHubGateway(conf *structures.Config, logger providers.Logger) HubGatewayInterface {
	retryDelay := conf.Hub.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultHubRetryDelay
	}
	timeout := conf.Hub.Timeout
	if timeout <= 0 {
		timeout = defaultHubTimeout
	}
	return &HubGateway{
		baseURL:    conf.Hub.BaseURL,
		retryDelay: retryDelay,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// doJSON performs one request with a single retry after the fixed delay.
func (h *HubGateway) doJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	raw, err := h.doOnce(ctx, method, path, body)
	if err == nil {
		return raw, nil
	}

	h.logger.Debugf(providers.TypeApp, "Hub call %s failed, retrying: %s", path, err)
	select {
	case <-time.After(h.retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return h.doOnce(ctx, method, path, body)
}

func (h *HubGateway) doOnce(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hub responded %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (h *HubGateway) Register(ctx context.Context, req HubRegisterRequest) (*HubRegisterResponse, error) {
	raw, err := h.doJSON(ctx, http.MethodPost, "/api/register", req)
	if err != nil {
		return nil, err
	}
	var out HubRegisterResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HubGateway) Sync(ctx context.Context, req HubSyncRequest) (*HubSyncResponse, error) {
	raw, err := h.doJSON(ctx, http.MethodPost, "/api/sync", req)
	if err != nil {
		return nil, err
	}
	var out HubSyncResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HubGateway) Leaderboard(ctx context.Context, page, limit int, stage string) (json.RawMessage, error) {
	path := fmt.Sprintf("/api/leaderboard?page=%d&limit=%d", page, limit)
	if stage != "" {
		path += "&stage=" + url.QueryEscape(stage)
	}
	return h.doJSON(ctx, http.MethodGet, path, nil)
}

func (h *HubGateway) Profile(ctx context.Context, id string) (json.RawMessage, error) {
	return h.doJSON(ctx, http.MethodGet, "/api/regenmon/"+url.PathEscape(id), nil)
}

func (h *HubGateway) Feed(ctx context.Context, targetID, fromID string) (json.RawMessage, error) {
	return h.doJSON(ctx, http.MethodPost, "/api/regenmon/"+url.PathEscape(targetID)+"/feed",
		map[string]string{"fromRegenmonId": fromID})
}

func (h *HubGateway) Gift(ctx context.Context, targetID, fromID string, amount int) (json.RawMessage, error) {
	return h.doJSON(ctx, http.MethodPost, "/api/regenmon/"+url.PathEscape(targetID)+"/gift",
		map[string]any{"fromRegenmonId": fromID, "amount": amount})
}

func (h *HubGateway) Messages(ctx context.Context, targetID string) (json.RawMessage, error) {
	return h.doJSON(ctx, http.MethodGet, "/api/regenmon/"+url.PathEscape(targetID)+"/messages?limit=20", nil)
}

func (h *HubGateway) SendMessage(ctx context.Context, targetID, fromID, fromName, message string) (json.RawMessage, error) {
	return h.doJSON(ctx, http.MethodPost, "/api/regenmon/"+url.PathEscape(targetID)+"/messages",
		map[string]string{"fromRegenmonId": fromID, "fromName": fromName, "message": message})
}

func (h *HubGateway) Activity(ctx context.Context, id string) (json.RawMessage, error) {
	return h.doJSON(ctx, http.MethodGet, "/api/regenmon/"+url.PathEscape(id)+"/activity?limit=10", nil)
}
