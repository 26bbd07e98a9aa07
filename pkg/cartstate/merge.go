package cartstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/angelmondragon/tristore-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	cartPath           = "/api/v1/cart"
	mergePath          = "/api/v1/cart/merge"
	defaultHTTPTimeout = 10 * time.Second
)

// MergeLine is the wire form of a guest line sent to the server.
type MergeLine struct {
	EntityType enums.EntityType `json:"entity_type"`
	EntityID   uuid.UUID        `json:"entity_id"`
	Quantity   int              `json:"quantity"`
	Size       string           `json:"size,omitempty"`
	Color      string           `json:"color,omitempty"`
}

// RejectedLine is a guest line the server refused.
type RejectedLine struct {
	MergeLine
	Reason string `json:"reason"`
}

// MergeOutcome is the server's merge verdict.
type MergeOutcome struct {
	Merged   int            `json:"merged"`
	Rejected []RejectedLine `json:"rejected"`
}

// CartAPI is the server-side cart surface the client needs.
type CartAPI interface {
	MergeGuestCart(ctx context.Context, lines []MergeLine) (*MergeOutcome, error)
	FetchCart(ctx context.Context) ([]Item, error)
}

// HTTPClient talks to the cart API over HTTP with a bearer token.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	newKey     func() string
}

// NewHTTPClient builds a client for baseURL. A nil httpClient gets a default with a timeout.
func NewHTTPClient(baseURL, token string, httpClient *http.Client) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("cartstate: base url is required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("cartstate: access token is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		newKey:     func() string { return uuid.NewString() },
	}, nil
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a non-2xx response from the cart API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("cart api: status %d", e.Status)
	}
	return fmt.Sprintf("cart api: %s: %s", e.Code, e.Message)
}

func (c *HTTPClient) MergeGuestCart(ctx context.Context, lines []MergeLine) (*MergeOutcome, error) {
	payload, err := json.Marshal(map[string]any{"items": lines})
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Data MergeOutcome `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, mergePath, payload, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// FetchCart reads the signed-in user's server cart lines.
func (c *HTTPClient) FetchCart(ctx context.Context) ([]Item, error) {
	var envelope struct {
		Data struct {
			Items []Item `json:"items"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, cartPath, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data.Items == nil {
		return []Item{}, nil
	}
	return envelope.Data.Items, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", c.newKey())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope errorBody
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cart api: decode %s response: %w", path, err)
	}
	return nil
}

// Merger moves the guest cart into the signed-in user's server cart.
type Merger struct {
	storage Storage
	api     CartAPI
	logg    *logger.Logger
}

func NewMerger(storage Storage, api CartAPI, logg *logger.Logger) (*Merger, error) {
	if storage == nil {
		return nil, errors.New("cartstate: storage is required")
	}
	if api == nil {
		return nil, errors.New("cartstate: cart api is required")
	}
	return &Merger{storage: storage, api: api, logg: logg}, nil
}

// Merge sends the stored guest lines to the server. The guest cart is cleared
// when everything merged, trimmed to the rejected lines when some were refused,
// and left untouched when the request itself failed.
func (m *Merger) Merge(ctx context.Context) (*MergeOutcome, error) {
	items, err := m.storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &MergeOutcome{Rejected: []RejectedLine{}}, nil
	}

	lines := make([]MergeLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, lineFromItem(item))
	}

	outcome, err := m.api.MergeGuestCart(ctx, lines)
	if err != nil {
		if m.logg != nil {
			m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "guest cart merge failed; keeping local cart")
		}
		return nil, err
	}

	if len(outcome.Rejected) == 0 {
		if err := m.storage.Clear(ctx); err != nil {
			return outcome, err
		}
		return outcome, nil
	}

	rejected := make(map[string]struct{}, len(outcome.Rejected))
	for _, line := range outcome.Rejected {
		rejected[line.key()] = struct{}{}
	}
	keep := make([]Item, 0, len(outcome.Rejected))
	for _, item := range items {
		if _, ok := rejected[lineFromItem(item).key()]; ok {
			keep = append(keep, item)
		}
	}
	if m.logg != nil {
		m.logg.Info(m.logg.WithFields(ctx, map[string]any{
			"merged":   outcome.Merged,
			"rejected": len(outcome.Rejected),
		}), "guest cart partially merged")
	}
	return outcome, m.storage.Save(ctx, keep)
}

func lineFromItem(item Item) MergeLine {
	return MergeLine{
		EntityType: item.EntityType,
		EntityID:   item.EntityID,
		Quantity:   item.Quantity,
		Size:       item.Size,
		Color:      item.Color,
	}
}

func (l MergeLine) key() string {
	return Item{EntityType: l.EntityType, EntityID: l.EntityID, Size: l.Size, Color: l.Color}.Key()
}
