package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tristore-backend/api/middleware"
	cartsvc "github.com/angelmondragon/tristore-backend/internal/cart"
	"github.com/angelmondragon/tristore-backend/pkg/auth"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tristore-backend/pkg/errors"
)

type stubCartService struct {
	cartsvc.Service
	view       *cartsvc.CartView
	err        error
	lastAdd    cartsvc.AddItemInput
	lastLine   uuid.UUID
	lastQty    int
	lastMerged []cartsvc.AddItemInput
	mergeOut   *cartsvc.MergeResult
}

func (s *stubCartService) GetCart(ctx context.Context, actor auth.Actor) (*cartsvc.CartView, error) {
	return s.view, s.err
}

func (s *stubCartService) AddToCart(ctx context.Context, actor auth.Actor, input cartsvc.AddItemInput) (*cartsvc.CartView, error) {
	s.lastAdd = input
	return s.view, s.err
}

func (s *stubCartService) UpdateCartItem(ctx context.Context, actor auth.Actor, lineID uuid.UUID, quantity int) (*cartsvc.CartView, error) {
	s.lastLine = lineID
	s.lastQty = quantity
	return s.view, s.err
}

func (s *stubCartService) MergeGuestCart(ctx context.Context, actor auth.Actor, items []cartsvc.AddItemInput) (*cartsvc.MergeResult, error) {
	s.lastMerged = items
	return s.mergeOut, s.err
}

func shopperRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	actor := auth.Actor{UserID: uuid.New(), Role: enums.RoleUser}
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCartFetchSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{view: &cartsvc.CartView{UserID: userID, Items: []cartsvc.LineView{}, SubtotalCents: 0}}

	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, shopperRequest(http.MethodGet, "/api/v1/cart", ""))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data cartsvc.CartView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, userID, envelope.Data.UserID)
}

func TestCartFetchRequiresActor(t *testing.T) {
	resp := httptest.NewRecorder()
	CartFetch(&stubCartService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCartAddItem(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.CartView{}}
	entityID := uuid.New()
	body := `{"entity_type":"clothes","entity_id":"` + entityID.String() + `","quantity":2,"size":"M","color":"Blue"}`

	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, shopperRequest(http.MethodPost, "/api/v1/cart/items", body))
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, entityID, svc.lastAdd.EntityID)
	assert.Equal(t, "M", svc.lastAdd.Size)
	assert.Equal(t, 2, svc.lastAdd.Quantity)
}

func TestCartAddItemRejectsBadBody(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.CartView{}}

	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, shopperRequest(http.MethodPost, "/api/v1/cart/items", `{"entity_type":"grocery","quantity":0}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCartAddItemSurfacesUnavailable(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeItemUnavailable, "Brown Eggs is unavailable").
		WithDetails(map[string]any{"item_name": "Brown Eggs", "reason": "only 1 left in stock"})}
	body := `{"entity_type":"grocery","entity_id":"` + uuid.NewString() + `","quantity":5}`

	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, shopperRequest(http.MethodPost, "/api/v1/cart/items", body))
	require.Equal(t, http.StatusConflict, resp.Code)

	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, string(pkgerrors.CodeItemUnavailable), envelope.Error.Code)
	assert.Equal(t, "only 1 left in stock", envelope.Error.Details["reason"])
}

func TestCartUpdateItem(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.CartView{}}
	lineID := uuid.New()

	req := withURLParam(shopperRequest(http.MethodPatch, "/api/v1/cart/items/"+lineID.String(), `{"quantity":3}`), "lineId", lineID.String())
	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, lineID, svc.lastLine)
	assert.Equal(t, 3, svc.lastQty)

	req = withURLParam(shopperRequest(http.MethodPatch, "/api/v1/cart/items/nope", `{"quantity":3}`), "lineId", "nope")
	resp = httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCartMerge(t *testing.T) {
	svc := &stubCartService{mergeOut: &cartsvc.MergeResult{Merged: 1, Rejected: []cartsvc.RejectedItem{}}}
	body := `{"items":[{"entity_type":"grocery","entity_id":"` + uuid.NewString() + `","quantity":1}]}`

	resp := httptest.NewRecorder()
	CartMerge(svc, nil).ServeHTTP(resp, shopperRequest(http.MethodPost, "/api/v1/cart/merge", body))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, svc.lastMerged, 1)

	var envelope struct {
		Data struct {
			Merged int `json:"merged"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, 1, envelope.Data.Merged)
}
