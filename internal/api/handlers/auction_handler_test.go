package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/infrastructure/memstore"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

type staticDirectory struct{}

func (staticDirectory) ResolveUser(_ context.Context, userID string) (*domain.UserInfo, error) {
	if userID == "missing" {
		return nil, domain.ErrUserNotFound
	}
	return &domain.UserInfo{ID: userID, Name: "name of " + userID}, nil
}

type dropPublisher struct{}

func (dropPublisher) PublishAuctionEvent(context.Context, *domain.AuctionEvent) error { return nil }

type frozenClock struct{ now time.Time }

func (c frozenClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T) (*echo.Echo, *memstore.Store, frozenClock) {
	t.Helper()
	clock := frozenClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := memstore.New()
	engine := services.NewEngine(store, staticDirectory{}, dropPublisher{},
		services.NewIncrementPolicy(nil), clock, services.DefaultEngineConfig(), logger.NewNop())

	e := echo.New()
	NewAuctionHandler(engine, logger.NewNop()).Register(e.Group("/api/v1"))
	return e, store, clock
}

func seedAuction(t *testing.T, store *memstore.Store, clock frozenClock, id string, endsIn time.Duration) {
	t.Helper()
	err := store.Create(context.Background(), &domain.Auction{
		ID:                 id,
		SellerID:           "seller",
		SellerName:         "name of seller",
		ProductName:        "turntable",
		ProductDescription: "belt drive, new stylus",
		Category:           "electronics",
		Condition:          "Good",
		BasePrice:          100,
		CurrentHighestBid:  100,
		StartTime:          clock.now,
		EndTime:            clock.now.Add(endsIn),
		Status:             domain.AuctionActive,
	})
	assert.Nil(t, err)
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	assert.Nil(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateAuction(t *testing.T) {
	e, _, clock := newTestServer(t)

	payload := fmt.Sprintf(`{
		"seller_id": "seller",
		"product_name": "turntable",
		"product_description": "belt drive, new stylus",
		"category": "electronics",
		"condition": "Good",
		"base_price": 100,
		"auction_end_time": %q
	}`, clock.now.Add(24*time.Hour).Format(time.RFC3339))

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions", payload)
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	check.Equal(t, "active", body["status"])
	check.Equal(t, 100.0, body["current_highest_bid"])
	check.Equal(t, "name of seller", body["seller_name"])
}

func TestCreateAuction_InvalidBasePrice(t *testing.T) {
	e, _, clock := newTestServer(t)

	payload := fmt.Sprintf(`{
		"seller_id": "seller",
		"product_name": "turntable",
		"product_description": "belt drive",
		"category": "electronics",
		"condition": "Good",
		"base_price": 0,
		"auction_end_time": %q
	}`, clock.now.Add(24*time.Hour).Format(time.RFC3339))

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions", payload)
	check.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitBid_Accepted(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", time.Hour)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/a1/bids",
		`{"bidder_id": "u1", "bid_amount": 120}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	check.Equal(t, 120.0, body["current_highest_bid"])
	check.Equal(t, "u1", body["highest_bidder_id"])
}

func TestSubmitBid_UnknownAuction(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/nope/bids",
		`{"bidder_id": "u1", "bid_amount": 120}`)
	check.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitBid_TooLowIncludesMinimum(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", time.Hour)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/a1/bids",
		`{"bidder_id": "u1", "bid_amount": 50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	check.Equal(t, 100.0, body["minimum_bid"])
}

func TestSubmitBid_SelfBid(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", time.Hour)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/a1/bids",
		`{"bidder_id": "seller", "bid_amount": 150}`)
	check.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitBid_ClosedAuction(t *testing.T) {
	e, store, clock := newTestServer(t)
	// Deadline already behind the frozen clock.
	seedAuction(t, store, clock, "a1", -time.Minute)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/a1/bids",
		`{"bidder_id": "u1", "bid_amount": 150}`)
	check.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitBid_MissingBidder(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", time.Hour)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/a1/bids", `{"bid_amount": 150}`)
	check.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAuction(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", time.Hour)

	rec := doJSON(e, http.MethodGet, "/api/v1/auctions/a1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	check.Equal(t, "a1", body["id"])
	check.Equal(t, "active", body["status"])
}

func TestGetAuction_ExpiredShowsTerminalStatus(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", -time.Minute)

	rec := doJSON(e, http.MethodGet, "/api/v1/auctions/a1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	check.Equal(t, "ended_no_bids", body["status"])
}

func TestListAuctions(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", time.Hour)
	seedAuction(t, store, clock, "a2", 2*time.Hour)

	rec := doJSON(e, http.MethodGet, "/api/v1/auctions", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	auctions, ok := body["auctions"].([]interface{})
	assert.True(t, ok)
	check.Equal(t, 2, len(auctions))
}

func TestListAuctions_EmptyIsAnArray(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/auctions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	check.True(t, strings.Contains(rec.Body.String(), `"auctions":[]`))
}

func TestCancelAuction(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", time.Hour)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/a1/cancel", `{"caller_id": "seller"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	check.Equal(t, "cancelled", body["status"])
}

func TestCancelAuction_NotSeller(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", time.Hour)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/a1/cancel", `{"caller_id": "intruder"}`)
	check.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFinalizeAuction(t *testing.T) {
	e, store, clock := newTestServer(t)
	seedAuction(t, store, clock, "a1", -time.Minute)

	rec := doJSON(e, http.MethodPost, "/api/v1/auctions/a1/finalize", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	check.Equal(t, "ended_no_bids", body["status"])
}
