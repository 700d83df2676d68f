package handlers

import (
	"errors"
	"net/http"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AuctionHandler struct {
	engine *services.Engine
	log    logger.Logger
}

func NewAuctionHandler(engine *services.Engine, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		engine: engine,
		log:    log,
	}
}

// Register mounts all auction routes on the given group.
func (h *AuctionHandler) Register(g *echo.Group) {
	g.POST("/auctions", h.CreateAuction)
	g.GET("/auctions", h.ListAuctions)
	g.GET("/auctions/:id", h.GetAuction)
	g.POST("/auctions/:id/bids", h.SubmitBid)
	g.POST("/auctions/:id/cancel", h.CancelAuction)
	g.POST("/auctions/:id/finalize", h.FinalizeAuction)
}

type CreateAuctionRequest struct {
	SellerID           string    `json:"seller_id"`
	ProductName        string    `json:"product_name"`
	ProductDescription string    `json:"product_description"`
	Category           string    `json:"category"`
	Condition          string    `json:"condition"`
	SellerLocation     string    `json:"seller_location"`
	Brand              string    `json:"brand"`
	Model              string    `json:"model"`
	ImageURL           string    `json:"image_url"`
	BasePrice          float64   `json:"base_price"`
	EndTime            time.Time `json:"auction_end_time"`
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}

	auction, err := h.engine.CreateAuction(c.Request().Context(), services.CreateAuctionParams{
		SellerID:           req.SellerID,
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		Category:           req.Category,
		Condition:          req.Condition,
		SellerLocation:     req.SellerLocation,
		Brand:              req.Brand,
		Model:              req.Model,
		ImageURL:           req.ImageURL,
		BasePrice:          req.BasePrice,
		EndTime:            req.EndTime,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusCreated, auction)
}

func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	filter := domain.ListFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("q"),
	}

	auctions, err := h.engine.ListActive(c.Request().Context(), filter)
	if err != nil {
		return h.writeError(c, err)
	}
	if auctions == nil {
		auctions = []*domain.Auction{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"auctions": auctions})
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.engine.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, auction)
}

type BidRequest struct {
	BidderID string  `json:"bidder_id"`
	Amount   float64 `json:"bid_amount"`
}

func (h *AuctionHandler) SubmitBid(c echo.Context) error {
	var req BidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}
	if req.BidderID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("bidder_id is required"))
	}

	auction, err := h.engine.SubmitBid(c.Request().Context(), c.Param("id"), req.BidderID, req.Amount)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, auction)
}

type CancelRequest struct {
	CallerID string `json:"caller_id"`
}

func (h *AuctionHandler) CancelAuction(c echo.Context) error {
	var req CancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}
	if req.CallerID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("caller_id is required"))
	}

	auction, err := h.engine.Cancel(c.Request().Context(), c.Param("id"), req.CallerID)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, auction)
}

// FinalizeAuction is the administrative trigger; the sweeper performs the
// same operation on its own schedule.
func (h *AuctionHandler) FinalizeAuction(c echo.Context) error {
	auction, err := h.engine.Finalize(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) writeError(c echo.Context, err error) error {
	var tooLow *domain.BidTooLowError

	switch {
	case errors.Is(err, domain.ErrAuctionNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, errorBody(err.Error()))

	case errors.As(err, &tooLow):
		body := errorBody(err.Error())
		body["minimum_bid"] = tooLow.Minimum
		return c.JSON(http.StatusBadRequest, body)

	case errors.Is(err, domain.ErrSelfBidForbidden), errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorBody(err.Error()))

	case errors.Is(err, domain.ErrAuctionClosed), errors.Is(err, domain.ErrInvalidState):
		return c.JSON(http.StatusConflict, errorBody(err.Error()))

	case errors.Is(err, domain.ErrContention):
		return c.JSON(http.StatusServiceUnavailable, errorBody(err.Error()))

	case errors.Is(err, services.ErrInvalidBasePrice),
		errors.Is(err, services.ErrInvalidEndTime),
		errors.Is(err, services.ErrMissingProductInfo):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	h.log.Error("Request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
}

func errorBody(message string) map[string]interface{} {
	return map[string]interface{}{"error": message}
}
