package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/internal/services"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

type BidHandler struct {
	bidService *services.BidService
	log        logger.Logger
}

type PlaceBidRequest struct {
	BidderID string  `json:"bidder_id"`
	MaxBid   float64 `json:"max_bid"`
}

type PlaceBidResponse struct {
	Message      string    `json:"message"`
	CurrentPrice float64   `json:"current_price"`
	LeaderID     string    `json:"leader_id"`
	EndTime      time.Time `json:"end_time"`
}

func NewBidHandler(bidService *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		log:        log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid item id"})
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	item, message, err := h.bidService.PlaceBid(c.Request().Context(), itemID, req.BidderID, req.MaxBid)
	if err != nil {
		return h.bidError(c, itemID, err)
	}

	return c.JSON(http.StatusOK, PlaceBidResponse{
		Message:      message,
		CurrentPrice: item.CurrentPrice,
		LeaderID:     item.ProxyBidderID,
		EndTime:      item.EndTime,
	})
}

func (h *BidHandler) ListBids(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid item id"})
	}

	bids, err := h.bidService.BidHistory(c.Request().Context(), itemID)
	if errors.Is(err, domain.ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "item not found"})
	}
	if err != nil {
		h.log.Error("failed to list bids", "item_id", itemID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list bids"})
	}

	return c.JSON(http.StatusOK, bids)
}

func (h *BidHandler) bidError(c echo.Context, itemID int64, err error) error {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrMaxNotRaised):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrAuctionClosed),
		errors.Is(err, domain.ErrAuctionNotStarted),
		errors.Is(err, domain.ErrSellerBid):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.log.Error("failed to place bid", "item_id", itemID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to place bid"})
	}
}
