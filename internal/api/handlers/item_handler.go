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

type ItemHandler struct {
	itemService *services.ItemService
	log         logger.Logger
}

type CreateItemRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartPrice  float64   `json:"start_price"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	SellerID    string    `json:"seller_id"`
	CategoryID  int64     `json:"category_id"`
}

func NewItemHandler(itemService *services.ItemService, log logger.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		log:         log,
	}
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.Name == "" || req.SellerID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name and seller_id are required"})
	}
	if req.StartPrice <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "start price must be positive"})
	}
	if !req.EndTime.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "end time must be in the future"})
	}

	item, err := h.itemService.CreateItem(c.Request().Context(), &domain.Item{
		Name:        req.Name,
		Description: req.Description,
		StartPrice:  req.StartPrice,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SellerID:    req.SellerID,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.log.Error("failed to create item", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create item"})
	}

	return c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid item id"})
	}

	item, err := h.itemService.GetItem(c.Request().Context(), itemID)
	if errors.Is(err, domain.ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "item not found"})
	}
	if err != nil {
		h.log.Error("failed to fetch item", "item_id", itemID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch item"})
	}

	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) ListItems(c echo.Context) error {
	items, err := h.itemService.ListActiveItems(c.Request().Context())
	if err != nil {
		h.log.Error("failed to list items", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
	}

	return c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) ListWonItems(c echo.Context) error {
	bidderID := c.QueryParam("bidder")
	if bidderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bidder is required"})
	}

	items, err := h.itemService.ListWonItems(c.Request().Context(), bidderID)
	if err != nil {
		h.log.Error("failed to list won items", "bidder_id", bidderID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list won items"})
	}

	return c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) ConfirmPayment(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid item id"})
	}

	err = h.itemService.ConfirmPayment(c.Request().Context(), itemID)
	if errors.Is(err, domain.ErrNoPendingPayment) {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	if err != nil {
		h.log.Error("failed to confirm payment", "item_id", itemID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to confirm payment"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "payment recorded"})
}
