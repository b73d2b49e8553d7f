package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	dto "tableside/internal/microservices/ordering/domain/dto"
	"tableside/internal/microservices/ordering/service"
)

type CartHandler struct {
	service service.OrderServiceInterface
}

func NewCartHandler(s service.OrderServiceInterface) *CartHandler {
	return &CartHandler{service: s}
}

func (h *CartHandler) Get(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := h.service.Cart(c.Request.Context(), who)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeProblem(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	view, err := h.service.CartAdd(c.Request.Context(), who, req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	who, err := caller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := h.service.CartRemove(c.Request.Context(), who, productID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) Clear(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.service.CartClear(c.Request.Context(), who); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
