package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tableside/internal/domain"
	dto "tableside/internal/microservices/ordering/domain/dto"
	"tableside/internal/microservices/ordering/service"
	"tableside/internal/microservices/ordering/session"
)

type OrderHandler struct {
	service service.OrderServiceInterface
}

func NewOrderHandler(s service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: s}
}

func (h *OrderHandler) Submit(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	o, merged, err := h.service.SubmitOrder(c.Request.Context(), who)
	if err != nil {
		writeError(c, err)
		return
	}
	if !merged {
		c.JSON(http.StatusOK, o)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) Current(c *gin.Context) {
	who, err := caller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	o, err := h.service.GetOpenOrder(c.Request.Context(), who)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Timeline(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit := atoiDefault(c.Query("limit"), 50)
	offset := atoiDefault(c.Query("offset"), 0)
	events, err := h.service.Timeline(c.Request.Context(), id, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TimelineResponse{OrderID: id, Events: events})
}

func (h *OrderHandler) Pay(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	who, err := caller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	o, err := h.service.PayOrder(c.Request.Context(), who, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) ServeLine(c *gin.Context) {
	h.lineTransition(c, h.service.ServeLine)
}

func (h *OrderHandler) PayLine(c *gin.Context) {
	h.lineTransition(c, h.service.PayLine)
}

type lineOp func(ctx context.Context, caller session.Caller, lineID int64) (domain.Order, domain.OrderLine, error)

func (h *OrderHandler) lineTransition(c *gin.Context, op lineOp) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	who, err := caller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	o, l, err := op(c.Request.Context(), who, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LineResponse{OrderID: o.ID, Line: l, TotalPrice: o.TotalPrice})
}

type HealthHandler struct {
	db     Pinger
	broker BrokerPinger
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		writeProblem(c, http.StatusServiceUnavailable, "db_unavailable", err.Error())
		return
	}
	if h.broker != nil {
		if err := h.broker.Ping(); err != nil {
			writeProblem(c, http.StatusServiceUnavailable, "broker_unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
