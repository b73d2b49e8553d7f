package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tableside/internal/microservices/kitchen/service"
)

// TicketLister is the read side of the kitchen board.
type TicketLister interface {
	Tickets() []service.Ticket
}

// BrokerPinger reports whether the consumer's broker connection is open.
type BrokerPinger interface {
	Ping() error
}

type BoardHandler struct {
	board  TicketLister
	broker BrokerPinger
}

func NewBoardHandler(board TicketLister, broker BrokerPinger) *BoardHandler {
	return &BoardHandler{board: board, broker: broker}
}

// Board lists the open tickets, oldest order first.
func (h *BoardHandler) Board(c *gin.Context) {
	tickets := h.board.Tickets()
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}

func (h *BoardHandler) Healthz(c *gin.Context) {
	if err := h.broker.Ping(); err != nil {
		c.Header("Content-Type", "application/problem+json")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"type":   "broker_unavailable",
			"title":  http.StatusText(http.StatusServiceUnavailable),
			"status": http.StatusServiceUnavailable,
			"detail": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func Router(h *BoardHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", h.Healthz)
	r.GET("/kitchen/board", h.Board)
	return r
}
