package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	dto "tableside/internal/microservices/ordering/domain/dto"
	"tableside/internal/microservices/ordering/service"
	"tableside/internal/microservices/ordering/session"
)

type TableHandler struct {
	service service.OrderServiceInterface
}

func NewTableHandler(s service.OrderServiceInterface) *TableHandler {
	return &TableHandler{service: s}
}

func (h *TableHandler) ListTables(c *gin.Context) {
	tables, err := h.service.ListTables(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TablesResponse{Tables: tables})
}

func (h *TableHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProductsResponse{Products: products})
}

// Bind attaches the caller's session to a table, issuing a session when the
// request carries none.
func (h *TableHandler) Bind(c *gin.Context) {
	tableID, ok := idParam(c, "id")
	if !ok {
		return
	}
	sid := sessionID(c)
	if sid == "" {
		sid = session.NewSessionID()
	}
	b, err := h.service.BindTable(c.Request.Context(), sid, tableID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sid, 0, "/", "", false, true)
	c.Header(SessionHeader, sid)
	c.JSON(http.StatusOK, dto.BindResponse{TableID: b.TableID, TableName: b.TableName})
}

func (h *TableHandler) Unbind(c *gin.Context) {
	if sid := sessionID(c); sid != "" {
		h.service.Unbind(sid)
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}
