package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tableside/internal/domain"
	"tableside/internal/microservices/ordering/session"
)

const (
	SessionCookie  = "session_id"
	SessionHeader  = "X-Session-ID"
	EmployeeHeader = "X-Employee-ID"
)

var kindStatus = map[domain.Kind]int{
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindUnauthorized:      http.StatusUnauthorized,
	domain.KindInvalidProduct:    http.StatusUnprocessableEntity,
	domain.KindNoActiveCart:      http.StatusConflict,
	domain.KindAlreadyPaid:       http.StatusConflict,
	domain.KindInvalidTransition: http.StatusConflict,
	domain.KindConflict:          http.StatusServiceUnavailable,
	domain.KindCorruption:        http.StatusInternalServerError,
}

// writeProblem renders an RFC 7807 problem document.
func writeProblem(c *gin.Context, code int, typ, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(code, gin.H{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

func writeError(c *gin.Context, err error) {
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		code, ok := kindStatus[de.Kind]
		if !ok {
			code = http.StatusInternalServerError
		}
		writeProblem(c, code, strings.ToLower(string(de.Kind)), de.Message)
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(c, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		_ = c.Error(err)
		writeProblem(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func sessionID(c *gin.Context) string {
	if sid, err := c.Cookie(SessionCookie); err == nil && sid != "" {
		return sid
	}
	return c.GetHeader(SessionHeader)
}

// caller reads the session and the employee vouched for by the upstream
// authenticator.
func caller(c *gin.Context) (session.Caller, error) {
	out := session.Caller{SessionID: sessionID(c)}
	if raw := c.GetHeader(EmployeeHeader); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return session.Caller{}, domain.NewError(domain.KindUnauthorized, "malformed %s header", EmployeeHeader)
		}
		out.EmployeeID = id
	}
	return out, nil
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(c, http.StatusBadRequest, "bad_request", "invalid "+name)
		return 0, false
	}
	return id, true
}

func atoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
