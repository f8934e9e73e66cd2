package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"interview-practice/internal/store"
)

type envelope struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Timestamp: time.Now().UTC(), Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Timestamp: time.Now().UTC(), Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrEmailTaken),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps store errors to statuses. Internal errors are logged and
// their text is not sent to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, status, "internal server error")
		return
	}
	fail(c, status, err.Error())
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

func decimalQuery(c *gin.Context, name string) (*decimal.Decimal, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &d, true
}

// dateRange reads start_date and end_date as YYYY-MM-DD.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.DateOnly, c.Query("start_date"))
	if err != nil {
		fail(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.DateOnly, c.Query("end_date"))
	if err != nil {
		fail(c, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// dateQuery reads a YYYY-MM-DD parameter, falling back to def when it is absent.
func dateQuery(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		fail(c, http.StatusBadRequest, name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
