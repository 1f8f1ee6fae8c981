package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"sejour/internal/app/commands"
	"sejour/internal/app/dto"
	calendarapp "sejour/internal/app/handlers/calendar"
	"sejour/internal/app/queries"
)

type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type periodRequest struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Status     string    `json:"status"`
	PriceCents *int64    `json:"price_cents"`
	Currency   string    `json:"currency"`
	Note       string    `json:"note"`
}

func (r periodRequest) input() calendarapp.PeriodInput {
	return calendarapp.PeriodInput{
		From:       r.From,
		To:         r.To,
		Status:     r.Status,
		PriceCents: r.PriceCents,
		Currency:   r.Currency,
		Note:       r.Note,
	}
}

func (h CalendarHandler) List(c *gin.Context) {
	if _, ok := requireRole(c, "owner"); !ok {
		return
	}
	q := calendarapp.ListPeriodsQuery{
		PropertyID: c.Param("id"),
		Statuses:   c.QueryArray("status"),
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a YYYY-MM-DD date"})
			return
		}
		q.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a YYYY-MM-DD date"})
			return
		}
		q.To = to
	}
	result, err := queries.Ask[calendarapp.ListPeriodsQuery, dto.CalendarView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) OpenDates(c *gin.Context) {
	from, to, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}
	q := calendarapp.OpenDatesQuery{PropertyID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[calendarapp.OpenDatesQuery, dto.CalendarView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) CreatePeriod(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := calendarapp.CreatePeriodCommand{
		PropertyID: c.Param("id"),
		OwnerID:    p.ID,
		Period:     req.input(),
	}
	result, err := commands.Dispatch[calendarapp.CreatePeriodCommand, *dto.PeriodView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updatePeriodRequest struct {
	From       *time.Time `json:"from"`
	To         *time.Time `json:"to"`
	Status     *string    `json:"status"`
	PriceCents *int64     `json:"price_cents"`
	ClearPrice bool       `json:"clear_price"`
	Currency   string     `json:"currency"`
	Note       *string    `json:"note"`
}

func (h CalendarHandler) UpdatePeriod(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	var req updatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := calendarapp.UpdatePeriodCommand{
		PropertyID: c.Param("id"),
		PeriodID:   c.Param("period_id"),
		OwnerID:    p.ID,
		From:       req.From,
		To:         req.To,
		Status:     req.Status,
		PriceCents: req.PriceCents,
		ClearPrice: req.ClearPrice,
		Currency:   req.Currency,
		Note:       req.Note,
	}
	result, err := commands.Dispatch[calendarapp.UpdatePeriodCommand, *dto.PeriodView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) DeletePeriod(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	cmd := calendarapp.DeletePeriodCommand{
		PropertyID: c.Param("id"),
		PeriodID:   c.Param("period_id"),
		OwnerID:    p.ID,
	}
	result, err := commands.Dispatch[calendarapp.DeletePeriodCommand, *calendarapp.DeletePeriodResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type bulkCreateRequest struct {
	Periods []periodRequest `json:"periods"`
}

func (h CalendarHandler) BulkCreate(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	var req bulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := calendarapp.BulkCreatePeriodsCommand{
		PropertyID: c.Param("id"),
		OwnerID:    p.ID,
	}
	for _, raw := range req.Periods {
		cmd.Periods = append(cmd.Periods, raw.input())
	}
	result, err := commands.Dispatch[calendarapp.BulkCreatePeriodsCommand, *calendarapp.BulkCreatePeriodsResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ CalendarHTTP = CalendarHandler{}
