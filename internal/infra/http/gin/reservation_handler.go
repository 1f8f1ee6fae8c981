package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sejour/internal/app/commands"
	"sejour/internal/app/dto"
	reservationapp "sejour/internal/app/handlers/reservation"
	"sejour/internal/app/queries"
)

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	PropertyID string    `json:"property_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Guests     int       `json:"guests"`
	Message    string    `json:"message"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	p, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reservationapp.CreateReservationCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      req.PropertyID,
		TenantID:        p.ID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		Message:         req.Message,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservationapp.CreateReservationCommand, *reservationapp.CreateReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Get(c *gin.Context) {
	p, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := reservationapp.GetReservationQuery{ReservationID: c.Param("id"), ActorID: p.ID}
	view, err := queries.Ask[reservationapp.GetReservationQuery, dto.ReservationView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h ReservationHandler) Accept(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	cmd := reservationapp.AcceptReservationCommand{ReservationID: c.Param("id"), OwnerID: p.ID}
	result, err := commands.Dispatch[reservationapp.AcceptReservationCommand, *reservationapp.ReservationActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Reject(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	cmd := reservationapp.RejectReservationCommand{ReservationID: c.Param("id"), OwnerID: p.ID}
	result, err := commands.Dispatch[reservationapp.RejectReservationCommand, *reservationapp.ReservationActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	p, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req cancelReservationRequest
	_ = c.ShouldBindJSON(&req)
	cmd := reservationapp.CancelReservationCommand{
		ReservationID: c.Param("id"),
		ActorID:       p.ID,
		Reason:        req.Reason,
	}
	result, err := commands.Dispatch[reservationapp.CancelReservationCommand, *reservationapp.ReservationActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ConfirmPayment(c *gin.Context) {
	p, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := reservationapp.ConfirmPaymentCommand{ReservationID: c.Param("id"), TenantID: p.ID}
	result, err := commands.Dispatch[reservationapp.ConfirmPaymentCommand, *reservationapp.ReservationActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type negotiateRequest struct {
	RateCents int64  `json:"rate_cents"`
	Currency  string `json:"currency"`
}

func (h ReservationHandler) Negotiate(c *gin.Context) {
	p, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req negotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reservationapp.NegotiatePriceCommand{
		ReservationID: c.Param("id"),
		ActorID:       p.ID,
		RateCents:     req.RateCents,
		Currency:      req.Currency,
	}
	result, err := commands.Dispatch[reservationapp.NegotiatePriceCommand, *reservationapp.NegotiatePriceResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListMine(c *gin.Context) {
	p, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := reservationapp.ListTenantReservationsQuery{TenantID: p.ID}
	result, err := queries.Ask[reservationapp.ListTenantReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListForOwner(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	q := reservationapp.ListOwnerReservationsQuery{OwnerID: p.ID, Status: c.Query("status")}
	result, err := queries.Ask[reservationapp.ListOwnerReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListForProperty(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	q := reservationapp.ListPropertyReservationsQuery{PropertyID: c.Param("id"), OwnerID: p.ID}
	result, err := queries.Ask[reservationapp.ListPropertyReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) OwnerStatistics(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	q := reservationapp.OwnerStatisticsQuery{OwnerID: p.ID}
	result, err := queries.Ask[reservationapp.OwnerStatisticsQuery, dto.OwnerStatistics](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Availability(c *gin.Context) {
	from, to, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}
	q := reservationapp.CheckAvailabilityQuery{
		PropertyID: c.Param("id"),
		CheckIn:    from,
		CheckOut:   to,
	}
	result, err := queries.Ask[reservationapp.CheckAvailabilityQuery, reservationapp.AvailabilityAnswer](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Quote(c *gin.Context) {
	from, to, ok := dateRangeFromQuery(c)
	if !ok {
		return
	}
	q := reservationapp.QuoteQuery{
		PropertyID: c.Param("id"),
		CheckIn:    from,
		CheckOut:   to,
	}
	result, err := queries.Ask[reservationapp.QuoteQuery, dto.QuoteView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// dateRangeFromQuery parses the from/to query params as dates.
func dateRangeFromQuery(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a YYYY-MM-DD date"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a YYYY-MM-DD date"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

var _ ReservationHTTP = ReservationHandler{}
