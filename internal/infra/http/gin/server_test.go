package ginserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sejour/internal/app/commands"
	calendarapp "sejour/internal/app/handlers/calendar"
	reservationapp "sejour/internal/app/handlers/reservation"
	"sejour/internal/app/middleware"
	"sejour/internal/app/queries"
	authsvc "sejour/internal/app/services/auth"
	domainproperty "sejour/internal/domain/property"
	"sejour/internal/domain/shared/money"
	domainuser "sejour/internal/domain/user"
	"sejour/internal/infra/config"
	ginserver "sejour/internal/infra/http/gin"
	"sejour/internal/infra/obs"
	"sejour/internal/infra/payments"
	"sejour/internal/infra/security"
	"sejour/internal/infra/storage/memory"
)

type testApp struct {
	router     http.Handler
	properties *memory.PropertyRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	properties := memory.NewPropertyRepository()
	factory := memory.Factory{
		PropertyRepo:    properties,
		ReservationRepo: memory.NewReservationRepository(),
		PeriodRepo:      memory.NewPeriodRepository(),
		PaymentRepo:     memory.NewPaymentRepository(),
	}
	box := memory.NewOutbox()
	gateway := payments.NewMockGateway(logger)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, reservationapp.CreateReservationCommand{}.Key(), &reservationapp.CreateReservationHandler{
		UoWFactory: factory, Payments: gateway, Outbox: box, Logger: logger,
	})
	commands.RegisterHandler(bus, reservationapp.AcceptReservationCommand{}.Key(), &reservationapp.AcceptReservationHandler{Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, reservationapp.RejectReservationCommand{}.Key(), &reservationapp.RejectReservationHandler{Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, reservationapp.CancelReservationCommand{}.Key(), &reservationapp.CancelReservationHandler{Payments: gateway, Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, reservationapp.ConfirmPaymentCommand{}.Key(), &reservationapp.ConfirmPaymentHandler{Payments: gateway, Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, reservationapp.NegotiatePriceCommand{}.Key(), &reservationapp.NegotiatePriceHandler{Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, calendarapp.CreatePeriodCommand{}.Key(), &calendarapp.CreatePeriodHandler{Outbox: box, Logger: logger})
	dispatcher := middleware.ChainCommands(bus,
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)

	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler(qbus, reservationapp.GetReservationQuery{}.Key(), &reservationapp.GetReservationHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, reservationapp.ListTenantReservationsQuery{}.Key(), &reservationapp.ListTenantReservationsHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, reservationapp.ListOwnerReservationsQuery{}.Key(), &reservationapp.ListOwnerReservationsHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, reservationapp.CheckAvailabilityQuery{}.Key(), &reservationapp.CheckAvailabilityHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, reservationapp.QuoteQuery{}.Key(), &reservationapp.QuoteHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, reservationapp.OwnerStatisticsQuery{}.Key(), &reservationapp.OwnerStatisticsHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, calendarapp.ListPeriodsQuery{}.Key(), &calendarapp.ListPeriodsHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, calendarapp.OpenDatesQuery{}.Key(), &calendarapp.OpenDatesHandler{UoWFactory: factory})

	service := &authsvc.Service{
		Users:     memory.NewUserRepository(),
		Sessions:  memory.NewSessionStore(),
		Passwords: security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:    security.RandomTokenGenerator{},
	}

	server := ginserver.NewServer(
		config.Config{Env: "test", HTTPAddr: ":0"},
		obs.Middleware{Logger: logger},
		obs.HealthHandlers{},
		ginserver.Handlers{
			Reservation:    ginserver.ReservationHandler{Commands: dispatcher, Queries: qbus, Logger: logger},
			Calendar:       ginserver.CalendarHandler{Commands: dispatcher, Queries: qbus, Logger: logger},
			Auth:           ginserver.AuthHandler{Service: service, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Service: service, Logger: logger}.Handle,
		},
	)
	return &testApp{router: server.Handler, properties: properties}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// registerUser signs an account up and returns its id and session token.
func (a *testApp) registerUser(t *testing.T, email string, owner bool) (string, string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"name":     "Test User",
		"password": "long enough",
		"as_owner": owner,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(t, rec)
	user := out["user"].(map[string]any)
	return user["id"].(string), out["token"].(string)
}

func (a *testApp) seedProperty(t *testing.T, ownerID string) string {
	t.Helper()
	prop, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "prop-http",
		OwnerID:     domainuser.ID(ownerID),
		Title:       "Appartement canal",
		Address:     domainproperty.Address{Line1: "3 quai de Jemmapes", City: "Paris", Country: "FR"},
		Capacity:    3,
		NightlyRate: money.Must(12000, "EUR"),
		BookingMode: domainproperty.BookingRequest,
	})
	require.NoError(t, err)
	require.NoError(t, prop.Publish(time.Time{}))
	prop.ClearEvents()
	require.NoError(t, a.properties.Save(context.Background(), prop))
	return string(prop.ID)
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	_, token := app.registerUser(t, "me@example.com", false)

	rec := app.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "me@example.com", out["email"])

	rec = app.do(t, http.MethodGet, "/api/v1/auth/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReservationEndpoints(t *testing.T) {
	app := newTestApp(t)
	ownerID, ownerToken := app.registerUser(t, "owner@example.com", true)
	_, tenantToken := app.registerUser(t, "tenant@example.com", false)
	propID := app.seedProperty(t, ownerID)

	checkIn := time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour)
	checkOut := checkIn.AddDate(0, 0, 4)

	t.Run("anonymous booking rejected", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/v1/reservations", "", map[string]any{
			"property_id": propID, "check_in": checkIn, "check_out": checkOut, "guests": 2,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	var reservationID string
	t.Run("tenant books", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/v1/reservations", tenantToken, map[string]any{
			"property_id": propID, "check_in": checkIn, "check_out": checkOut, "guests": 2,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		out := decode(t, rec)
		reservationID = out["reservation_id"].(string)
		assert.Equal(t, "en_attente", out["status"])
	})

	t.Run("tenant cannot accept", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%s/accept", reservationID), tenantToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner accepts", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%s/accept", reservationID), ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		out := decode(t, rec)
		assert.Equal(t, "acceptee", out["status"])
	})

	t.Run("availability reflects the hold", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/properties/%s/availability?from=%s&to=%s",
			propID, checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"))
		rec := app.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		out := decode(t, rec)
		assert.Equal(t, false, out["available"])
	})

	t.Run("quote is nights times rate", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/properties/%s/quote?from=%s&to=%s",
			propID, checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"))
		rec := app.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		out := decode(t, rec)
		total := out["total"].(map[string]any)
		assert.Equal(t, float64(48000), total["cents"])
	})

	t.Run("unknown reservation is 404", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/v1/reservations/missing", tenantToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad date range is 400", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/properties/%s/availability?from=not-a-date&to=2025-01-01", propID)
		rec := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOwnerCalendarEndpoints(t *testing.T) {
	app := newTestApp(t)
	ownerID, ownerToken := app.registerUser(t, "owner@example.com", true)
	_, tenantToken := app.registerUser(t, "tenant@example.com", false)
	propID := app.seedProperty(t, ownerID)

	t.Run("tenant cannot manage the calendar", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/owner/properties/%s/periods", propID), tenantToken, map[string]any{
			"from": "2025-07-01T00:00:00Z", "to": "2025-07-10T00:00:00Z", "status": "blocked",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner blocks a range", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/owner/properties/%s/periods", propID), ownerToken, map[string]any{
			"from": "2025-07-01T00:00:00Z", "to": "2025-07-10T00:00:00Z", "status": "blocked", "note": "renovation",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		out := decode(t, rec)
		assert.Equal(t, "blocked", out["status"])
	})

	t.Run("owner lists periods", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/owner/properties/%s/periods", propID), ownerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		out := decode(t, rec)
		periods := out["periods"].([]any)
		assert.Len(t, periods, 1)
	})
}
