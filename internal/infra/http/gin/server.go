package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"sejour/internal/infra/config"
	"sejour/internal/infra/obs"
)

type ReservationHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Accept(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	ConfirmPayment(c *gin.Context)
	Negotiate(c *gin.Context)
	ListMine(c *gin.Context)
	ListForOwner(c *gin.Context)
	ListForProperty(c *gin.Context)
	OwnerStatistics(c *gin.Context)
	Availability(c *gin.Context)
	Quote(c *gin.Context)
}

type CalendarHTTP interface {
	List(c *gin.Context)
	OpenDates(c *gin.Context)
	CreatePeriod(c *gin.Context)
	UpdatePeriod(c *gin.Context)
	DeletePeriod(c *gin.Context)
	BulkCreate(c *gin.Context)
}

type PropertyHTTP interface {
	Get(c *gin.Context)
	ListMine(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Publish(c *gin.Context)
	Suspend(c *gin.Context)
	Archive(c *gin.Context)
	AttachPhoto(c *gin.Context)
}

type Handlers struct {
	Reservation    ReservationHTTP
	Calendar       CalendarHTTP
	Property       PropertyHTTP
	Auth           AuthHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Reservation != nil {
		api.POST("/reservations", h.Reservation.Create)
		api.GET("/reservations/:id", h.Reservation.Get)
		api.POST("/reservations/:id/accept", h.Reservation.Accept)
		api.POST("/reservations/:id/reject", h.Reservation.Reject)
		api.POST("/reservations/:id/cancel", h.Reservation.Cancel)
		api.POST("/reservations/:id/payment", h.Reservation.ConfirmPayment)
		api.POST("/reservations/:id/negotiate", h.Reservation.Negotiate)
		api.GET("/me/reservations", h.Reservation.ListMine)
	}
	if h.Property != nil {
		api.GET("/properties/:id", h.Property.Get)
	}
	if h.Reservation != nil {
		api.GET("/properties/:id/availability", h.Reservation.Availability)
		api.GET("/properties/:id/quote", h.Reservation.Quote)
	}
	if h.Calendar != nil {
		api.GET("/properties/:id/open-dates", h.Calendar.OpenDates)
	}

	owner := api.Group("/owner")
	if h.Property != nil {
		owner.GET("/properties", h.Property.ListMine)
		owner.POST("/properties", h.Property.Create)
		owner.PUT("/properties/:id", h.Property.Update)
		owner.POST("/properties/:id/publish", h.Property.Publish)
		owner.POST("/properties/:id/suspend", h.Property.Suspend)
		owner.POST("/properties/:id/archive", h.Property.Archive)
		owner.POST("/properties/:id/photos", h.Property.AttachPhoto)
	}
	if h.Calendar != nil {
		owner.GET("/properties/:id/periods", h.Calendar.List)
		owner.POST("/properties/:id/periods", h.Calendar.CreatePeriod)
		owner.POST("/properties/:id/periods/bulk", h.Calendar.BulkCreate)
		owner.PUT("/properties/:id/periods/:period_id", h.Calendar.UpdatePeriod)
		owner.DELETE("/properties/:id/periods/:period_id", h.Calendar.DeletePeriod)
	}
	if h.Reservation != nil {
		owner.GET("/reservations", h.Reservation.ListForOwner)
		owner.GET("/properties/:id/reservations", h.Reservation.ListForProperty)
		owner.GET("/statistics", h.Reservation.OwnerStatistics)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func corsConfig(cfg config.Config) cors.Config {
	conf := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(cfg.CORSOrigins) > 0 {
		conf.AllowOrigins = cfg.CORSOrigins
	} else {
		conf.AllowOrigins = []string{"*"}
	}
	return conf
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
