package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"sejour/internal/app/commands"
	"sejour/internal/app/dto"
	propertyapp "sejour/internal/app/handlers/property"
	"sejour/internal/app/queries"
)

type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type addressRequest struct {
	Line1   string  `json:"line1"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (r addressRequest) input() propertyapp.AddressInput {
	return propertyapp.AddressInput{
		Line1:   r.Line1,
		City:    r.City,
		Country: r.Country,
		Lat:     r.Lat,
		Lon:     r.Lon,
	}
}

type propertyRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Address     addressRequest `json:"address"`
	Capacity    int            `json:"capacity"`
	RateCents   int64          `json:"rate_cents"`
	Currency    string         `json:"currency"`
	BookingMode string         `json:"booking_mode"`
}

func (h PropertyHandler) Get(c *gin.Context) {
	q := propertyapp.GetPropertyQuery{PropertyID: c.Param("id")}
	view, err := queries.Ask[propertyapp.GetPropertyQuery, dto.PropertyView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h PropertyHandler) ListMine(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	q := propertyapp.ListOwnerPropertiesQuery{OwnerID: p.ID}
	result, err := queries.Ask[propertyapp.ListOwnerPropertiesQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Create(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := propertyapp.CreatePropertyCommand{
		OwnerID:     p.ID,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address.input(),
		Capacity:    req.Capacity,
		RateCents:   req.RateCents,
		Currency:    req.Currency,
		BookingMode: req.BookingMode,
	}
	result, err := commands.Dispatch[propertyapp.CreatePropertyCommand, *dto.PropertyView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PropertyHandler) Update(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := propertyapp.UpdatePropertyCommand{
		PropertyID:  c.Param("id"),
		OwnerID:     p.ID,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address.input(),
		Capacity:    req.Capacity,
		RateCents:   req.RateCents,
		Currency:    req.Currency,
		BookingMode: req.BookingMode,
	}
	result, err := commands.Dispatch[propertyapp.UpdatePropertyCommand, *dto.PropertyView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Publish(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	cmd := propertyapp.PublishPropertyCommand{PropertyID: c.Param("id"), OwnerID: p.ID}
	result, err := commands.Dispatch[propertyapp.PublishPropertyCommand, *propertyapp.StatusChangeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type suspendRequest struct {
	Reason string `json:"reason"`
}

func (h PropertyHandler) Suspend(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	var req suspendRequest
	_ = c.ShouldBindJSON(&req)
	cmd := propertyapp.SuspendPropertyCommand{PropertyID: c.Param("id"), OwnerID: p.ID, Reason: req.Reason}
	result, err := commands.Dispatch[propertyapp.SuspendPropertyCommand, *propertyapp.StatusChangeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Archive(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	cmd := propertyapp.ArchivePropertyCommand{PropertyID: c.Param("id"), OwnerID: p.ID}
	result, err := commands.Dispatch[propertyapp.ArchivePropertyCommand, *propertyapp.StatusChangeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) AttachPhoto(c *gin.Context) {
	p, ok := requireRole(c, "owner")
	if !ok {
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read photo"})
		return
	}
	defer src.Close()

	cmd := propertyapp.AttachPhotoCommand{
		PropertyID:  c.Param("id"),
		OwnerID:     p.ID,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        src,
	}
	result, err := commands.Dispatch[propertyapp.AttachPhotoCommand, *propertyapp.AttachPhotoResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ PropertyHTTP = PropertyHandler{}
