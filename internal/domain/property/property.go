package property

import (
	"context"
	"strings"
	"time"

	"sejour/internal/domain/shared/events"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/domain/shared/money"
	"sejour/internal/domain/user"
)

type ID string

// Status follows the moderation lifecycle: only active properties accept
// reservations.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
)

// BookingMode selects how a reservation request is handled: instant books
// without owner review, request waits for an explicit accept.
type BookingMode string

const (
	BookingInstant BookingMode = "instant"
	BookingRequest BookingMode = "request"
)

type Address struct {
	Line1   string
	City    string
	Country string
	Lat     float64
	Lon     float64
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Country) != ""
}

type Property struct {
	ID          ID
	OwnerID     user.ID
	Title       string
	Description string
	Address     Address
	Capacity    int
	NightlyRate money.Money
	Status      Status
	BookingMode BookingMode
	Photos      []string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	ListByOwner(ctx context.Context, ownerID user.ID) ([]*Property, error)
}

type CreateParams struct {
	ID          ID
	OwnerID     user.ID
	Title       string
	Description string
	Address     Address
	Capacity    int
	NightlyRate money.Money
	BookingMode BookingMode
	Now         time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, fault.Invalid("property: id is required")
	}
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, fault.Invalid("property: owner is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, fault.Invalid("property: title is required")
	}
	if params.Capacity < 1 {
		return nil, fault.Invalid("property: capacity must be at least 1")
	}
	if params.NightlyRate.Cents < 0 {
		return nil, fault.Invalid("property: nightly rate must not be negative")
	}
	mode := params.BookingMode
	if mode == "" {
		mode = BookingRequest
	}
	if mode != BookingInstant && mode != BookingRequest {
		return nil, fault.Invalid("property: unknown booking mode %q", mode)
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	p := &Property{
		ID:          params.ID,
		OwnerID:     params.OwnerID,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Address:     params.Address,
		Capacity:    params.Capacity,
		NightlyRate: params.NightlyRate,
		Status:      StatusSuspended,
		BookingMode: mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Record(PropertyCreated{PropertyID: p.ID, OwnerID: p.OwnerID, At: now})
	return p, nil
}

// Publish makes the property bookable. Requires a valid address.
func (p *Property) Publish(now time.Time) error {
	if p.Status == StatusArchived {
		return fault.Invalid("property: archived properties cannot be published")
	}
	if !p.Address.Valid() {
		return fault.Invalid("property: address must be complete before publishing")
	}
	if p.Status == StatusActive {
		return nil
	}
	p.Status = StatusActive
	p.touch(now)
	p.Record(PropertyPublished{PropertyID: p.ID, At: p.UpdatedAt})
	return nil
}

// Suspend takes the property off the market; existing reservations stand.
func (p *Property) Suspend(reason string, now time.Time) error {
	if p.Status != StatusActive {
		return fault.Invalid("property: only active properties can be suspended")
	}
	p.Status = StatusSuspended
	p.touch(now)
	p.Record(PropertySuspended{PropertyID: p.ID, Reason: reason, At: p.UpdatedAt})
	return nil
}

// Archive permanently retires the property.
func (p *Property) Archive(now time.Time) error {
	if p.Status == StatusArchived {
		return nil
	}
	p.Status = StatusArchived
	p.touch(now)
	p.Record(PropertyArchived{PropertyID: p.ID, At: p.UpdatedAt})
	return nil
}

type UpdateParams struct {
	Title       string
	Description string
	Address     Address
	Capacity    int
	NightlyRate money.Money
	BookingMode BookingMode
	Now         time.Time
}

func (p *Property) UpdateDetails(params UpdateParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return fault.Invalid("property: title is required")
	}
	if params.Capacity < 1 {
		return fault.Invalid("property: capacity must be at least 1")
	}
	if params.NightlyRate.Cents < 0 {
		return fault.Invalid("property: nightly rate must not be negative")
	}
	if params.BookingMode != "" && params.BookingMode != BookingInstant && params.BookingMode != BookingRequest {
		return fault.Invalid("property: unknown booking mode %q", params.BookingMode)
	}
	p.Title = strings.TrimSpace(params.Title)
	p.Description = strings.TrimSpace(params.Description)
	p.Address = params.Address
	p.Capacity = params.Capacity
	p.NightlyRate = params.NightlyRate
	if params.BookingMode != "" {
		p.BookingMode = params.BookingMode
	}
	p.touch(params.Now)
	return nil
}

// AttachPhoto records an uploaded photo URL.
func (p *Property) AttachPhoto(url string, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fault.Invalid("property: photo url is required")
	}
	p.Photos = append(p.Photos, url)
	p.touch(now)
	return nil
}

func (p *Property) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	p.UpdatedAt = now.UTC()
}
