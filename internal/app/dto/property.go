package dto

import (
	"time"

	domainproperty "sejour/internal/domain/property"
)

type AddressDTO struct {
	Line1   string  `json:"line1"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

type PropertyView struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Address     AddressDTO `json:"address"`
	Capacity    int        `json:"capacity"`
	NightlyRate MoneyDTO   `json:"nightly_rate"`
	Status      string     `json:"status"`
	BookingMode string     `json:"booking_mode"`
	Photos      []string   `json:"photos"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PropertyCollection struct {
	Items []PropertyView `json:"items"`
}

func MapPropertyView(p *domainproperty.Property) PropertyView {
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}
	return PropertyView{
		ID:          string(p.ID),
		OwnerID:     string(p.OwnerID),
		Title:       p.Title,
		Description: p.Description,
		Address: AddressDTO{
			Line1:   p.Address.Line1,
			City:    p.Address.City,
			Country: p.Address.Country,
			Lat:     p.Address.Lat,
			Lon:     p.Address.Lon,
		},
		Capacity:    p.Capacity,
		NightlyRate: MapMoney(p.NightlyRate),
		Status:      string(p.Status),
		BookingMode: string(p.BookingMode),
		Photos:      photos,
		CreatedAt:   p.CreatedAt,
	}
}
