package dto

import (
	"time"

	domainpayment "sejour/internal/domain/payment"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
	"sejour/internal/domain/shared/money"
)

type MoneyDTO struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

type PropertySnapshot struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	City    string `json:"city"`
	Country string `json:"country"`
	Photo   string `json:"photo,omitempty"`
}

type ReservationView struct {
	ID                 string           `json:"id"`
	Property           PropertySnapshot `json:"property"`
	TenantID           string           `json:"tenant_id"`
	CheckIn            time.Time        `json:"check_in"`
	CheckOut           time.Time        `json:"check_out"`
	Nights             int              `json:"nights"`
	Guests             int              `json:"guests"`
	NightlyRate        MoneyDTO         `json:"nightly_rate"`
	NegotiatedRate     *MoneyDTO        `json:"negotiated_rate,omitempty"`
	Total              MoneyDTO         `json:"total"`
	Status             string           `json:"status"`
	TenantMessage      string           `json:"tenant_message,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

type ReservationCollection struct {
	Items []ReservationView `json:"items"`
}

type PaymentView struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	Amount        MoneyDTO  `json:"amount"`
	Status        string    `json:"status"`
	ProviderRef   string    `json:"provider_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type QuoteView struct {
	PropertyID  string    `json:"property_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Nights      int       `json:"nights"`
	NightlyRate MoneyDTO  `json:"nightly_rate"`
	Total       MoneyDTO  `json:"total"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Cents:    value.Cents,
		Currency: value.Currency,
	}
}

func MapPropertySnapshot(prop *domainproperty.Property) PropertySnapshot {
	if prop == nil {
		return PropertySnapshot{}
	}
	snapshot := PropertySnapshot{
		ID:      string(prop.ID),
		Title:   prop.Title,
		City:    prop.Address.City,
		Country: prop.Address.Country,
	}
	if len(prop.Photos) > 0 {
		snapshot.Photo = prop.Photos[0]
	}
	return snapshot
}

func MapReservationView(r *domainreservation.Reservation, prop *domainproperty.Property) ReservationView {
	view := ReservationView{
		ID:                 string(r.ID),
		Property:           MapPropertySnapshot(prop),
		TenantID:           string(r.TenantID),
		CheckIn:            r.Range.Start,
		CheckOut:           r.Range.End,
		Nights:             r.Range.Nights(),
		Guests:             r.Guests,
		NightlyRate:        MapMoney(r.NightlyRate),
		Total:              MapMoney(r.Total),
		Status:             string(r.Status),
		TenantMessage:      r.TenantMessage,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
	}
	if view.Property.ID == "" {
		view.Property.ID = string(r.PropertyID)
	}
	if r.NegotiatedRate != nil {
		negotiated := MapMoney(*r.NegotiatedRate)
		view.NegotiatedRate = &negotiated
	}
	return view
}

func MapPaymentView(p *domainpayment.Payment) PaymentView {
	return PaymentView{
		ID:            p.ID,
		ReservationID: string(p.ReservationID),
		Amount:        MapMoney(p.Amount),
		Status:        string(p.Status),
		ProviderRef:   p.ProviderRef,
		CreatedAt:     p.CreatedAt,
	}
}
