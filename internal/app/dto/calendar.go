package dto

import (
	"time"

	"sejour/internal/domain/availability"
)

type PeriodView struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Status      string    `json:"status"`
	CustomPrice *MoneyDTO `json:"custom_price,omitempty"`
	Note        string    `json:"note,omitempty"`
}

type CalendarView struct {
	PropertyID string       `json:"property_id"`
	Periods    []PeriodView `json:"periods"`
}

func MapPeriodView(p *availability.Period) PeriodView {
	view := PeriodView{
		ID:         string(p.ID),
		PropertyID: string(p.PropertyID),
		From:       p.Range.Start,
		To:         p.Range.End,
		Status:     string(p.Status),
		Note:       p.Note,
	}
	if p.CustomPrice != nil {
		price := MapMoney(*p.CustomPrice)
		view.CustomPrice = &price
	}
	return view
}

func MapCalendarView(propertyID string, periods []*availability.Period) CalendarView {
	items := make([]PeriodView, 0, len(periods))
	for _, p := range periods {
		items = append(items, MapPeriodView(p))
	}
	return CalendarView{PropertyID: propertyID, Periods: items}
}
