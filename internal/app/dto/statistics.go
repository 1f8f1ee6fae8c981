package dto

// OwnerStatistics aggregates reservation activity across an owner's
// properties.
type OwnerStatistics struct {
	Properties           int      `json:"properties"`
	PendingReservations  int      `json:"pending_reservations"`
	UpcomingReservations int      `json:"upcoming_reservations"`
	ActiveStays          int      `json:"active_stays"`
	CompletedStays       int      `json:"completed_stays"`
	Cancellations        int      `json:"cancellations"`
	NightsBooked         int      `json:"nights_booked"`
	Revenue              MoneyDTO `json:"revenue"`
}
