package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
	domainrange "sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/domain/shared/money"
	domainuser "sejour/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection("agg_reservation")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fault.NotFound("reservation %s not found", id)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	result, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ListByTenant(ctx context.Context, tenantID domainuser.ID) ([]*domainreservation.Reservation, error) {
	return r.find(ctx, bson.M{"tenant_id": string(tenantID)})
}

func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID domainproperty.ID) ([]*domainreservation.Reservation, error) {
	return r.find(ctx, bson.M{"property_id": string(propertyID)})
}

func (r *ReservationRepository) ListByStatus(ctx context.Context, statuses ...domainreservation.Status) ([]*domainreservation.Reservation, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return r.find(ctx, bson.M{"status": bson.M{"$in": values}})
}

// ExistsOverlapping runs the half-open overlap predicate server-side:
// stored [start,end) collides with [a,b) iff start < b and end > a.
func (r *ReservationRepository) ExistsOverlapping(ctx context.Context, propertyID domainproperty.ID, dr domainrange.DateRange) (bool, error) {
	blocking := make([]string, 0, 2)
	for _, s := range []domainreservation.Status{
		domainreservation.StatusConfirmed,
		domainreservation.StatusInProgress,
	} {
		blocking = append(blocking, string(s))
	}
	filter := bson.M{
		"property_id": string(propertyID),
		"status":      bson.M{"$in": blocking},
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	err := r.col.FindOne(ctx, filter).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

func (r *ReservationRepository) find(ctx context.Context, filter bson.M) ([]*domainreservation.Reservation, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]*domainreservation.Reservation, 0)
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type moneyDocument struct {
	Cents    int64  `bson:"cents"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Cents: m.Cents, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Cents: d.Cents, Currency: d.Currency}
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func newRangeDocument(dr domainrange.DateRange) rangeDocument {
	return rangeDocument{Start: dr.Start.UnixMilli(), End: dr.End.UnixMilli()}
}

func (d rangeDocument) toRange() domainrange.DateRange {
	return domainrange.DateRange{Start: timestampToTime(d.Start), End: timestampToTime(d.End)}
}

type reservationDocument struct {
	ID                 string         `bson:"_id"`
	PropertyID         string         `bson:"property_id"`
	TenantID           string         `bson:"tenant_id"`
	Range              rangeDocument  `bson:"range"`
	Guests             int            `bson:"guests"`
	NightlyRate        moneyDocument  `bson:"nightly_rate"`
	NegotiatedRate     *moneyDocument `bson:"negotiated_rate,omitempty"`
	Total              moneyDocument  `bson:"total"`
	Status             string         `bson:"status"`
	TenantMessage      string         `bson:"tenant_message,omitempty"`
	CancellationReason string         `bson:"cancellation_reason,omitempty"`
	CancelledAt        int64          `bson:"cancelled_at,omitempty"`
	CreatedAt          int64          `bson:"created_at"`
	UpdatedAt          int64          `bson:"updated_at"`
	Version            int64          `bson:"version"`
}

func newReservationDocument(res *domainreservation.Reservation) reservationDocument {
	doc := reservationDocument{
		ID:                 string(res.ID),
		PropertyID:         string(res.PropertyID),
		TenantID:           string(res.TenantID),
		Range:              newRangeDocument(res.Range),
		Guests:             res.Guests,
		NightlyRate:        newMoneyDocument(res.NightlyRate),
		Total:              newMoneyDocument(res.Total),
		Status:             string(res.Status),
		TenantMessage:      res.TenantMessage,
		CancellationReason: res.CancellationReason,
		CreatedAt:          res.CreatedAt.UnixMilli(),
		UpdatedAt:          res.UpdatedAt.UnixMilli(),
		Version:            res.Version,
	}
	if res.NegotiatedRate != nil {
		rate := newMoneyDocument(*res.NegotiatedRate)
		doc.NegotiatedRate = &rate
	}
	if !res.CancelledAt.IsZero() {
		doc.CancelledAt = res.CancelledAt.UnixMilli()
	}
	return doc
}

func (d reservationDocument) toAggregate() *domainreservation.Reservation {
	res := &domainreservation.Reservation{
		ID:                 domainreservation.ID(d.ID),
		PropertyID:         domainproperty.ID(d.PropertyID),
		TenantID:           domainuser.ID(d.TenantID),
		Range:              d.Range.toRange(),
		Guests:             d.Guests,
		NightlyRate:        d.NightlyRate.toMoney(),
		Total:              d.Total.toMoney(),
		Status:             domainreservation.Status(d.Status),
		TenantMessage:      d.TenantMessage,
		CancellationReason: d.CancellationReason,
		CreatedAt:          timestampToTime(d.CreatedAt),
		UpdatedAt:          timestampToTime(d.UpdatedAt),
		Version:            d.Version,
	}
	if d.NegotiatedRate != nil {
		rate := d.NegotiatedRate.toMoney()
		res.NegotiatedRate = &rate
	}
	if d.CancelledAt != 0 {
		res.CancelledAt = timestampToTime(d.CancelledAt)
	}
	return res
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
