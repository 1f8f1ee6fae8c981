package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "sejour/internal/domain/availability"
	domainproperty "sejour/internal/domain/property"
	domainrange "sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
)

type PeriodRepository struct {
	col *mongo.Collection
}

func NewPeriodRepository(db *mongo.Database) *PeriodRepository {
	return &PeriodRepository{col: db.Collection("agg_calendar_period")}
}

// EnsureIndexes prepares the calendar collection. MongoDB has no native
// range-exclusion constraint, so overlap safety comes from running every
// conflict check and mutation in one transaction; the compound index keeps
// those overlap queries on (property, status, range) cheap.
func (r *PeriodRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "property_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "range.start", Value: 1},
				{Key: "range.end", Value: 1},
			},
		},
	})
	return err
}

func (r *PeriodRepository) ByID(ctx context.Context, id domainavailability.PeriodID) (*domainavailability.Period, error) {
	var doc periodDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fault.Wrap(fault.KindNotFound, domainavailability.ErrPeriodNotFound, string(id))
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PeriodRepository) ListByProperty(ctx context.Context, propertyID domainproperty.ID, filter domainavailability.Filter) ([]*domainavailability.Period, error) {
	query := bson.M{"property_id": string(propertyID)}
	if len(filter.Statuses) > 0 {
		values := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			values = append(values, string(s))
		}
		query["status"] = bson.M{"$in": values}
	}
	if !filter.Range.IsZero() {
		query["range.start"] = bson.M{"$lt": filter.Range.End.UnixMilli()}
		query["range.end"] = bson.M{"$gt": filter.Range.Start.UnixMilli()}
	}

	cursor, err := r.col.Find(ctx, query, options.Find().SetSort(bson.M{"range.start": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]*domainavailability.Period, 0)
	for cursor.Next(ctx) {
		var doc periodDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *PeriodRepository) Insert(ctx context.Context, p *domainavailability.Period) error {
	_, err := r.col.InsertOne(ctx, newPeriodDocument(p))
	return err
}

func (r *PeriodRepository) Update(ctx context.Context, p *domainavailability.Period) error {
	result, err := r.col.ReplaceOne(ctx, bson.M{"_id": string(p.ID)}, newPeriodDocument(p))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fault.Wrap(fault.KindNotFound, domainavailability.ErrPeriodNotFound, string(p.ID))
	}
	return nil
}

func (r *PeriodRepository) Delete(ctx context.Context, id domainavailability.PeriodID) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fault.Wrap(fault.KindNotFound, domainavailability.ErrPeriodNotFound, string(id))
	}
	return nil
}

type periodDocument struct {
	ID          string         `bson:"_id"`
	PropertyID  string         `bson:"property_id"`
	Range       rangeDocument  `bson:"range"`
	Status      string         `bson:"status"`
	CustomPrice *moneyDocument `bson:"custom_price,omitempty"`
	Note        string         `bson:"note,omitempty"`
	CreatedAt   int64          `bson:"created_at"`
	UpdatedAt   int64          `bson:"updated_at"`
}

func newPeriodDocument(p *domainavailability.Period) periodDocument {
	doc := periodDocument{
		ID:         string(p.ID),
		PropertyID: string(p.PropertyID),
		Range:      newRangeDocument(p.Range),
		Status:     string(p.Status),
		Note:       p.Note,
		CreatedAt:  p.CreatedAt.UnixMilli(),
		UpdatedAt:  p.UpdatedAt.UnixMilli(),
	}
	if p.CustomPrice != nil {
		price := newMoneyDocument(*p.CustomPrice)
		doc.CustomPrice = &price
	}
	return doc
}

func (d periodDocument) toAggregate() *domainavailability.Period {
	p := &domainavailability.Period{
		ID:         domainavailability.PeriodID(d.ID),
		PropertyID: domainproperty.ID(d.PropertyID),
		Range:      domainrange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Status:     domainavailability.PeriodStatus(d.Status),
		Note:       d.Note,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
	}
	if d.CustomPrice != nil {
		price := d.CustomPrice.toMoney()
		p.CustomPrice = &price
	}
	return p
}
