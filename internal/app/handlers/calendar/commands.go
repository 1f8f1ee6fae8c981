package calendar

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sejour/internal/app/commands"
	"sejour/internal/app/dto"
	"sejour/internal/app/outbox"
	"sejour/internal/app/support"
	"sejour/internal/app/uow"
	domainavailability "sejour/internal/domain/availability"
	domainproperty "sejour/internal/domain/property"
	domainrange "sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/domain/shared/money"
	domainuser "sejour/internal/domain/user"
)

const (
	createPeriodKey = "calendar.period.create"
	updatePeriodKey = "calendar.period.update"
	deletePeriodKey = "calendar.period.delete"
	bulkCreateKey   = "calendar.period.bulk_create"
)

// PeriodInput is the wire shape of one calendar entry in create and bulk
// create commands.
type PeriodInput struct {
	From       time.Time
	To         time.Time
	Status     string
	PriceCents *int64
	Currency   string
	Note       string
}

type CreatePeriodCommand struct {
	PropertyID string
	OwnerID    string
	Period     PeriodInput
}

func (c CreatePeriodCommand) Key() string { return createPeriodKey }

type CreatePeriodHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CreatePeriodHandler) Handle(ctx context.Context, cmd CreatePeriodCommand) (*dto.PeriodView, error) {
	unit, prop, err := ownedProperty(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}

	params, err := periodParams(prop.ID, cmd.Period, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	period, err := support.LedgerFor(unit).CreatePeriod(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, period); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("calendar period created",
			"period_id", period.ID,
			"property_id", prop.ID,
			"status", period.Status,
		)
	}

	view := dto.MapPeriodView(period)
	return &view, nil
}

type UpdatePeriodCommand struct {
	PropertyID string
	PeriodID   string
	OwnerID    string
	From       *time.Time
	To         *time.Time
	Status     *string
	PriceCents *int64
	ClearPrice bool
	Currency   string
	Note       *string
}

func (c UpdatePeriodCommand) Key() string { return updatePeriodKey }

type UpdatePeriodHandler struct {
	Logger *slog.Logger
}

func (h *UpdatePeriodHandler) Handle(ctx context.Context, cmd UpdatePeriodCommand) (*dto.PeriodView, error) {
	unit, prop, err := ownedProperty(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	current, err := unit.Calendar().ByID(ctx, domainavailability.PeriodID(cmd.PeriodID))
	if err != nil {
		return nil, err
	}
	if current.PropertyID != prop.ID {
		return nil, fault.NotFound("calendar: period %s not found on property %s", cmd.PeriodID, prop.ID)
	}

	patch := domainavailability.PeriodPatch{
		ClearPrice: cmd.ClearPrice,
		Now:        time.Now().UTC(),
	}
	if cmd.From != nil || cmd.To != nil {
		if cmd.From == nil || cmd.To == nil {
			return nil, fault.Invalid("calendar: both boundaries are required to move a period")
		}
		dr, err := domainrange.New(*cmd.From, *cmd.To)
		if err != nil {
			return nil, fault.Wrap(fault.KindInvalid, err, "calendar: invalid date range")
		}
		patch.Range = &dr
	}
	if cmd.Status != nil {
		status := domainavailability.PeriodStatus(strings.TrimSpace(*cmd.Status))
		patch.Status = &status
	}
	if cmd.PriceCents != nil {
		price, err := periodPrice(*cmd.PriceCents, cmd.Currency)
		if err != nil {
			return nil, err
		}
		patch.CustomPrice = price
	}
	if cmd.Note != nil {
		patch.Note = cmd.Note
	}

	period, err := support.LedgerFor(unit).UpdatePeriod(ctx, current.ID, patch)
	if err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("calendar period updated", "period_id", period.ID, "property_id", prop.ID)
	}

	view := dto.MapPeriodView(period)
	return &view, nil
}

type DeletePeriodCommand struct {
	PropertyID string
	PeriodID   string
	OwnerID    string
}

func (c DeletePeriodCommand) Key() string { return deletePeriodKey }

type DeletePeriodResult struct {
	PeriodID string `json:"period_id"`
}

type DeletePeriodHandler struct {
	Logger *slog.Logger
}

func (h *DeletePeriodHandler) Handle(ctx context.Context, cmd DeletePeriodCommand) (*DeletePeriodResult, error) {
	unit, prop, err := ownedProperty(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}

	ledger := support.LedgerFor(unit)
	period, err := unit.Calendar().ByID(ctx, domainavailability.PeriodID(cmd.PeriodID))
	if err != nil {
		return nil, err
	}
	if period.PropertyID != prop.ID {
		return nil, fault.NotFound("calendar: period %s not found on property %s", cmd.PeriodID, prop.ID)
	}
	if err := ledger.DeletePeriod(ctx, period.ID); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("calendar period deleted", "period_id", period.ID, "property_id", prop.ID)
	}

	return &DeletePeriodResult{PeriodID: string(period.ID)}, nil
}

type BulkCreatePeriodsCommand struct {
	PropertyID string
	OwnerID    string
	Periods    []PeriodInput
}

func (c BulkCreatePeriodsCommand) Key() string { return bulkCreateKey }

type BulkCreatePeriodsResult struct {
	Created []dto.PeriodView `json:"created"`
}

type BulkCreatePeriodsHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *BulkCreatePeriodsHandler) Handle(ctx context.Context, cmd BulkCreatePeriodsCommand) (*BulkCreatePeriodsResult, error) {
	unit, prop, err := ownedProperty(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if len(cmd.Periods) == 0 {
		return nil, fault.Invalid("calendar: at least one period is required")
	}

	now := time.Now().UTC()
	batch := make([]domainavailability.CreatePeriodParams, 0, len(cmd.Periods))
	for _, input := range cmd.Periods {
		params, err := periodParams(prop.ID, input, now)
		if err != nil {
			return nil, err
		}
		batch = append(batch, params)
	}

	created, err := support.LedgerFor(unit).BulkCreate(ctx, prop.ID, batch)
	if err != nil {
		return nil, err
	}
	for _, period := range created {
		if err := drainEvents(ctx, h.Outbox, h.Encoder, period); err != nil {
			return nil, err
		}
	}

	if h.Logger != nil {
		h.Logger.Info("calendar periods bulk created", "property_id", prop.ID, "count", len(created))
	}

	views := make([]dto.PeriodView, 0, len(created))
	for _, period := range created {
		views = append(views, dto.MapPeriodView(period))
	}
	return &BulkCreatePeriodsResult{Created: views}, nil
}

// ownedProperty resolves the ambient unit of work and verifies the actor
// owns the property whose calendar is being touched.
func ownedProperty(ctx context.Context, propertyID, ownerID string) (uow.UnitOfWork, *domainproperty.Property, error) {
	propertyID = strings.TrimSpace(propertyID)
	if propertyID == "" {
		return nil, nil, fault.Invalid("calendar: property id is required")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, nil, fault.Invalid("calendar: owner id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, nil, uow.ErrUnitOfWorkMissing
	}
	prop, err := unit.Properties().ByID(ctx, domainproperty.ID(propertyID))
	if err != nil {
		return nil, nil, err
	}
	if prop.OwnerID != domainuser.ID(ownerID) {
		return nil, nil, fault.Forbidden("calendar: property is not owned by the requester")
	}
	return unit, prop, nil
}

func periodParams(propertyID domainproperty.ID, input PeriodInput, now time.Time) (domainavailability.CreatePeriodParams, error) {
	dr, err := domainrange.New(input.From, input.To)
	if err != nil {
		return domainavailability.CreatePeriodParams{}, fault.Wrap(fault.KindInvalid, err, "calendar: invalid date range")
	}
	status := domainavailability.PeriodStatus(strings.TrimSpace(input.Status))
	if status == "" {
		status = domainavailability.StatusOpen
	}
	params := domainavailability.CreatePeriodParams{
		PropertyID: propertyID,
		Range:      dr,
		Status:     status,
		Note:       strings.TrimSpace(input.Note),
		Now:        now,
	}
	if input.PriceCents != nil {
		price, err := periodPrice(*input.PriceCents, input.Currency)
		if err != nil {
			return domainavailability.CreatePeriodParams{}, err
		}
		params.CustomPrice = price
	}
	return params, nil
}

func periodPrice(cents int64, currency string) (*money.Money, error) {
	if currency == "" {
		currency = money.DefaultCurrency
	}
	price, err := money.New(cents, currency)
	if err != nil {
		return nil, err
	}
	if price.Cents < 0 {
		return nil, fault.Invalid("calendar: custom price must not be negative")
	}
	return &price, nil
}

var _ commands.Handler[CreatePeriodCommand, *dto.PeriodView] = (*CreatePeriodHandler)(nil)
var _ commands.Handler[UpdatePeriodCommand, *dto.PeriodView] = (*UpdatePeriodHandler)(nil)
var _ commands.Handler[DeletePeriodCommand, *DeletePeriodResult] = (*DeletePeriodHandler)(nil)
var _ commands.Handler[BulkCreatePeriodsCommand, *BulkCreatePeriodsResult] = (*BulkCreatePeriodsHandler)(nil)
