package property

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sejour/internal/app/commands"
	"sejour/internal/app/dto"
	"sejour/internal/app/outbox"
	"sejour/internal/app/uow"
	domainproperty "sejour/internal/domain/property"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/domain/shared/money"
	domainuser "sejour/internal/domain/user"
)

const (
	createPropertyKey  = "property.create"
	updatePropertyKey  = "property.update"
	publishPropertyKey = "property.publish"
	suspendPropertyKey = "property.suspend"
	archivePropertyKey = "property.archive"
)

type AddressInput struct {
	Line1   string
	City    string
	Country string
	Lat     float64
	Lon     float64
}

type CreatePropertyCommand struct {
	OwnerID     string
	Title       string
	Description string
	Address     AddressInput
	Capacity    int
	RateCents   int64
	Currency    string
	BookingMode string
}

func (c CreatePropertyCommand) Key() string { return createPropertyKey }

type CreatePropertyHandler struct {
	Users   domainuser.Repository
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CreatePropertyHandler) Handle(ctx context.Context, cmd CreatePropertyCommand) (*dto.PropertyView, error) {
	ownerID := strings.TrimSpace(cmd.OwnerID)
	if ownerID == "" {
		return nil, fault.Invalid("property: owner id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	if h.Users != nil {
		owner, err := h.Users.ByID(ctx, domainuser.ID(ownerID))
		if err != nil {
			return nil, err
		}
		if !owner.HasRole(domainuser.RoleOwner) {
			return nil, fault.Forbidden("property: only owners can list properties")
		}
	}

	currency := cmd.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	rate, err := money.New(cmd.RateCents, currency)
	if err != nil {
		return nil, err
	}

	mode := domainproperty.BookingMode(strings.TrimSpace(cmd.BookingMode))
	prop, err := domainproperty.New(domainproperty.CreateParams{
		ID:          domainproperty.ID(uuid.NewString()),
		OwnerID:     domainuser.ID(ownerID),
		Title:       cmd.Title,
		Description: cmd.Description,
		Address: domainproperty.Address{
			Line1:   cmd.Address.Line1,
			City:    cmd.Address.City,
			Country: cmd.Address.Country,
			Lat:     cmd.Address.Lat,
			Lon:     cmd.Address.Lon,
		},
		Capacity:    cmd.Capacity,
		NightlyRate: rate,
		BookingMode: mode,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, prop); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("property created", "property_id", prop.ID, "owner_id", ownerID)
	}

	view := dto.MapPropertyView(prop)
	return &view, nil
}

type UpdatePropertyCommand struct {
	PropertyID  string
	OwnerID     string
	Title       string
	Description string
	Address     AddressInput
	Capacity    int
	RateCents   int64
	Currency    string
	BookingMode string
}

func (c UpdatePropertyCommand) Key() string { return updatePropertyKey }

type UpdatePropertyHandler struct {
	Logger *slog.Logger
}

func (h *UpdatePropertyHandler) Handle(ctx context.Context, cmd UpdatePropertyCommand) (*dto.PropertyView, error) {
	unit, prop, err := loadOwned(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}

	currency := cmd.Currency
	if currency == "" {
		currency = prop.NightlyRate.Currency
	}
	rate, err := money.New(cmd.RateCents, currency)
	if err != nil {
		return nil, err
	}

	if err := prop.UpdateDetails(domainproperty.UpdateParams{
		Title:       cmd.Title,
		Description: cmd.Description,
		Address: domainproperty.Address{
			Line1:   cmd.Address.Line1,
			City:    cmd.Address.City,
			Country: cmd.Address.Country,
			Lat:     cmd.Address.Lat,
			Lon:     cmd.Address.Lon,
		},
		Capacity:    cmd.Capacity,
		NightlyRate: rate,
		BookingMode: domainproperty.BookingMode(strings.TrimSpace(cmd.BookingMode)),
		Now:         time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("property updated", "property_id", prop.ID)
	}

	view := dto.MapPropertyView(prop)
	return &view, nil
}

type PublishPropertyCommand struct {
	PropertyID string
	OwnerID    string
}

func (c PublishPropertyCommand) Key() string { return publishPropertyKey }

type SuspendPropertyCommand struct {
	PropertyID string
	OwnerID    string
	Reason     string
}

func (c SuspendPropertyCommand) Key() string { return suspendPropertyKey }

type ArchivePropertyCommand struct {
	PropertyID string
	OwnerID    string
}

func (c ArchivePropertyCommand) Key() string { return archivePropertyKey }

type StatusChangeResult struct {
	PropertyID string `json:"property_id"`
	Status     string `json:"status"`
}

type PublishPropertyHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *PublishPropertyHandler) Handle(ctx context.Context, cmd PublishPropertyCommand) (*StatusChangeResult, error) {
	unit, prop, err := loadOwned(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := prop.Publish(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, prop); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("property published", "property_id", prop.ID)
	}
	return &StatusChangeResult{PropertyID: string(prop.ID), Status: string(prop.Status)}, nil
}

type SuspendPropertyHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *SuspendPropertyHandler) Handle(ctx context.Context, cmd SuspendPropertyCommand) (*StatusChangeResult, error) {
	unit, prop, err := loadOwned(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := prop.Suspend(cmd.Reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, prop); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("property suspended", "property_id", prop.ID, "reason", cmd.Reason)
	}
	return &StatusChangeResult{PropertyID: string(prop.ID), Status: string(prop.Status)}, nil
}

type ArchivePropertyHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *ArchivePropertyHandler) Handle(ctx context.Context, cmd ArchivePropertyCommand) (*StatusChangeResult, error) {
	unit, prop, err := loadOwned(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := prop.Archive(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, prop); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("property archived", "property_id", prop.ID)
	}
	return &StatusChangeResult{PropertyID: string(prop.ID), Status: string(prop.Status)}, nil
}

var _ commands.Handler[CreatePropertyCommand, *dto.PropertyView] = (*CreatePropertyHandler)(nil)
var _ commands.Handler[UpdatePropertyCommand, *dto.PropertyView] = (*UpdatePropertyHandler)(nil)
var _ commands.Handler[PublishPropertyCommand, *StatusChangeResult] = (*PublishPropertyHandler)(nil)
var _ commands.Handler[SuspendPropertyCommand, *StatusChangeResult] = (*SuspendPropertyHandler)(nil)
var _ commands.Handler[ArchivePropertyCommand, *StatusChangeResult] = (*ArchivePropertyHandler)(nil)
