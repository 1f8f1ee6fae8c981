package property

import (
	"context"
	"sort"
	"strings"

	"sejour/internal/app/dto"
	"sejour/internal/app/queries"
	"sejour/internal/app/support"
	"sejour/internal/app/uow"
	domainproperty "sejour/internal/domain/property"
	"sejour/internal/domain/shared/fault"
	domainuser "sejour/internal/domain/user"
)

const (
	getPropertyKey         = "property.get"
	listOwnerPropertiesKey = "property.list_by_owner"
)

type GetPropertyQuery struct {
	PropertyID string
}

func (q GetPropertyQuery) Key() string { return getPropertyKey }

type GetPropertyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPropertyHandler) Handle(ctx context.Context, q GetPropertyQuery) (dto.PropertyView, error) {
	propertyID := strings.TrimSpace(q.PropertyID)
	if propertyID == "" {
		return dto.PropertyView{}, fault.Invalid("property: property id is required")
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(propertyID))
	if err != nil {
		return dto.PropertyView{}, err
	}
	return dto.MapPropertyView(prop), nil
}

type ListOwnerPropertiesQuery struct {
	OwnerID string
}

func (q ListOwnerPropertiesQuery) Key() string { return listOwnerPropertiesKey }

type ListOwnerPropertiesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListOwnerPropertiesHandler) Handle(ctx context.Context, q ListOwnerPropertiesQuery) (dto.PropertyCollection, error) {
	ownerID := strings.TrimSpace(q.OwnerID)
	if ownerID == "" {
		return dto.PropertyCollection{}, fault.Invalid("property: owner id is required")
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	props, err := unit.Properties().ListByOwner(execCtx, domainuser.ID(ownerID))
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	items := make([]dto.PropertyView, 0, len(props))
	for _, prop := range props {
		items = append(items, dto.MapPropertyView(prop))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.PropertyCollection{Items: items}, nil
}

var _ queries.Handler[GetPropertyQuery, dto.PropertyView] = (*GetPropertyHandler)(nil)
var _ queries.Handler[ListOwnerPropertiesQuery, dto.PropertyCollection] = (*ListOwnerPropertiesHandler)(nil)
