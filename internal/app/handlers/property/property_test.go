package property_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sejour/internal/app/commands"
	"sejour/internal/app/dto"
	propertyapp "sejour/internal/app/handlers/property"
	"sejour/internal/app/middleware"
	"sejour/internal/app/queries"
	"sejour/internal/domain/shared/fault"
	domainuser "sejour/internal/domain/user"
	"sejour/internal/infra/storage/memory"
)

type fakeUploader struct {
	keys []string
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, size int64, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	u.keys = append(u.keys, key)
	return "https://cdn.example.test/" + key, nil
}

type harness struct {
	commands commands.Bus
	queries  queries.Bus
	users    *memory.UserRepository
	factory  memory.Factory
	uploader *fakeUploader
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	h := &harness{
		users:    memory.NewUserRepository(),
		uploader: &fakeUploader{},
	}
	h.factory = memory.Factory{
		PropertyRepo:    memory.NewPropertyRepository(),
		ReservationRepo: memory.NewReservationRepository(),
		PeriodRepo:      memory.NewPeriodRepository(),
		PaymentRepo:     memory.NewPaymentRepository(),
	}

	bus := commands.NewInMemoryBus()
	box := memory.NewOutbox()
	commands.RegisterHandler(bus, propertyapp.CreatePropertyCommand{}.Key(), &propertyapp.CreatePropertyHandler{Users: h.users, Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, propertyapp.UpdatePropertyCommand{}.Key(), &propertyapp.UpdatePropertyHandler{Logger: logger})
	commands.RegisterHandler(bus, propertyapp.PublishPropertyCommand{}.Key(), &propertyapp.PublishPropertyHandler{Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, propertyapp.SuspendPropertyCommand{}.Key(), &propertyapp.SuspendPropertyHandler{Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, propertyapp.ArchivePropertyCommand{}.Key(), &propertyapp.ArchivePropertyHandler{Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, propertyapp.AttachPhotoCommand{}.Key(), &propertyapp.AttachPhotoHandler{Uploader: h.uploader, Logger: logger})
	h.commands = middleware.ChainCommands(bus,
		middleware.Transaction(h.factory, nil),
		middleware.OutboxFlush(box),
	)

	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler(qbus, propertyapp.GetPropertyQuery{}.Key(), &propertyapp.GetPropertyHandler{UoWFactory: h.factory})
	queries.RegisterHandler(qbus, propertyapp.ListOwnerPropertiesQuery{}.Key(), &propertyapp.ListOwnerPropertiesHandler{UoWFactory: h.factory})
	h.queries = qbus

	owner, err := domainuser.New(domainuser.CreateParams{
		ID:           "owner-1",
		Email:        "owner@example.test",
		Name:         "Claire",
		PasswordHash: "hash",
		Roles:        []domainuser.Role{domainuser.RoleOwner, domainuser.RoleTenant},
	})
	require.NoError(t, err)
	require.NoError(t, h.users.Save(context.Background(), owner))

	tenant, err := domainuser.New(domainuser.CreateParams{
		ID:           "tenant-1",
		Email:        "tenant@example.test",
		Name:         "Jules",
		PasswordHash: "hash",
		Roles:        []domainuser.Role{domainuser.RoleTenant},
	})
	require.NoError(t, err)
	require.NoError(t, h.users.Save(context.Background(), tenant))
	return h
}

func (h *harness) create(ctx context.Context, t *testing.T, cmd propertyapp.CreatePropertyCommand) *dto.PropertyView {
	t.Helper()
	view, err := commands.Dispatch[propertyapp.CreatePropertyCommand, *dto.PropertyView](ctx, h.commands, cmd)
	require.NoError(t, err)
	return view
}

func validCreate() propertyapp.CreatePropertyCommand {
	return propertyapp.CreatePropertyCommand{
		OwnerID:     "owner-1",
		Title:       "Gite du Lac",
		Description: "Vue sur le lac d'Annecy",
		Address: propertyapp.AddressInput{
			Line1:   "4 quai des Marquisats",
			City:    "Annecy",
			Country: "FR",
		},
		Capacity:  5,
		RateCents: 14500,
	}
}

func TestCreateProperty(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	view := h.create(ctx, t, validCreate())
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "owner-1", view.OwnerID)
	assert.Equal(t, "suspended", view.Status)
	assert.Equal(t, "request", view.BookingMode)
	assert.Equal(t, int64(14500), view.NightlyRate.Cents)
	assert.Equal(t, "EUR", view.NightlyRate.Currency)

	got, err := queries.Ask[propertyapp.GetPropertyQuery, dto.PropertyView](ctx, h.queries, propertyapp.GetPropertyQuery{PropertyID: view.ID})
	require.NoError(t, err)
	assert.Equal(t, view.Title, got.Title)
}

func TestCreatePropertyRequiresOwnerRole(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	cmd := validCreate()
	cmd.OwnerID = "tenant-1"
	_, err := commands.Dispatch[propertyapp.CreatePropertyCommand, *dto.PropertyView](ctx, h.commands, cmd)
	require.Error(t, err)
	assert.True(t, fault.IsForbidden(err))

	cmd.OwnerID = "ghost"
	_, err = commands.Dispatch[propertyapp.CreatePropertyCommand, *dto.PropertyView](ctx, h.commands, cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
}

func TestModerationLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	view := h.create(ctx, t, validCreate())

	published, err := commands.Dispatch[propertyapp.PublishPropertyCommand, *propertyapp.StatusChangeResult](ctx, h.commands, propertyapp.PublishPropertyCommand{
		PropertyID: view.ID,
		OwnerID:    "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "active", published.Status)

	suspended, err := commands.Dispatch[propertyapp.SuspendPropertyCommand, *propertyapp.StatusChangeResult](ctx, h.commands, propertyapp.SuspendPropertyCommand{
		PropertyID: view.ID,
		OwnerID:    "owner-1",
		Reason:     "renovation",
	})
	require.NoError(t, err)
	assert.Equal(t, "suspended", suspended.Status)

	// Suspending twice is refused: the listing is already off the market.
	_, err = commands.Dispatch[propertyapp.SuspendPropertyCommand, *propertyapp.StatusChangeResult](ctx, h.commands, propertyapp.SuspendPropertyCommand{
		PropertyID: view.ID,
		OwnerID:    "owner-1",
		Reason:     "again",
	})
	require.Error(t, err)
	assert.True(t, fault.IsInvalid(err))

	archived, err := commands.Dispatch[propertyapp.ArchivePropertyCommand, *propertyapp.StatusChangeResult](ctx, h.commands, propertyapp.ArchivePropertyCommand{
		PropertyID: view.ID,
		OwnerID:    "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "archived", archived.Status)

	_, err = commands.Dispatch[propertyapp.PublishPropertyCommand, *propertyapp.StatusChangeResult](ctx, h.commands, propertyapp.PublishPropertyCommand{
		PropertyID: view.ID,
		OwnerID:    "owner-1",
	})
	require.Error(t, err)
	assert.True(t, fault.IsInvalid(err))
}

func TestPublishRequiresCompleteAddress(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	cmd := validCreate()
	cmd.Address = propertyapp.AddressInput{}
	view := h.create(ctx, t, cmd)

	_, err := commands.Dispatch[propertyapp.PublishPropertyCommand, *propertyapp.StatusChangeResult](ctx, h.commands, propertyapp.PublishPropertyCommand{
		PropertyID: view.ID,
		OwnerID:    "owner-1",
	})
	require.Error(t, err)
	assert.True(t, fault.IsInvalid(err))

	_, err = commands.Dispatch[propertyapp.UpdatePropertyCommand, *dto.PropertyView](ctx, h.commands, propertyapp.UpdatePropertyCommand{
		PropertyID:  view.ID,
		OwnerID:     "owner-1",
		Title:       view.Title,
		Description: view.Description,
		Address: propertyapp.AddressInput{
			Line1:   "12 rue Vaugelas",
			City:    "Annecy",
			Country: "FR",
		},
		Capacity:  4,
		RateCents: 15000,
	})
	require.NoError(t, err)

	published, err := commands.Dispatch[propertyapp.PublishPropertyCommand, *propertyapp.StatusChangeResult](ctx, h.commands, propertyapp.PublishPropertyCommand{
		PropertyID: view.ID,
		OwnerID:    "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "active", published.Status)
}

func TestUpdatePropertyAuthorization(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	view := h.create(ctx, t, validCreate())

	cmd := propertyapp.UpdatePropertyCommand{
		PropertyID: view.ID,
		OwnerID:    "tenant-1",
		Title:      "Hijacked",
		Capacity:   2,
		RateCents:  100,
	}
	_, err := commands.Dispatch[propertyapp.UpdatePropertyCommand, *dto.PropertyView](ctx, h.commands, cmd)
	require.Error(t, err)
	assert.True(t, fault.IsForbidden(err))
}

func TestAttachPhoto(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	view := h.create(ctx, t, validCreate())

	result, err := commands.Dispatch[propertyapp.AttachPhotoCommand, *propertyapp.AttachPhotoResult](ctx, h.commands, propertyapp.AttachPhotoCommand{
		PropertyID:  view.ID,
		OwnerID:     "owner-1",
		FileName:    "facade.jpg",
		ContentType: "image/jpeg",
		Size:        1024,
		Body:        strings.NewReader("jpegdata"),
	})
	require.NoError(t, err)
	assert.Contains(t, result.URL, "properties/"+view.ID+"/")
	assert.True(t, strings.HasSuffix(result.URL, ".jpg"))

	got, err := queries.Ask[propertyapp.GetPropertyQuery, dto.PropertyView](ctx, h.queries, propertyapp.GetPropertyQuery{PropertyID: view.ID})
	require.NoError(t, err)
	require.Len(t, got.Photos, 1)
	assert.Equal(t, result.URL, got.Photos[0])
}

func TestAttachPhotoRejectsBadPayloads(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	view := h.create(ctx, t, validCreate())

	cases := map[string]propertyapp.AttachPhotoCommand{
		"not an image": {
			PropertyID:  view.ID,
			OwnerID:     "owner-1",
			FileName:    "notes.pdf",
			ContentType: "application/pdf",
			Size:        512,
			Body:        strings.NewReader("pdf"),
		},
		"empty body": {
			PropertyID:  view.ID,
			OwnerID:     "owner-1",
			FileName:    "facade.jpg",
			ContentType: "image/jpeg",
		},
		"oversized": {
			PropertyID:  view.ID,
			OwnerID:     "owner-1",
			FileName:    "facade.jpg",
			ContentType: "image/jpeg",
			Size:        11 << 20,
			Body:        strings.NewReader("huge"),
		},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := commands.Dispatch[propertyapp.AttachPhotoCommand, *propertyapp.AttachPhotoResult](ctx, h.commands, cmd)
			require.Error(t, err)
			assert.True(t, fault.IsInvalid(err))
		})
	}
	assert.Empty(t, h.uploader.keys)
}

func TestListOwnerProperties(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first := validCreate()
	h.create(ctx, t, first)
	time.Sleep(2 * time.Millisecond)
	second := validCreate()
	second.Title = "Studio Vieille Ville"
	h.create(ctx, t, second)

	listing, err := queries.Ask[propertyapp.ListOwnerPropertiesQuery, dto.PropertyCollection](ctx, h.queries, propertyapp.ListOwnerPropertiesQuery{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, listing.Items, 2)
	// Newest first.
	assert.Equal(t, "Studio Vieille Ville", listing.Items[0].Title)

	empty, err := queries.Ask[propertyapp.ListOwnerPropertiesQuery, dto.PropertyCollection](ctx, h.queries, propertyapp.ListOwnerPropertiesQuery{OwnerID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}
