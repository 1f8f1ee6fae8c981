package property

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"sejour/internal/app/commands"
	"sejour/internal/app/policies"
	"sejour/internal/domain/shared/fault"
)

const attachPhotoKey = "property.photo.attach"

const maxPhotoSize = 10 << 20

type AttachPhotoCommand struct {
	PropertyID  string
	OwnerID     string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (c AttachPhotoCommand) Key() string { return attachPhotoKey }

type AttachPhotoResult struct {
	PropertyID string `json:"property_id"`
	URL        string `json:"url"`
}

type AttachPhotoHandler struct {
	Uploader policies.Uploader
	Logger   *slog.Logger
}

func (h *AttachPhotoHandler) Handle(ctx context.Context, cmd AttachPhotoCommand) (*AttachPhotoResult, error) {
	unit, prop, err := loadOwned(ctx, cmd.PropertyID, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if h.Uploader == nil {
		return nil, fault.Invalid("property: photo storage is not configured")
	}
	if cmd.Body == nil || cmd.Size <= 0 {
		return nil, fault.Invalid("property: photo payload is required")
	}
	if cmd.Size > maxPhotoSize {
		return nil, fault.Invalid("property: photo exceeds the %d byte limit", maxPhotoSize)
	}
	contentType := strings.TrimSpace(cmd.ContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fault.Invalid("property: only image uploads are accepted")
	}

	ext := path.Ext(cmd.FileName)
	key := fmt.Sprintf("properties/%s/%s%s", prop.ID, uuid.NewString(), ext)
	url, err := h.Uploader.Upload(ctx, key, contentType, cmd.Size, cmd.Body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := prop.AttachPhoto(url, now); err != nil {
		return nil, err
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("property photo attached", "property_id", prop.ID, "key", key)
	}

	return &AttachPhotoResult{PropertyID: string(prop.ID), URL: url}, nil
}

var _ commands.Handler[AttachPhotoCommand, *AttachPhotoResult] = (*AttachPhotoHandler)(nil)
