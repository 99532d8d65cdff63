package biz

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedImageTypes maps sniffed content types to file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaUpload is one uploaded file.
type MediaUpload struct {
	OriginalName string
	Size         int64
	Alt          string
	Content      io.Reader
}

// MediaUsecase 媒体业务逻辑
type MediaUsecase struct {
	media   MediaRepo
	storage MediaStorage
	maxSize int64
	logger  *slog.Logger
}

// NewMediaUsecase 创建 MediaUsecase
func NewMediaUsecase(media MediaRepo, storage MediaStorage, maxSize int64, logger *slog.Logger) *MediaUsecase {
	return &MediaUsecase{media: media, storage: storage, maxSize: maxSize, logger: logger}
}

func (uc *MediaUsecase) List(ctx context.Context) ([]Media, error) {
	return uc.media.List(ctx)
}

// Upload sniffs the content type, stores the file under a random name and
// records it.
func (uc *MediaUsecase) Upload(ctx context.Context, up MediaUpload) (*Media, error) {
	if up.Content == nil || up.Size == 0 {
		return nil, ValidationErrors{"Choose a file to upload."}
	}
	if up.Size > uc.maxSize {
		return nil, ValidationErrors{fmt.Sprintf("File is larger than %d bytes.", uc.maxSize)}
	}

	br := bufio.NewReaderSize(up.Content, 512)
	head, _ := br.Peek(512)
	mimeType := http.DetectContentType(head)
	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		return nil, ValidationErrors{"Only JPEG, PNG, GIF and WebP images are allowed."}
	}

	filename := uuid.NewString() + ext
	path, err := uc.storage.Save(filename, io.LimitReader(br, uc.maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	m := Media{
		Filename:     filename,
		OriginalName: filepath.Base(up.OriginalName),
		Path:         path,
		MimeType:     mimeType,
		Size:         up.Size,
		Alt:          strings.TrimSpace(up.Alt),
	}
	id, err := uc.media.Create(ctx, m)
	if err != nil {
		if rmErr := uc.storage.Remove(filename); rmErr != nil {
			uc.logger.Error("failed to remove orphaned upload", "file", filename, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}
	m.ID = id
	return &m, nil
}

// Delete removes the record and then the file.
func (uc *MediaUsecase) Delete(ctx context.Context, id int64) error {
	m, err := uc.media.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.media.Delete(ctx, id); err != nil {
		return err
	}
	if err := uc.storage.Remove(m.Filename); err != nil {
		uc.logger.Warn("failed to remove media file", "file", m.Filename, "error", err)
	}
	return nil
}
