package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/ports"
)

const uploadsKey = "ocean-platform-uploads"

// UploadService tracks upload metadata records. File bytes never pass
// through here.
type UploadService struct {
	store ports.KVStore
}

// NewUploadService creates a new UploadService.
func NewUploadService(store ports.KVStore) *UploadService {
	return &UploadService{store: store}
}

// List returns all recorded uploads; missing or corrupt state is an
// empty list.
func (s *UploadService) List(ctx context.Context) []domain.UploadedFile {
	data, err := s.store.Get(ctx, uploadsKey)
	if err != nil {
		return nil
	}
	var files []domain.UploadedFile
	if err := json.Unmarshal(data, &files); err != nil {
		return nil
	}
	return files
}

// Add records a new upload and returns it.
func (s *UploadService) Add(ctx context.Context, name, contentType string, size int64) (*domain.UploadedFile, error) {
	if name == "" {
		return nil, fmt.Errorf("upload name must not be empty")
	}

	file := domain.UploadedFile{
		ID:          strconv.FormatInt(time.Now().UnixMilli(), 10),
		Name:        name,
		Size:        size,
		ContentType: contentType,
		Status:      "processed",
		UploadedAt:  time.Now().UTC(),
	}

	files := append(s.List(ctx), file)
	if err := s.save(ctx, files); err != nil {
		return nil, err
	}
	return &file, nil
}

// Remove deletes an upload record by ID. Unknown IDs return false.
func (s *UploadService) Remove(ctx context.Context, id string) (bool, error) {
	files := s.List(ctx)
	kept := files[:0]
	found := false
	for _, f := range files {
		if f.ID == id {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return false, nil
	}
	return true, s.save(ctx, kept)
}

func (s *UploadService) save(ctx context.Context, files []domain.UploadedFile) error {
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("marshal uploads: %w", err)
	}
	if err := s.store.Set(ctx, uploadsKey, data); err != nil {
		return fmt.Errorf("store uploads: %w", err)
	}
	return nil
}
