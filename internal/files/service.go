package files

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/internal/orion"
	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
	"github.com/employeevirtual/backend/pkg/logger"
)

const maxFileSize = 50 << 20

// Gateway is the slice of the Orion client the file service needs.
type Gateway interface {
	StoreObject(ctx context.Context, objectKey string, content []byte, contentType string) (*orion.StoredObject, error)
	ProcessFile(ctx context.Context, fileURL, kind string) (*orion.ProcessResult, error)
}

type Service struct {
	store   *database.Client
	gateway Gateway
}

func NewService(store *database.Client, gateway Gateway) *Service {
	return &Service{store: store, gateway: gateway}
}

type UploadInput struct {
	Name        string
	ContentType string
	Content     []byte
	Tags        []string
}

type UpdateInput struct {
	Name   *string   `json:"name"`
	Status *string   `json:"status"`
	Tags   *[]string `json:"tags"`
}

// Upload stores the file record and its data lake object, then runs the
// Orion enrichment best-effort: a processing failure marks the file
// failed but the upload itself still succeeds.
func (s *Service) Upload(ctx context.Context, userID string, input UploadInput) (*models.File, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name", "file name is required")
	}
	if len(input.Content) == 0 {
		return nil, apperr.Validation("content", "file content is required")
	}
	if len(input.Content) > maxFileSize {
		return nil, apperr.Validation("content", "file exceeds maximum size")
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now().UTC()
	file := &models.File{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		OriginalName: name,
		Size:         int64(len(input.Content)),
		ContentType:  contentType,
		Status:       models.FileUploaded,
		Tags:         input.Tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateFile(ctx, file); err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("%s/%s%s", userID, file.ID, filepath.Ext(name))
	stored, err := s.gateway.StoreObject(ctx, objectKey, input.Content, contentType)
	if err != nil {
		// Without a lake object there is nothing to enrich; the row
		// stays in uploaded state for a later retry by the client.
		logger.Error("Data lake upload failed", zap.String("file_id", file.ID), zap.Error(err))
		return file, nil
	}

	lakeObject := &models.DataLakeObject{
		ID:        uuid.NewString(),
		FileID:    file.ID,
		Bucket:    stored.Bucket,
		ObjectKey: stored.ObjectKey,
		URL:       stored.URL,
		Size:      stored.Size,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDataLakeObject(ctx, lakeObject); err != nil {
		logger.Error("Failed to record data lake object", zap.String("file_id", file.ID), zap.Error(err))
		return file, nil
	}

	s.enrich(ctx, file, stored.URL)

	return file, nil
}

// enrich runs the content-type appropriate Orion processing. Every
// failure is logged and swallowed; the upload has already succeeded.
func (s *Service) enrich(ctx context.Context, file *models.File, fileURL string) {
	kind := processingKind(file.ContentType)

	file.Status = models.FileProcessing
	file.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateFile(ctx, file); err != nil {
		logger.Warn("Failed to mark file processing", zap.String("file_id", file.ID), zap.Error(err))
	}

	record := &models.FileProcessingRecord{
		ID:        uuid.NewString(),
		FileID:    file.ID,
		Kind:      kind,
		Status:    "running",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateFileProcessing(ctx, record); err != nil {
		logger.Warn("Failed to create processing record", zap.String("file_id", file.ID), zap.Error(err))
		return
	}

	result, err := s.gateway.ProcessFile(ctx, fileURL, string(kind))

	call := &models.OrionCall{
		ID:        uuid.NewString(),
		FileID:    file.ID,
		Operation: string(kind),
		CreatedAt: time.Now().UTC(),
	}

	if err != nil {
		logger.Warn("Orion enrichment failed",
			zap.String("file_id", file.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		record.Status = "failed"
		record.Error = err.Error()
		file.Status = models.FileFailed
	} else {
		call.StatusCode = result.StatusCode
		call.Response = result.Output
		record.Status = result.Status
		record.Result = result.Output
		file.Status = models.FileProcessed
	}

	if err := s.store.CreateOrionCall(ctx, call); err != nil {
		logger.Warn("Failed to record orion call", zap.String("file_id", file.ID), zap.Error(err))
	}

	record.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateFileProcessing(ctx, record); err != nil {
		logger.Warn("Failed to update processing record", zap.String("file_id", file.ID), zap.Error(err))
	}

	file.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateFile(ctx, file); err != nil {
		logger.Warn("Failed to update file status", zap.String("file_id", file.ID), zap.Error(err))
	}
}

func processingKind(contentType string) models.ProcessingKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.ProcessingOCR
	case strings.HasPrefix(contentType, "audio/"), strings.HasPrefix(contentType, "video/"):
		return models.ProcessingTranscription
	default:
		return models.ProcessingDocAnalysis
	}
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.File, error) {
	return s.store.GetFile(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string) ([]models.File, error) {
	return s.store.ListFiles(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*models.File, error) {
	file, err := s.store.GetFile(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Validation("name", "file name is required")
		}
		file.Name = name
	}
	if input.Status != nil {
		status := models.FileStatus(*input.Status)
		switch status {
		case models.FileUploaded, models.FileProcessing, models.FileProcessed, models.FileFailed:
			file.Status = status
		default:
			return nil, apperr.Validation("status", "must be uploaded, processing, processed, or failed")
		}
	}
	if input.Tags != nil {
		file.Tags = *input.Tags
	}

	file.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteFile(ctx, userID, id); err != nil {
		return err
	}
	logger.Info("File deleted with dependents", zap.String("file_id", id))
	return nil
}

func (s *Service) ListProcessing(ctx context.Context, userID, id string) ([]models.FileProcessingRecord, error) {
	if _, err := s.store.GetFile(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.ListFileProcessing(ctx, id)
}
