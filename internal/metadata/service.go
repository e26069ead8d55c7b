package metadata

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/internal/llm"
	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
	"github.com/employeevirtual/backend/pkg/logger"
)

const maxSourceLength = 200000

// Extractor runs the structured extraction; satisfied by *llm.Client.
type Extractor interface {
	ExtractMetadata(ctx context.Context, source string) (*llm.ExtractedMetadata, error)
	ExtractionModel() string
}

type Service struct {
	store     *database.Client
	extractor Extractor
}

func NewService(store *database.Client, extractor Extractor) *Service {
	return &Service{store: store, extractor: extractor}
}

type ExtractInput struct {
	Text   string `json:"text"`
	FileID string `json:"file_id"`
}

// Extract runs LLM metadata extraction over the supplied text, or over
// the text Orion already pulled out of a stored file when the request
// names a file instead of inline text. A failed model call is still
// persisted as a failed extraction so the attempt shows up in listings.
func (s *Service) Extract(ctx context.Context, userID string, input ExtractInput) (*models.MetadataExtraction, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && input.FileID == "" {
		return nil, apperr.Validation("text", "document text or file_id is required")
	}

	if input.FileID != "" {
		if _, err := s.store.GetFile(ctx, userID, input.FileID); err != nil {
			return nil, err
		}
		if text == "" {
			fileText, err := s.fileText(ctx, input.FileID)
			if err != nil {
				return nil, err
			}
			text = fileText
		}
	}

	if len(text) > maxSourceLength {
		return nil, apperr.Validation("text", "document text exceeds maximum length")
	}

	extraction := &models.MetadataExtraction{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileID:    input.FileID,
		Source:    truncate(text, 500),
		Model:     s.extractor.ExtractionModel(),
		CreatedAt: time.Now().UTC(),
	}

	extracted, err := s.extractor.ExtractMetadata(ctx, text)
	if err != nil {
		logger.Error("Metadata extraction failed", zap.String("user_id", userID), zap.Error(err))
		extraction.Status = models.ExtractionFailed
		extraction.Error = err.Error()
	} else {
		extraction.Status = models.ExtractionCompleted
		extraction.Fields = models.MetadataFields{
			Title:        extracted.Title,
			Author:       extracted.Author,
			DocumentType: extracted.DocumentType,
			Date:         extracted.Date,
			Summary:      extracted.Summary,
			Keywords:     extracted.Keywords,
			Language:     extracted.Language,
		}
	}

	if err := s.store.CreateExtraction(ctx, extraction); err != nil {
		return nil, err
	}

	return extraction, nil
}

// fileText returns the most recent extracted text Orion produced for
// the file. Records are newest first, so the first completed record
// with a text payload wins.
func (s *Service) fileText(ctx context.Context, fileID string) (string, error) {
	records, err := s.store.ListFileProcessing(ctx, fileID)
	if err != nil {
		return "", err
	}
	for _, record := range records {
		if record.Status != "completed" {
			continue
		}
		if text, ok := record.Result["text"].(string); ok && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
	}
	return "", apperr.Validation("file_id", "file has no extracted text")
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.MetadataExtraction, error) {
	return s.store.GetExtraction(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]models.MetadataExtraction, error) {
	return s.store.ListExtractions(ctx, userID, limit)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteExtraction(ctx, userID, id)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
