package files

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/employeevirtual/backend/internal/orion"
	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
)

type fakeGateway struct {
	storeCalls   int
	processCalls int
	processKinds []string
	storeErr     error
	processErr   error
}

func (f *fakeGateway) StoreObject(ctx context.Context, objectKey string, content []byte, contentType string) (*orion.StoredObject, error) {
	f.storeCalls++
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	return &orion.StoredObject{
		Bucket:    "test-bucket",
		ObjectKey: objectKey,
		URL:       "http://lake.local/" + objectKey,
		Size:      int64(len(content)),
	}, nil
}

func (f *fakeGateway) ProcessFile(ctx context.Context, fileURL, kind string) (*orion.ProcessResult, error) {
	f.processCalls++
	f.processKinds = append(f.processKinds, kind)
	if f.processErr != nil {
		return nil, f.processErr
	}
	return &orion.ProcessResult{
		Status:     "completed",
		StatusCode: 200,
		Output:     map[string]any{"text": "extracted"},
	}, nil
}

func newTestStore(t *testing.T) *database.Client {
	t.Helper()

	store, err := database.NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	return store
}

func upload(t *testing.T, service *Service, userID string) *models.File {
	t.Helper()

	file, err := service.Upload(context.Background(), userID, UploadInput{
		Name:        "report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4 test"),
		Tags:        []string{"reports"},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return file
}

func TestUploadStoresAndEnriches(t *testing.T) {
	store := newTestStore(t)
	gateway := &fakeGateway{}
	service := NewService(store, gateway)
	ctx := context.Background()

	file := upload(t, service, "user-1")

	if file.ID == "" || file.Size == 0 {
		t.Error("expected populated file record")
	}

	reloaded, err := service.Get(ctx, "user-1", file.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if reloaded.Status != models.FileProcessed {
		t.Errorf("expected processed, got %q", reloaded.Status)
	}

	if gateway.storeCalls != 1 || gateway.processCalls != 1 {
		t.Errorf("unexpected gateway calls: store=%d process=%d", gateway.storeCalls, gateway.processCalls)
	}
	if gateway.processKinds[0] != string(models.ProcessingDocAnalysis) {
		t.Errorf("expected document_analysis for pdf, got %q", gateway.processKinds[0])
	}

	records, err := service.ListProcessing(ctx, "user-1", file.ID)
	if err != nil {
		t.Fatalf("list processing failed: %v", err)
	}
	if len(records) != 1 || records[0].Status != "completed" {
		t.Fatalf("unexpected processing records: %+v", records)
	}

	if _, err := store.GetDataLakeObject(ctx, file.ID); err != nil {
		t.Errorf("expected data lake object, got %v", err)
	}
}

func TestUploadSucceedsWhenEnrichmentFails(t *testing.T) {
	store := newTestStore(t)
	gateway := &fakeGateway{processErr: errors.New("orion down")}
	service := NewService(store, gateway)
	ctx := context.Background()

	file := upload(t, service, "user-1")

	reloaded, err := service.Get(ctx, "user-1", file.ID)
	if err != nil {
		t.Fatalf("get after failed enrichment: %v", err)
	}
	if reloaded.Status != models.FileFailed {
		t.Errorf("expected failed status, got %q", reloaded.Status)
	}

	records, err := service.ListProcessing(ctx, "user-1", file.ID)
	if err != nil {
		t.Fatalf("list processing failed: %v", err)
	}
	if len(records) != 1 || records[0].Status != "failed" || records[0].Error == "" {
		t.Fatalf("expected failed processing record, got %+v", records)
	}
}

func TestUploadSucceedsWhenLakeFails(t *testing.T) {
	store := newTestStore(t)
	gateway := &fakeGateway{storeErr: errors.New("lake down")}
	service := NewService(store, gateway)
	ctx := context.Background()

	file := upload(t, service, "user-1")

	reloaded, err := service.Get(ctx, "user-1", file.ID)
	if err != nil {
		t.Fatalf("get after failed store: %v", err)
	}
	if reloaded.Status != models.FileUploaded {
		t.Errorf("expected uploaded status, got %q", reloaded.Status)
	}
	if gateway.processCalls != 0 {
		t.Errorf("enrichment should not run without a lake object")
	}
}

func TestProcessingKindByContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        models.ProcessingKind
	}{
		{"image/png", models.ProcessingOCR},
		{"audio/mpeg", models.ProcessingTranscription},
		{"video/mp4", models.ProcessingTranscription},
		{"application/pdf", models.ProcessingDocAnalysis},
		{"text/plain", models.ProcessingDocAnalysis},
	}
	for _, tc := range cases {
		if got := processingKind(tc.contentType); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.contentType, tc.want, got)
		}
	}
}

func TestOwnershipIsolation(t *testing.T) {
	service := NewService(newTestStore(t), &fakeGateway{})
	ctx := context.Background()

	file := upload(t, service, "user-1")

	if _, err := service.Get(ctx, "user-2", file.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found for foreign file, got %v", err)
	}
	if err := service.Delete(ctx, "user-2", file.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found deleting foreign file, got %v", err)
	}
}

func TestDeleteCascadesDependents(t *testing.T) {
	store := newTestStore(t)
	service := NewService(store, &fakeGateway{})
	ctx := context.Background()

	file := upload(t, service, "user-1")

	if err := service.Delete(ctx, "user-1", file.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := service.Get(ctx, "user-1", file.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected file gone, got %v", err)
	}
	if _, err := store.GetDataLakeObject(ctx, file.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected data lake object gone, got %v", err)
	}
	records, err := store.ListFileProcessing(ctx, file.ID)
	if err != nil {
		t.Fatalf("list processing failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected processing rows gone, got %d", len(records))
	}
}
