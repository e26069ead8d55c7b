package llm

import (
	"math"
	"testing"
)

func TestResolveTemperature(t *testing.T) {
	client := NewClient("test-key", "gpt-4o-mini", "gpt-4o-mini", 0.7, 1024, 30)

	if got := client.resolveTemperature(nil); got != 0.7 {
		t.Errorf("expected configured default for nil, got %v", got)
	}

	explicit := float32(0.4)
	if got := client.resolveTemperature(&explicit); got != 0.4 {
		t.Errorf("expected explicit value, got %v", got)
	}

	zero := float32(0)
	got := client.resolveTemperature(&zero)
	if got != math.SmallestNonzeroFloat32 {
		t.Errorf("expected explicit zero nudged past omitempty, got %v", got)
	}
}

func TestDecodeMetadataStripsFences(t *testing.T) {
	fenced := "```json\n{\"title\":\"Invoice 42\",\"document_type\":\"invoice\",\"keywords\":[\"billing\"]}\n```"

	extracted, err := decodeMetadata(fenced)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if extracted.Title != "Invoice 42" || extracted.DocumentType != "invoice" {
		t.Errorf("unexpected fields: %+v", extracted)
	}

	if _, err := decodeMetadata("not json"); err == nil {
		t.Error("expected error for non-JSON output")
	}
}
