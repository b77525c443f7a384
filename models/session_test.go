package models

import (
	"encoding/json"
	"testing"
)

func baseMetadata() SessionMetadata {
	return SessionMetadata{
		RawData:           []map[string]any{{"sku": "A-1", "nome": "Parafuso M6"}},
		Columns:           []string{"sku", "nome", "preco"},
		FieldConfigs:      map[string]any{"nome": "title"},
		ProcessedProducts: []map[string]any{{"sku": "A-1", "tags": []string{"ncm"}}},
		CurrentTab:        "config",
	}
}

func TestMergeMetadata_NilPatchKeepsSnapshot(t *testing.T) {
	snap := baseMetadata()
	merged := MergeMetadata(snap, nil)
	if merged.CurrentTab != "config" || len(merged.RawData) != 1 || len(merged.Columns) != 3 {
		t.Fatalf("nil patch changed metadata: %+v", merged)
	}
}

func TestMergeMetadata_ReplacesOnlyNamedFields(t *testing.T) {
	snap := baseMetadata()
	tab := "process"
	processed := []map[string]any{
		{"sku": "A-1", "tags": []string{"ncm", "parafuso"}},
		{"sku": "A-2", "tags": []string{"porca"}},
	}
	merged := MergeMetadata(snap, &MetadataPatch{
		CurrentTab:        &tab,
		ProcessedProducts: &processed,
	})

	if merged.CurrentTab != "process" {
		t.Fatalf("currentTab not replaced: %q", merged.CurrentTab)
	}
	if len(merged.ProcessedProducts) != 2 {
		t.Fatalf("processedProducts not replaced: %d entries", len(merged.ProcessedProducts))
	}
	// unnamed sub-fields must survive untouched
	if len(merged.RawData) != 1 {
		t.Fatalf("rawData lost on merge")
	}
	if len(merged.Columns) != 3 {
		t.Fatalf("columns lost on merge")
	}
	if merged.FieldConfigs["nome"] != "title" {
		t.Fatalf("fieldConfigs lost on merge")
	}
}

func TestMergeMetadata_ExplicitEmptyValueWins(t *testing.T) {
	snap := baseMetadata()
	empty := []map[string]any{}
	merged := MergeMetadata(snap, &MetadataPatch{ProcessedProducts: &empty})
	if len(merged.ProcessedProducts) != 0 {
		t.Fatalf("explicit empty slice should replace stored value")
	}
	if len(merged.RawData) != 1 {
		t.Fatalf("rawData lost on merge")
	}
}

func TestMergeMetadata_DoesNotMutateSnapshot(t *testing.T) {
	snap := baseMetadata()
	tab := "review"
	_ = MergeMetadata(snap, &MetadataPatch{CurrentTab: &tab})
	if snap.CurrentTab != "config" {
		t.Fatalf("snapshot mutated by merge: %q", snap.CurrentTab)
	}
}

func TestMetadataPatch_AbsentVsNullFields(t *testing.T) {
	// A JSON body naming only currentTab must leave the other pointers nil.
	var patch MetadataPatch
	if err := json.Unmarshal([]byte(`{"currentTab":"process"}`), &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if patch.CurrentTab == nil || *patch.CurrentTab != "process" {
		t.Fatalf("currentTab not decoded")
	}
	if patch.RawData != nil || patch.Columns != nil || patch.FieldConfigs != nil || patch.ProcessedProducts != nil {
		t.Fatalf("absent fields must decode as nil")
	}
}

func TestSessionMetadata_ScanRoundtrip(t *testing.T) {
	snap := baseMetadata()
	v, err := snap.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out SessionMetadata
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out.CurrentTab != snap.CurrentTab || len(out.RawData) != len(snap.RawData) {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}
}
