package ncmsync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/catalogodata/catalogo_backend/models"
)

type fakeSource struct {
	name    string
	records []RawRecord
	err     error
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	return f.records, f.err
}

type fakeStore struct {
	rows        map[string]models.NcmCode
	failBatches map[int]bool
	batchCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]models.NcmCode{}, failBatches: map[int]bool{}}
}

func (f *fakeStore) UpsertBatch(ctx context.Context, codes []models.NcmCode) error {
	call := f.batchCalls
	f.batchCalls++
	if f.failBatches[call] {
		return errors.New("deadlock")
	}
	for _, c := range codes {
		f.rows[c.Codigo] = c
	}
	return nil
}

func (f *fakeStore) Count(ctx context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"8471.30.00", "84713000"},
		{"84713000", "84713000"},
		{" 0101.21.00 ", "01012100"},
		{"abc", ""},
		{"", ""},
	}
	for _, tc := range cases {
		got := NormalizeCode(tc.input)
		if got != tc.want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeRecords_DropsInvalidEntries(t *testing.T) {
	records := []RawRecord{
		{Codigo: "8471.30.00", Descricao: "  Máquinas de processamento de dados ", Tipo: " Res "},
		{Codigo: "....", Descricao: "sem código"},
		{Codigo: "0101", Descricao: "   "},
	}

	if got := NormalizeRecords([]RawRecord{{Codigo: "8471.30.00", Descricao: "Máquina"}}); len(got) != 1 || got[0].Tipo != "ncm" {
		t.Fatalf("expected default tipo ncm, got %+v", got)
	}

	codes := NormalizeRecords(records)
	if len(codes) != 1 {
		t.Fatalf("expected 1 record, got %d", len(codes))
	}
	if codes[0].Codigo != "84713000" {
		t.Fatalf("unexpected codigo %q", codes[0].Codigo)
	}
	if codes[0].Descricao != "Máquinas de processamento de dados" {
		t.Fatalf("descricao not trimmed: %q", codes[0].Descricao)
	}
	if codes[0].Tipo != "Res" {
		t.Fatalf("tipo not trimmed: %q", codes[0].Tipo)
	}
}

func TestSync_FallsBackWhenPrimaryEmpty(t *testing.T) {
	store := newFakeStore()
	syncer := NewSyncer(store,
		fakeSource{name: "siscomex"},
		fakeSource{name: "fallback", records: []RawRecord{
			{Codigo: "8471.30.00", Descricao: "Máquinas portáteis"},
			{Codigo: "0101.21.00", Descricao: "Cavalos reprodutores"},
		}},
	)

	result, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != "fallback" {
		t.Fatalf("expected fallback source, got %q", result.Source)
	}
	if result.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", result.Processed)
	}
	if result.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", result.Inserted)
	}
	if _, ok := store.rows["84713000"]; !ok {
		t.Fatalf("normalized code not persisted: %v", store.rows)
	}
}

func TestSync_FallsBackWhenPrimaryErrors(t *testing.T) {
	store := newFakeStore()
	syncer := NewSyncer(store,
		fakeSource{name: "siscomex", err: errors.New("503")},
		fakeSource{name: "fallback", records: []RawRecord{
			{Codigo: "84713000", Descricao: "Máquinas portáteis"},
		}},
	)

	result, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != "fallback" || result.Processed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSync_AllSourcesEmpty(t *testing.T) {
	store := newFakeStore()
	syncer := NewSyncer(store,
		fakeSource{name: "siscomex"},
		fakeSource{name: "fallback", err: errors.New("timeout")},
	)

	_, err := syncer.Sync(context.Background())
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatalf("nothing should be written, got %d rows", len(store.rows))
	}
}

func TestSync_ContinuesPastFailedBatch(t *testing.T) {
	records := make([]RawRecord, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, RawRecord{
			Codigo:    fmt.Sprintf("8471300%d", i),
			Descricao: fmt.Sprintf("item %d", i),
		})
	}

	store := newFakeStore()
	store.failBatches[1] = true

	syncer := NewSyncer(store, fakeSource{name: "siscomex", records: records})
	syncer.batchSize = 2

	var reported []int
	syncer.OnBatchError = func(batchIndex int, err error) {
		reported = append(reported, batchIndex)
	}

	result, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// batches: [0 1] ok, [2 3] fails, [4] ok
	if result.Processed != 3 {
		t.Fatalf("expected 3 processed, got %d", result.Processed)
	}
	if result.FailedBatches != 1 {
		t.Fatalf("expected 1 failed batch, got %d", result.FailedBatches)
	}
	if result.Inserted != 3 {
		t.Fatalf("expected 3 inserted, got %d", result.Inserted)
	}
	if len(reported) != 1 || reported[0] != 1 {
		t.Fatalf("expected OnBatchError for batch 1, got %v", reported)
	}
}

func TestSync_SecondRunInsertsNothing(t *testing.T) {
	records := []RawRecord{
		{Codigo: "84713000", Descricao: "Máquinas portáteis"},
		{Codigo: "01012100", Descricao: "Cavalos reprodutores"},
	}
	store := newFakeStore()
	syncer := NewSyncer(store, fakeSource{name: "siscomex", records: records})

	if _, err := syncer.Sync(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("expected 2 processed on rerun, got %d", result.Processed)
	}
	if result.Inserted != 0 {
		t.Fatalf("rerun should insert nothing, got %d", result.Inserted)
	}
}
