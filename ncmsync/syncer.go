package ncmsync

import (
	"context"
	"errors"
	"strings"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
)

// ErrUpstreamUnavailable means every configured source failed or returned an
// empty list. Nothing was written; callers should suggest retrying later.
var ErrUpstreamUnavailable = errors.New("all reference sources empty or unavailable")

const DefaultBatchSize = 500

// Store is the persistence surface the syncer writes through.
type Store interface {
	UpsertBatch(ctx context.Context, codes []models.NcmCode) error
	Count(ctx context.Context) (int64, error)
}

type SyncResult struct {
	Source        string
	Processed     int
	Inserted      int
	FailedBatches int
}

type Syncer struct {
	sources   []Source
	store     Store
	batchSize int

	// OnBatchError is called for each batch that failed to persist. The run
	// keeps going; this exists so callers can record the failure.
	OnBatchError func(batchIndex int, err error)
}

func NewSyncer(store Store, sources ...Source) *Syncer {
	return &Syncer{
		sources:   sources,
		store:     store,
		batchSize: DefaultBatchSize,
	}
}

// DefaultSources returns the configured upstream order: Siscomex first, then
// the mirror when the fallback flag is on.
func DefaultSources() []Source {
	sources := []Source{newPrimarySource()}
	if config.FallbackSourceEnabled() {
		sources = append(sources, newFallbackSource())
	}
	return sources
}

// Sync refreshes the reference table from the first source that yields data.
// Records are normalized, then written in batches; a batch that fails is
// logged and skipped, never aborting the run. Counts cover committed rows
// only. Re-running against unchanged upstream data changes nothing.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	logger := config.GetLogger()

	records, sourceName := s.fetchFirstAvailable(ctx)
	if len(records) == 0 {
		return SyncResult{}, ErrUpstreamUnavailable
	}

	codes := NormalizeRecords(records)
	if len(codes) == 0 {
		return SyncResult{Source: sourceName}, ErrUpstreamUnavailable
	}

	before, countErr := s.store.Count(ctx)

	result := SyncResult{Source: sourceName}
	batchSize := s.batchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	batchIndex := 0
	for start := 0; start < len(codes); start += batchSize {
		end := start + batchSize
		if end > len(codes) {
			end = len(codes)
		}
		batch := codes[start:end]

		if err := s.store.UpsertBatch(ctx, batch); err != nil {
			result.FailedBatches++
			config.LogError(logger, "ncmsync", "Sync", "batch upsert failed", batchIndex, err)
			if s.OnBatchError != nil {
				s.OnBatchError(batchIndex, err)
			}
			batchIndex++
			continue
		}
		result.Processed += len(batch)
		batchIndex++
	}

	if countErr == nil {
		if after, err := s.store.Count(ctx); err == nil && after > before {
			result.Inserted = int(after - before)
		}
	}

	return result, nil
}

func (s *Syncer) fetchFirstAvailable(ctx context.Context) ([]RawRecord, string) {
	logger := config.GetLogger()
	for _, source := range s.sources {
		records, err := source.Fetch(ctx)
		if err != nil {
			config.LogError(logger, "ncmsync", "fetchFirstAvailable", "source fetch failed", source.Name(), err)
			continue
		}
		if len(records) == 0 {
			continue
		}
		return records, source.Name()
	}
	return nil, ""
}

// NormalizeCode strips everything but digits, so "8471.30.00" and
// "84713000" collapse to the same key.
func NormalizeCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeRecords maps raw upstream entries to rows, dropping any with an
// empty code or description after normalization. Entries that carry no type
// discriminator are stored as plain "ncm".
func NormalizeRecords(records []RawRecord) []models.NcmCode {
	codes := make([]models.NcmCode, 0, len(records))
	for _, r := range records {
		codigo := NormalizeCode(r.Codigo)
		descricao := strings.TrimSpace(r.Descricao)
		if codigo == "" || descricao == "" {
			continue
		}
		tipo := strings.TrimSpace(r.Tipo)
		if tipo == "" {
			tipo = "ncm"
		}
		codes = append(codes, models.NcmCode{
			Codigo:    codigo,
			Descricao: descricao,
			Tipo:      tipo,
		})
	}
	return codes
}
