package ncmsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
	"github.com/catalogodata/catalogo_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const syncLockKey = "Lock:NcmSync"

// dbStore writes through the models layer.
type dbStore struct{}

func (dbStore) UpsertBatch(ctx context.Context, codes []models.NcmCode) error {
	return models.UpsertNcmCodes(ctx, codes)
}

func (dbStore) Count(ctx context.Context) (int64, error) {
	return models.CountNcmCodes(ctx)
}

// RunSyncNow creates a run row and executes it inline. Used by the HTTP
// trigger, which reports the outcome in the response.
func RunSyncNow(ctx context.Context, triggeredBy string) (SyncResult, *models.ReferenceSyncRun, error) {
	db := config.GetDB().WithContext(ctx)

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	run := models.ReferenceSyncRun{
		Status:        models.SyncRunStatusQueued,
		TriggeredBy:   triggeredBy,
		CorrelationId: correlationId,
	}
	if err := db.Create(&run).Error; err != nil {
		return SyncResult{}, nil, err
	}

	result, err := executeRun(ctx, &run)
	return result, &run, err
}

func processSyncRun(ctx context.Context, payload SyncPubSubPayload) error {
	if payload.RunId == 0 {
		return errors.New("invalid payload")
	}
	run, err := utils.FetchSingleModel[models.ReferenceSyncRun](ctx, fmt.Sprint(payload.RunId))
	if err != nil {
		return err
	}
	// Pub/Sub redelivers; finished runs are not replayed.
	if run.Status == models.SyncRunStatusSuccess || run.Status == models.SyncRunStatusFailed || run.Status == models.SyncRunStatusPartial {
		return nil
	}

	_, err = executeRun(ctx, run)
	return err
}

func executeRun(ctx context.Context, run *models.ReferenceSyncRun) (SyncResult, error) {
	logger := config.GetLogger()

	var span trace.Span
	ctx, span = otel.Tracer("ncmsync").Start(ctx, "reference-sync")
	span.SetAttributes(attribute.Int("run_id", int(run.ID)))
	defer span.End()

	db := config.GetDB().WithContext(ctx)

	// One refresh at a time. The lock is best-effort: without Redis the run
	// proceeds anyway, upserts keyed on codigo stay idempotent.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, syncLockKey, 5*time.Minute, nil)
		if err == redislock.ErrNotObtained {
			msg := "another reference sync is already running"
			finishRun(ctx, run, SyncResult{}, models.SyncRunStatusFailed, msg, run.StartedAt)
			return SyncResult{}, errors.New(msg)
		}
		if err == nil {
			defer func() {
				_ = lock.Release(ctx)
			}()
		} else {
			config.LogError(logger, "ncmsync", "executeRun", "redis lock error, proceeding", run.ID, err)
		}
	}

	now := time.Now()
	startedAt := &now
	if err := db.Model(run).Updates(map[string]interface{}{
		"status":     models.SyncRunStatusRunning,
		"started_at": startedAt,
	}).Error; err != nil {
		return SyncResult{}, err
	}

	syncer := NewSyncer(dbStore{}, DefaultSources()...)
	syncer.OnBatchError = func(batchIndex int, batchErr error) {
		errRec := models.ReferenceSyncError{
			SyncRunId:  run.ID,
			BatchIndex: batchIndex,
			ErrorCode:  "batch_upsert_failed",
			Message:    batchErr.Error(),
			Retryable:  true,
		}
		if err := db.Create(&errRec).Error; err != nil {
			config.LogError(logger, "ncmsync", "executeRun", "failed to record batch error", run.ID, err)
		}
	}

	result, err := syncer.Sync(ctx)
	if err != nil {
		span.RecordError(err)
		finishRun(ctx, run, result, models.SyncRunStatusFailed, err.Error(), startedAt)
		return result, err
	}

	status := models.SyncRunStatusSuccess
	if result.FailedBatches > 0 {
		status = models.SyncRunStatusPartial
	}
	message := fmt.Sprintf("%d códigos processados, %d inseridos (fonte: %s)", result.Processed, result.Inserted, result.Source)
	finishRun(ctx, run, result, status, message, startedAt)
	return result, nil
}

func finishRun(ctx context.Context, run *models.ReferenceSyncRun, result SyncResult, status string, message string, startedAt *time.Time) {
	logger := config.GetLogger()
	db := config.GetDB().WithContext(ctx)

	finishedAt := time.Now()
	var durationMs int64
	if startedAt != nil {
		durationMs = finishedAt.Sub(*startedAt).Milliseconds()
	}

	if err := db.Model(run).Updates(map[string]interface{}{
		"source":         result.Source,
		"status":         status,
		"processed":      result.Processed,
		"inserted":       result.Inserted,
		"failed_batches": result.FailedBatches,
		"message":        message,
		"finished_at":    finishedAt,
		"duration_ms":    durationMs,
	}).Error; err != nil {
		config.LogError(logger, "ncmsync", "finishRun", "failed to finalize run", run.ID, err)
	}
}
