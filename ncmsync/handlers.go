package ncmsync

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TriggerSyncHandler refreshes the NCM table synchronously and reports the
// tally. Credential checks happen in middleware before this runs.
func TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, _, err := RunSyncNow(c.Request.Context(), models.SyncTriggeredManual)
		if err != nil {
			if errors.Is(err, ErrUpstreamUnavailable) {
				c.JSON(http.StatusBadGateway, gin.H{
					"error":      "nenhuma fonte de dados NCM disponível",
					"suggestion": "tente novamente mais tarde",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, TriggerSyncResponse{
			Success:          true,
			TotalProcessados: result.Processed,
			Inseridos:        result.Inserted,
			Message:          "tabela NCM atualizada com sucesso",
		})
	}
}

func SyncHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		db := config.GetDB().WithContext(c.Request.Context())

		var runs []models.ReferenceSyncRun
		if err := db.Order("id desc").Limit(limit).Find(&runs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]SyncRunResponse, 0, len(runs))
		for _, run := range runs {
			items = append(items, mapRunToResponse(run))
		}
		c.JSON(http.StatusOK, SyncHistoryResponse{Items: items})
	}
}

func SyncRunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())

		var run models.ReferenceSyncRun
		if err := db.Where("id = ?", id).Take(&run).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var errs []models.ReferenceSyncError
		if err := db.Where("sync_run_id = ?", run.ID).Order("id desc").Find(&errs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resp := SyncRunDetailResponse{
			SyncRunResponse: mapRunToResponse(run),
			Errors:          mapErrors(errs),
		}
		c.JSON(http.StatusOK, resp)
	}
}

// StatusHandler reports table size and the last completed run, so the panel
// can show how fresh the reference data is.
func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		count, err := models.CountNcmCodes(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		db := config.GetDB().WithContext(ctx)
		var lastRun models.ReferenceSyncRun
		var last *SyncRunResponse
		if err := db.Where("status IN ?", []string{models.SyncRunStatusSuccess, models.SyncRunStatusPartial}).
			Order("id desc").Take(&lastRun).Error; err == nil {
			mapped := mapRunToResponse(lastRun)
			last = &mapped
		}

		c.JSON(http.StatusOK, gin.H{
			"total_codigos": count,
			"last_run":      last,
		})
	}
}

// LookupHandler resolves one code, cache first.
func LookupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		codigo := NormalizeCode(c.Param("codigo"))
		if codigo == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "código inválido"})
			return
		}

		code, err := models.GetNcmCode(c.Request.Context(), codigo)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if code == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "código não encontrado"})
			return
		}
		c.JSON(http.StatusOK, code)
	}
}

func SearchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
			return
		}
		limit := 0
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			limit, _ = strconv.Atoi(v)
		}

		results, err := models.SearchNcmCodes(c.Request.Context(), query, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": results})
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapRunToResponse(run models.ReferenceSyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:            run.ID,
		Source:        run.Source,
		Status:        run.Status,
		StartedAt:     formatTime(run.StartedAt),
		FinishedAt:    formatTime(run.FinishedAt),
		DurationMs:    run.DurationMs,
		Processed:     run.Processed,
		Inserted:      run.Inserted,
		FailedBatches: run.FailedBatches,
		TriggeredBy:   run.TriggeredBy,
		Message:       run.Message,
	}
}

func mapErrors(errorsList []models.ReferenceSyncError) []SyncErrorResponse {
	out := make([]SyncErrorResponse, 0, len(errorsList))
	for _, errItem := range errorsList {
		out = append(out, SyncErrorResponse{
			ID:         errItem.ID,
			BatchIndex: errItem.BatchIndex,
			Message:    errItem.Message,
			Retryable:  errItem.Retryable,
		})
	}
	return out
}
