package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/catalogodata/catalogo_backend/catalog"
	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
	"github.com/catalogodata/catalogo_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// updateSessionRequest is the flat wire shape the panel sends; metadata
// sub-fields sit at the top level. Absent fields stay untouched, so every
// field is a pointer.
type updateSessionRequest struct {
	Status            *string           `json:"status"`
	ItemsProcessed    *int              `json:"itemsProcessed"`
	RawData           *[]map[string]any `json:"rawData"`
	Columns           *[]string         `json:"columns"`
	FieldConfigs      *map[string]any   `json:"fieldConfigs"`
	ProcessedProducts *[]map[string]any `json:"processedProducts"`
	CurrentTab        *string           `json:"currentTab"`
}

type sessionWriteResponse struct {
	Success  bool              `json:"success"`
	Session  *models.Session   `json:"session,omitempty"`
	Sessions []*models.Session `json:"sessions"`
}

func createSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSession
		if err := c.ShouldBindJSON(&input); err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if input.TotalItems == 0 {
			input.TotalItems = len(input.RawData)
		}

		ctx := c.Request.Context()
		session, err := models.CreateSession(ctx, &input)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}

		c.JSON(http.StatusCreated, sessionWriteResponse{
			Success:  true,
			Session:  session,
			Sessions: models.ListSessions(ctx),
		})
	}
}

func listSessionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": models.ListSessions(c.Request.Context())})
	}
}

func getSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := models.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if session == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func updateSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		patch := &models.SessionPatch{
			Status:         req.Status,
			ItemsProcessed: req.ItemsProcessed,
		}
		if req.RawData != nil || req.Columns != nil || req.FieldConfigs != nil ||
			req.ProcessedProducts != nil || req.CurrentTab != nil {
			patch.Metadata = &models.MetadataPatch{
				RawData:           req.RawData,
				Columns:           req.Columns,
				FieldConfigs:      req.FieldConfigs,
				ProcessedProducts: req.ProcessedProducts,
				CurrentTab:        req.CurrentTab,
			}
		}

		ctx := c.Request.Context()
		if !models.UpdateSession(ctx, c.Param("id"), patch) {
			c.JSON(http.StatusNotFound, sessionWriteResponse{
				Success:  false,
				Sessions: models.ListSessions(ctx),
			})
			return
		}

		session, _ := models.GetSession(ctx, c.Param("id"))
		c.JSON(http.StatusOK, sessionWriteResponse{
			Success:  true,
			Session:  session,
			Sessions: models.ListSessions(ctx),
		})
	}
}

func deleteSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		session, _ := models.GetSession(ctx, c.Param("id"))

		ok := models.DeleteSession(ctx, c.Param("id"))
		if ok && session != nil && session.ArchivedFileURL != "" {
			if key := utils.ExtractObjectKeyFromURL(session.ArchivedFileURL); key != "" {
				// Best-effort; an orphaned archive object is harmless.
				if err := utils.DeleteObjectFromGCS(ctx, key); err != nil {
					config.LogError(config.GetLogger(), "sessions", "deleteSessionHandler", "archive cleanup failed", key, err)
				}
			}
		}

		c.JSON(http.StatusOK, sessionWriteResponse{
			Success:  ok,
			Sessions: models.ListSessions(ctx),
		})
	}
}

// sessionArchiveURLHandler returns a short-lived download link for the
// archived original spreadsheet.
func sessionArchiveURLHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		session, err := models.GetSession(ctx, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if session == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		if session.ArchivedFileURL == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no archived file for this session"})
			return
		}

		objectKey := utils.ExtractObjectKeyFromURL(session.ArchivedFileURL)
		if objectKey == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid archive reference"})
			return
		}

		if exists, err := utils.ObjectExistsInGCS(ctx, objectKey); err == nil && !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "archived file no longer exists"})
			return
		}

		signedURL, err := utils.SignDownload(ctx, objectKey, 15*time.Minute)
		if err != nil {
			config.LogError(config.GetLogger(), "sessions", "sessionArchiveURLHandler", "sign failed", objectKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign download"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"url":       signedURL,
			"accessUrl": session.ArchivedFileURL,
		})
	}
}

// sessionDiagnosticsHandler analyzes one column of the session's raw rows
// and lists rows whose value in that column is duplicated.
func sessionDiagnosticsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		column := strings.TrimSpace(c.Query("column"))
		if column == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "column is required"})
			return
		}

		session, err := models.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if session == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		rows := session.Metadata.RawData
		duplicates := catalog.FindDuplicateSKUs(rows, column)
		c.JSON(http.StatusOK, gin.H{
			"analysis":   catalog.AnalyzeColumn(rows, column),
			"duplicates": duplicates,
		})
	}
}
