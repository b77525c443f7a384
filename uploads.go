package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
	"github.com/catalogodata/catalogo_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

// Column names treated as money values; their cells are normalized to a
// canonical decimal string so downstream enrichment never re-parses "R$".
var priceColumnHints = []string{"preço", "preco", "valor", "custo", "price"}

type uploadResponse struct {
	Session  *models.Session   `json:"session"`
	Sessions []*models.Session `json:"sessions"`
}

func uploadProductListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
			return
		}

		columns, rows, err := parseProductSheet(fileHeader.Filename, data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ownerId, _ := utils.GetOwnerIdFromContext(ctx)
		if err := utils.OwnerLock(ctx, ownerId, "UploadLock", "uploads.go", "uploadProductListHandler"); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "another upload is in progress"})
			return
		}

		session, err := models.CreateSession(ctx, &models.NewSession{
			OriginalFilename: fileHeader.Filename,
			TotalItems:       len(rows),
			RawData:          rows,
			Columns:          columns,
		})
		if err != nil {
			config.LogError(logger, "uploads", "uploadProductListHandler", "create session failed", fileHeader.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}

		if config.UploadArchivalEnabled() {
			objectKey := "product-lists/" + session.ID + "/" + utils.GenerateUniqueFilename() + filepath.Ext(fileHeader.Filename)
			if archiveErr := utils.ArchiveFileToGCS(ctx, objectKey, bytes.NewReader(data)); archiveErr != nil {
				// Archival is best-effort; the session already holds the rows.
				config.LogError(logger, "uploads", "uploadProductListHandler", "archive failed", objectKey, archiveErr)
			} else {
				session.ArchivedFileURL = utils.BuildObjectAccessURL(objectKey)
				models.SetSessionArchiveURL(ctx, session.ID, session.ArchivedFileURL)
			}
		}

		c.JSON(http.StatusCreated, uploadResponse{
			Session:  session,
			Sessions: models.ListSessions(ctx),
		})
	}
}

type signUploadRequest struct {
	FileName string `json:"fileName" binding:"required"`
	MimeType string `json:"mimeType" binding:"required"`
	Size     int64  `json:"size" binding:"required"`
}

var spreadsheetMimeTypes = map[string]bool{
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/csv": true,
}

// signUploadHandler hands the client a short-lived PUT URL so large
// spreadsheets go straight to the bucket instead of through this service.
func signUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fileName, mimeType and size are required"})
			return
		}
		if req.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}
		if !spreadsheetMimeTypes[req.MimeType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
			return
		}

		ctx := c.Request.Context()
		ownerId, _ := utils.GetOwnerIdFromContext(ctx)
		objectKey := "product-lists/" + ownerId + "/" + utils.GenerateUniqueFilename() + filepath.Ext(req.FileName)

		signed, err := utils.SignUpload(ctx, objectKey, req.MimeType, 15*time.Minute)
		if err != nil {
			config.LogError(config.GetLogger(), "uploads", "signUploadHandler", "sign failed", objectKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign upload"})
			return
		}
		c.JSON(http.StatusOK, signed)
	}
}

// parseProductSheet turns an uploaded spreadsheet into a header list plus one
// map per data row. The first row is the header; later rows shorter than the
// header are padded with empty cells.
func parseProductSheet(filename string, data []byte) ([]string, []map[string]any, error) {
	var grid [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		grid, err = readExcelGrid(data)
	case ".csv":
		grid, err = readCsvGrid(data)
	default:
		return nil, nil, errors.New("unsupported file type: only .xlsx and .csv are accepted")
	}
	if err != nil {
		return nil, nil, err
	}
	if len(grid) == 0 {
		return nil, nil, errors.New("file contains no rows")
	}

	columns := make([]string, len(grid[0]))
	for i, name := range grid[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("coluna_%d", i+1)
		}
		columns[i] = name
	}

	rows := make([]map[string]any, 0, len(grid)-1)
	for _, line := range grid[1:] {
		if isEmptyRow(line) {
			continue
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			cell := ""
			if i < len(line) {
				cell = strings.TrimSpace(line[i])
			}
			row[column] = normalizeCell(column, cell)
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

func readExcelGrid(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to open Excel file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v", err)
	}
	return rows, nil
}

func readCsvGrid(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv: %v", err)
	}
	return rows, nil
}

func normalizeCell(column string, cell string) string {
	if cell == "" || !isPriceColumn(column) {
		return cell
	}
	parsed, err := utils.ParsePrice(cell)
	if err != nil {
		return cell
	}
	return parsed.String()
}

func isPriceColumn(column string) bool {
	lower := strings.ToLower(column)
	for _, hint := range priceColumnHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func isEmptyRow(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
