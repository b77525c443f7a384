package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/utils"
	"github.com/google/uuid"
)

const (
	SessionStatusPending    = "pending"
	SessionStatusProcessing = "processing"
	SessionStatusPaused     = "paused"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
)

// SessionListLimit caps how many sessions a listing returns. Older sessions
// stay in the table but drop out of the panel.
const SessionListLimit = 20

// SessionMetadata is the working state of an enrichment run, stored as a
// single JSON column. Sub-fields are replaced wholesale on update; fields
// absent from a patch keep their stored value.
type SessionMetadata struct {
	RawData           []map[string]any `json:"rawData,omitempty"`
	Columns           []string         `json:"columns,omitempty"`
	FieldConfigs      map[string]any   `json:"fieldConfigs,omitempty"`
	ProcessedProducts []map[string]any `json:"processedProducts,omitempty"`
	CurrentTab        string           `json:"currentTab,omitempty"`
}

func (m SessionMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *SessionMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = SessionMetadata{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for session metadata", value)
	}
}

type Session struct {
	ID               string          `gorm:"primary_key;size:36" json:"id"`
	OwnerId          string          `gorm:"index;not null;size:64" json:"owner_id"`
	OriginalFilename string          `gorm:"size:255" json:"original_filename"`
	TotalItems       int             `gorm:"not null" json:"total_items"`
	ItemsProcessed   int             `gorm:"not null" json:"items_processed"`
	Status           string          `gorm:"size:20;not null;index" json:"status"`
	Metadata         SessionMetadata `gorm:"type:json" json:"metadata"`
	ArchivedFileURL  string          `gorm:"size:1024" json:"archived_file_url,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime;index" json:"updated_at"`
}

type NewSession struct {
	OriginalFilename string           `json:"originalFilename" binding:"required"`
	TotalItems       int              `json:"totalItems"`
	RawData          []map[string]any `json:"rawData"`
	Columns          []string         `json:"columns"`
	CurrentTab       string           `json:"currentTab"`
}

// SessionPatch carries only the fields a caller wants changed. Nil means
// "leave alone". TotalItems is deliberately absent: it is fixed at creation.
type SessionPatch struct {
	Status         *string        `json:"status"`
	ItemsProcessed *int           `json:"itemsProcessed"`
	Metadata       *MetadataPatch `json:"metadata"`
}

type MetadataPatch struct {
	RawData           *[]map[string]any `json:"rawData"`
	Columns           *[]string         `json:"columns"`
	FieldConfigs      *map[string]any   `json:"fieldConfigs"`
	ProcessedProducts *[]map[string]any `json:"processedProducts"`
	CurrentTab        *string           `json:"currentTab"`
}

// MergeMetadata applies a patch over a metadata snapshot and returns the
// merged value. Only sub-fields named in the patch are replaced; everything
// else carries over from the snapshot. The snapshot itself is not mutated.
func MergeMetadata(snapshot SessionMetadata, patch *MetadataPatch) SessionMetadata {
	merged := snapshot
	if patch == nil {
		return merged
	}
	if patch.RawData != nil {
		merged.RawData = *patch.RawData
	}
	if patch.Columns != nil {
		merged.Columns = *patch.Columns
	}
	if patch.FieldConfigs != nil {
		merged.FieldConfigs = *patch.FieldConfigs
	}
	if patch.ProcessedProducts != nil {
		merged.ProcessedProducts = *patch.ProcessedProducts
	}
	if patch.CurrentTab != nil {
		merged.CurrentTab = *patch.CurrentTab
	}
	return merged
}

// CreateSession persists a new enrichment session and returns it. Unlike the
// other session operations, persistence failure here is a real error: the
// caller has no session id to continue with.
func CreateSession(ctx context.Context, input *NewSession) (*Session, error) {

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	currentTab := input.CurrentTab
	if currentTab == "" {
		currentTab = "config"
	}

	session := Session{
		ID:               uuid.NewString(),
		OwnerId:          ownerId,
		OriginalFilename: input.OriginalFilename,
		TotalItems:       input.TotalItems,
		ItemsProcessed:   0,
		Status:           SessionStatusPending,
		Metadata: SessionMetadata{
			RawData:    input.RawData,
			Columns:    input.Columns,
			CurrentTab: currentTab,
		},
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&session).Error
	if err != nil {
		return nil, err
	}
	invalidateSessionList(ownerId)
	return &session, nil
}

// UpdateSession reads the current row, merges the patch and writes the result
// back. Returns false when the session does not exist or the write fails.
// Read-modify-write without row locking: concurrent updates to the same
// session can lose the earlier write.
func UpdateSession(ctx context.Context, id string, patch *SessionPatch) bool {
	logger := config.GetLogger()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return false
	}

	session, err := utils.FetchModel[Session](ctx, ownerId, id)
	if err != nil {
		return false
	}

	updates := map[string]interface{}{
		"Metadata":  MergeMetadata(session.Metadata, patch.Metadata),
		"UpdatedAt": time.Now(),
	}
	// Status values are stored as given. The panel drives the lifecycle and
	// no transition ordering is enforced here.
	if patch.Status != nil {
		updates["Status"] = *patch.Status
	}
	if patch.ItemsProcessed != nil {
		updates["ItemsProcessed"] = *patch.ItemsProcessed
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&session).Updates(updates).Error
	if err != nil {
		config.LogError(logger, "models", "UpdateSession", "failed to update session", id, err)
		return false
	}
	invalidateSessionList(ownerId)
	return true
}

// SetSessionArchiveURL records where the original upload was archived.
// Best-effort bookkeeping; the session is already usable without it.
func SetSessionArchiveURL(ctx context.Context, id string, fileURL string) bool {
	logger := config.GetLogger()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return false
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Model(&Session{}).
		Where("owner_id = ? AND id = ?", ownerId, id).
		Update("archived_file_url", fileURL).Error
	if err != nil {
		config.LogError(logger, "models", "SetSessionArchiveURL", "failed to record archive url", id, err)
		return false
	}
	invalidateSessionList(ownerId)
	return true
}

// DeleteSession removes a session. Deleting a missing session reports
// success: the end state is the same.
func DeleteSession(ctx context.Context, id string) bool {
	logger := config.GetLogger()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return false
	}

	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerId).
		Delete(&Session{}, "id = ?", id).Error
	if err != nil {
		config.LogError(logger, "models", "DeleteSession", "failed to delete session", id, err)
		return false
	}
	invalidateSessionList(ownerId)
	return true
}

// GetSession returns nil without an error when the session does not exist.
func GetSession(ctx context.Context, id string) (*Session, error) {
	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	session, err := utils.FetchModel[Session](ctx, ownerId, id)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// ListSessions returns the owner's most recently touched sessions, newest
// first. The list is cached per owner; every write path calls
// invalidateSessionList so readers never see a pre-write snapshot. Listing
// failures degrade to an empty list so the panel still renders.
func ListSessions(ctx context.Context) []*Session {
	logger := config.GetLogger()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return []*Session{}
	}

	if cached, err := utils.RetrieveRedisList[Session](ownerId); err == nil && cached != nil {
		return cached
	}

	db := config.GetDB()
	var results []*Session
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerId).
		Order("updated_at desc").
		Limit(SessionListLimit).
		Find(&results).Error
	if err != nil {
		config.LogError(logger, "models", "ListSessions", "failed to list sessions", ownerId, err)
		return []*Session{}
	}
	if results == nil {
		results = []*Session{}
	}

	if err := utils.StoreRedisList[Session](results, ownerId); err != nil {
		config.LogError(logger, "models", "ListSessions", "failed to cache session list", ownerId, err)
	}
	return results
}

func invalidateSessionList(ownerId string) {
	if err := utils.RemoveRedisList[Session](ownerId); err != nil {
		config.LogError(config.GetLogger(), "models", "invalidateSessionList", "failed to drop cached list", ownerId, err)
	}
}
