package models

import (
	"context"
	"errors"
	"time"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NcmCode is one row of the Mercosul product classification table.
// Codigo is stored digits-only ("84713000", never "8471.30.00").
// The table is shared reference data, not owner-scoped.
type NcmCode struct {
	Codigo    string    `gorm:"primary_key;size:16" json:"codigo"`
	Descricao string    `gorm:"type:text;not null" json:"descricao"`
	Tipo      string    `gorm:"size:32" json:"tipo"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UpsertNcmCodes writes one batch keyed on codigo. Re-running with the same
// payload updates rows in place instead of duplicating them.
func UpsertNcmCodes(ctx context.Context, codes []NcmCode) error {
	if len(codes) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "codigo"}},
			DoUpdates: clause.AssignmentColumns([]string{"descricao", "tipo", "updated_at"}),
		}).
		Create(&codes).Error
}

// GetNcmCode looks up a single code, redis first, then db. Returns nil when
// the code is unknown.
func GetNcmCode(ctx context.Context, codigo string) (*NcmCode, error) {
	cached, err := utils.RetrieveRedis[NcmCode](codigo)
	if err == nil && cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var code NcmCode
	if err := db.WithContext(ctx).First(&code, "codigo = ?", codigo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// caching, best effort
	_ = utils.StoreRedis[NcmCode](&code, codigo)
	return &code, nil
}

// SearchNcmCodes matches codes by prefix or description substring.
func SearchNcmCodes(ctx context.Context, query string, limit int) ([]*NcmCode, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	db := config.GetDB()
	var results []*NcmCode
	err := db.WithContext(ctx).
		Where("codigo LIKE ? OR descricao LIKE ?", query+"%", "%"+query+"%").
		Order("codigo").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func CountNcmCodes(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&NcmCode{}).Count(&count).Error
	return count, err
}
