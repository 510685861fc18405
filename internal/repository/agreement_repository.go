package repository

import (
	"context"
	"time"

	"oasis/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgreementRepository 协议授权仓储
type AgreementRepository struct {
	db *gorm.DB
}

// NewAgreementRepository 创建AgreementRepository实例
func NewAgreementRepository(db *gorm.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

// Upsert 记录用户对某版本的授权，已存在时覆盖
func (r *AgreementRepository) Upsert(ctx context.Context, userID uint, version string, isAgree bool) (*model.Agreement, error) {
	now := time.Now()
	a := &model.Agreement{UserID: userID, Version: version, IsAgree: isAgree, CreatedAt: now, UpdatedAt: now}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "version"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_agree", "updated_at"}),
	}).Create(a).Error
	if err != nil {
		return nil, errors.Wrapf(err, "upsert agreement %s of user %d", version, userID)
	}
	return r.find(ctx, userID, version)
}

// IsAgreed 用户是否授权了该版本，没有记录视为未授权
func (r *AgreementRepository) IsAgreed(ctx context.Context, userID uint, version string) (bool, error) {
	a, err := r.find(ctx, userID, version)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.IsAgree, nil
}

func (r *AgreementRepository) find(ctx context.Context, userID uint, version string) (*model.Agreement, error) {
	var a model.Agreement
	err := r.db.WithContext(ctx).Where("user_id = ? AND version = ?", userID, version).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &a, errors.Wrapf(err, "get agreement %s of user %d", version, userID)
}
