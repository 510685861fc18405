package service

import (
	"context"
	"strings"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"

	"gorm.io/gorm"
)

// AgreementInput 授权或撤回某版本协议
type AgreementInput struct {
	Version string `json:"version" binding:"required,max=64"`
	IsAgree bool   `json:"is_agree"`
}

// AgreementService 用户协议授权
type AgreementService struct {
	agreements *repository.AgreementRepository
}

func NewAgreementService(db *gorm.DB) *AgreementService {
	return &AgreementService{agreements: repository.NewAgreementRepository(db)}
}

// Set 记录授权结果，同一版本重复提交以最后一次为准
func (s *AgreementService) Set(ctx context.Context, userID uint, in AgreementInput) (*model.Agreement, error) {
	version := strings.TrimSpace(in.Version)
	if version == "" {
		return nil, apperrors.InvalidField("version", "version is required")
	}
	return s.agreements.Upsert(ctx, userID, version, in.IsAgree)
}

// Check 用户是否已授权该版本
func (s *AgreementService) Check(ctx context.Context, userID uint, version string) (bool, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return false, apperrors.InvalidField("version", "version is required")
	}
	return s.agreements.IsAgreed(ctx, userID, version)
}
