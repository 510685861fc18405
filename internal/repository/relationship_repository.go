package repository

import (
	"context"
	"time"

	"oasis/internal/model"
	apperrors "oasis/pkg/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipQuery 好友关系查询条件，零值字段不参与过滤
// 只返回未删除的记录
type RelationshipQuery struct {
	FromUserID  uint
	ToUserID    uint
	State       *model.FriendState
	IsBlock     *bool
	IsPostBlock *bool
	AgreedAfter *time.Time
	// ExcludeBlockedBy 排除被该用户拉黑的 FromUser
	ExcludeBlockedBy uint
	// WithUsers 预加载双方用户
	WithUsers bool
}

// RelationshipRepository 有向好友关系仓储
type RelationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository 创建RelationshipRepository实例
func NewRelationshipRepository(db *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// WithTx 绑定到事务
func (r *RelationshipRepository) WithTx(tx *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: tx}
}

// GetOrCreate 获取或创建 (from, to) 关系行并加行锁，需在事务中调用
// 行不存在或已被删除时返回一条初始状态的行，created 为 true
func (r *RelationshipRepository) GetOrCreate(ctx context.Context, fromUserID, toUserID uint) (*model.Relationship, bool, error) {
	db := r.db.WithContext(ctx)

	fresh := &model.Relationship{FromUserID: fromUserID, ToUserID: toUserID}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh)
	if res.Error != nil {
		return nil, false, errors.Wrapf(res.Error, "insert relationship %d->%d", fromUserID, toUserID)
	}
	created := res.RowsAffected > 0

	var rel model.Relationship
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		First(&rel).Error
	if err != nil {
		return nil, false, errors.Wrapf(err, "lock relationship %d->%d", fromUserID, toUserID)
	}

	if rel.Status == model.RecordAbandoned {
		rel.Reset()
		if err := r.Save(ctx, &rel); err != nil {
			return nil, false, err
		}
		created = true
	}
	return &rel, created, nil
}

// Find 查找 (from, to) 的有效关系行，不存在时返回 nil
func (r *RelationshipRepository) Find(ctx context.Context, fromUserID, toUserID uint) (*model.Relationship, error) {
	var rel model.Relationship
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", fromUserID, toUserID, model.RecordActive).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find relationship %d->%d", fromUserID, toUserID)
	}
	return &rel, nil
}

// GetByID 根据ID获取有效关系行
func (r *RelationshipRepository) GetByID(ctx context.Context, id uint) (*model.Relationship, error) {
	var rel model.Relationship
	err := r.db.WithContext(ctx).
		Preload("FromUser").Preload("ToUser").
		Where("id = ? AND status = ?", id, model.RecordActive).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrRelationshipNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get relationship %d", id)
	}
	return &rel, nil
}

// GetByIDForUpdate 在事务中加锁读取
func (r *RelationshipRepository) GetByIDForUpdate(ctx context.Context, id uint) (*model.Relationship, error) {
	var rel model.Relationship
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", id, model.RecordActive).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrRelationshipNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "lock relationship %d", id)
	}
	return &rel, nil
}

func (r *RelationshipRepository) filter(ctx context.Context, q RelationshipQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Relationship{}).
		Where("relationship.status = ?", model.RecordActive)
	if q.FromUserID != 0 {
		db = db.Where("relationship.from_user_id = ?", q.FromUserID)
	}
	if q.ToUserID != 0 {
		db = db.Where("relationship.to_user_id = ?", q.ToUserID)
	}
	if q.State != nil {
		db = db.Where("relationship.state = ?", *q.State)
	}
	if q.IsBlock != nil {
		db = db.Where("relationship.is_block = ?", *q.IsBlock)
	}
	if q.IsPostBlock != nil {
		db = db.Where("relationship.is_post_block = ?", *q.IsPostBlock)
	}
	if q.AgreedAfter != nil {
		db = db.Where("relationship.agree_time > ?", *q.AgreedAfter)
	}
	if q.ExcludeBlockedBy != 0 {
		blocked := r.db.WithContext(ctx).Model(&model.Relationship{}).
			Select("to_user_id").
			Where("from_user_id = ? AND is_block = ? AND status = ?", q.ExcludeBlockedBy, true, model.RecordActive)
		db = db.Where("relationship.from_user_id NOT IN (?)", blocked)
	}
	return db
}

// List 按条件查询，返回当前页与总数
func (r *RelationshipRepository) List(ctx context.Context, q RelationshipQuery, page Page) ([]*model.Relationship, int64, error) {
	var total int64
	if err := r.filter(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count relationships")
	}

	db := r.filter(ctx, q)
	if q.WithUsers {
		db = db.Preload("FromUser").Preload("ToUser")
	}
	var rels []*model.Relationship
	if err := page.Apply(db).Order("relationship.id DESC").Find(&rels).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list relationships")
	}
	return rels, total, nil
}

// ToUserIDs 满足条件的关系行的 ToUserID 列表
func (r *RelationshipRepository) ToUserIDs(ctx context.Context, q RelationshipQuery) ([]uint, error) {
	var ids []uint
	if err := r.filter(ctx, q).Pluck("relationship.to_user_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "pluck relationship targets")
	}
	return ids, nil
}

// Save 保存整行
func (r *RelationshipRepository) Save(ctx context.Context, rel *model.Relationship) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(rel).Error
	return errors.Wrapf(err, "save relationship %d", rel.ID)
}
