package service

import (
	"context"
	"strings"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"

	"gorm.io/gorm"
)

// FavoritesInput 创建收藏夹
type FavoritesInput struct {
	Name     string                  `json:"name" binding:"required,max=255"`
	CoverURL string                  `json:"cover_url" binding:"omitempty,max=255"`
	Category model.FavoritesCategory `json:"category"`
}

// FavoritesPatch 修改收藏夹
type FavoritesPatch struct {
	Name     *string                  `json:"name" binding:"omitempty,max=255"`
	CoverURL *string                  `json:"cover_url" binding:"omitempty,max=255"`
	Category *model.FavoritesCategory `json:"category"`
}

// FavoritesOperation 收藏或取消收藏
type FavoritesOperation struct {
	FavoritesID uint   `json:"favorites" binding:"required"`
	PostID      uint   `json:"post" binding:"required"`
	Operation   string `json:"operation" binding:"required,oneof=collect uncollect"`
}

// FavoritesView 收藏夹，附带帖子数
type FavoritesView struct {
	*model.Favorites
	PostCount int64 `json:"post_count"`
}

// FavoritesDetail 收藏夹详情，帖子按可见范围过滤
type FavoritesDetail struct {
	*model.Favorites
	Posts []*PostView `json:"posts"`
}

// FavoritesService 收藏夹服务
type FavoritesService struct {
	favorites *repository.FavoritesRepository
	posts     *PostService
}

// NewFavoritesService 创建收藏夹服务
func NewFavoritesService(db *gorm.DB, posts *PostService) *FavoritesService {
	return &FavoritesService{favorites: repository.NewFavoritesRepository(db), posts: posts}
}

func validFavoritesCategory(c model.FavoritesCategory) bool {
	return c == model.FavoritesPublic || c == model.FavoritesPrivate
}

// Create 创建收藏夹
func (s *FavoritesService) Create(ctx context.Context, userID uint, in FavoritesInput) (*model.Favorites, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "name is required")
	}
	if !validFavoritesCategory(in.Category) {
		return nil, apperrors.ErrInvalidFieldValue("category")
	}
	f := &model.Favorites{UserID: userID, Name: name, CoverURL: in.CoverURL, Category: in.Category}
	if err := s.favorites.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// owned 只有拥有者可以修改
func (s *FavoritesService) owned(ctx context.Context, userID, favoritesID uint) (*model.Favorites, error) {
	f, err := s.favorites.GetByID(ctx, favoritesID)
	if err != nil {
		return nil, err
	}
	if f.UserID != userID {
		return nil, apperrors.ErrPermission
	}
	return f, nil
}

// Update 修改收藏夹
func (s *FavoritesService) Update(ctx context.Context, userID, favoritesID uint, patch FavoritesPatch) (*model.Favorites, error) {
	if _, err := s.owned(ctx, userID, favoritesID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.InvalidField("name", "name is required")
		}
		fields["name"] = name
	}
	if patch.CoverURL != nil {
		fields["cover_url"] = *patch.CoverURL
	}
	if patch.Category != nil {
		if !validFavoritesCategory(*patch.Category) {
			return nil, apperrors.ErrInvalidFieldValue("category")
		}
		fields["category"] = *patch.Category
	}
	if err := s.favorites.Update(ctx, favoritesID, fields); err != nil {
		return nil, err
	}
	return s.favorites.GetByID(ctx, favoritesID)
}

// Delete 删除收藏夹（软删除）
func (s *FavoritesService) Delete(ctx context.Context, userID, favoritesID uint) error {
	if _, err := s.owned(ctx, userID, favoritesID); err != nil {
		return err
	}
	return s.favorites.SoftDelete(ctx, favoritesID)
}

// List ownerID 为零或为自己时返回全部收藏夹，否则只返回对方公开的收藏夹
func (s *FavoritesService) List(ctx context.Context, viewerID, ownerID uint, page repository.Page) ([]*FavoritesView, int64, error) {
	if ownerID == 0 {
		ownerID = viewerID
	}
	list, total, err := s.favorites.List(ctx, ownerID, ownerID != viewerID, page)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, len(list))
	for i, f := range list {
		ids[i] = f.ID
	}
	counts, err := s.favorites.PostCounts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*FavoritesView, len(list))
	for i, f := range list {
		views[i] = &FavoritesView{Favorites: f, PostCount: counts[f.ID]}
	}
	return views, total, nil
}

// Retrieve 收藏夹详情，他人的私密收藏夹视为不存在
func (s *FavoritesService) Retrieve(ctx context.Context, viewerID, favoritesID uint) (*FavoritesDetail, error) {
	f, err := s.favorites.GetByID(ctx, favoritesID)
	if err != nil {
		return nil, err
	}
	if f.UserID != viewerID && f.Category != model.FavoritesPublic {
		return nil, apperrors.ErrFavoritesNotFound
	}

	ids, err := s.favorites.PostIDs(ctx, favoritesID)
	if err != nil {
		return nil, err
	}
	posts := make([]*PostView, 0, len(ids))
	for _, id := range ids {
		p, err := s.posts.Retrieve(ctx, viewerID, id)
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return &FavoritesDetail{Favorites: f, Posts: posts}, nil
}

// Operate 收藏/取消收藏：收藏夹必须属于自己，帖子必须在可见范围内
func (s *FavoritesService) Operate(ctx context.Context, userID uint, op FavoritesOperation) error {
	if _, err := s.owned(ctx, userID, op.FavoritesID); err != nil {
		return err
	}
	switch op.Operation {
	case "collect":
		if _, err := s.posts.visible(ctx, userID, op.PostID); err != nil {
			return err
		}
		return s.favorites.AddPost(ctx, op.FavoritesID, op.PostID)
	case "uncollect":
		return s.favorites.RemovePost(ctx, op.FavoritesID, op.PostID)
	default:
		return apperrors.ErrInvalidFieldValue("operation")
	}
}
