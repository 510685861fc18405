package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"
	"oasis/pkg/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostInput 发布帖子
type PostInput struct {
	Visibility model.Visibility   `json:"visibility"`
	Category   model.PostCategory `json:"category"`
	Title      string             `json:"title" binding:"required,max=100"`
	Content    string             `json:"content"`
	VideoURL   string             `json:"video_url" binding:"omitempty,max=255"`
	Images     []string           `json:"images" binding:"omitempty,max=9,dive,max=255"`
	Place      string             `json:"place" binding:"omitempty,max=255"`
	Longitude  *float64           `json:"longitude"`
	Latitude   *float64           `json:"latitude"`
}

// PostPatch 修改帖子，nil 字段保持不变
type PostPatch struct {
	Visibility    *model.Visibility `json:"visibility"`
	Title         *string           `json:"title" binding:"omitempty,max=100"`
	Content       *string           `json:"content"`
	VideoURL      *string           `json:"video_url" binding:"omitempty,max=255"`
	Images        []string          `json:"images" binding:"omitempty,max=9,dive,max=255"`
	Place         *string           `json:"place" binding:"omitempty,max=255"`
	Longitude     *float64          `json:"longitude"`
	Latitude      *float64          `json:"latitude"`
	// ClearLocation 清除坐标，不能与 longitude/latitude 同时出现
	ClearLocation bool              `json:"clear_location"`
}

// NearbyInput 附近帖子
type NearbyInput struct {
	Longitude  float64 `json:"longitude"`
	Latitude   float64 `json:"latitude"`
	DistanceKm float64 `json:"distance_km" binding:"required,gt=0,lte=500"`
}

// PostView 帖子详情，附带统计信息
type PostView struct {
	*model.Post
	LikeCount    int64    `json:"like_count"`
	CommentCount int64    `json:"comment_count"`
	Liked        bool     `json:"liked"`
	Distance     *float64 `json:"distance,omitempty"` // 单位 km，仅附近帖子
}

// PostService 帖子服务
type PostService struct {
	db       *gorm.DB
	posts    *repository.PostRepository
	users    *repository.UserRepository
	resolver *ScopeResolver
	notifier notify.Notifier
	now      func() time.Time
}

// NewPostService 创建帖子服务
func NewPostService(db *gorm.DB, notifier notify.Notifier) *PostService {
	return &PostService{
		db:       db,
		posts:    repository.NewPostRepository(db),
		users:    repository.NewUserRepository(db),
		resolver: NewScopeResolver(db),
		notifier: notifier,
		now:      time.Now,
	}
}

func validateLocation(lng, lat *float64) error {
	if (lng == nil) != (lat == nil) {
		return apperrors.InvalidField("longitude", "longitude and latitude must be given together")
	}
	if lng == nil {
		return nil
	}
	if *lng < -180 || *lng > 180 {
		return apperrors.ErrInvalidFieldValue("longitude")
	}
	if *lat < -90 || *lat > 90 {
		return apperrors.ErrInvalidFieldValue("latitude")
	}
	return nil
}

// validatePost 帖子整体校验，创建与修改共用
func validatePost(p *model.Post) error {
	if strings.TrimSpace(p.Title) == "" {
		return apperrors.InvalidField("title", "title is required")
	}
	if !p.Visibility.Valid() {
		return apperrors.ErrInvalidFieldValue("visibility")
	}
	switch p.Category {
	case model.CategoryVideo:
		if p.VideoURL == "" {
			return apperrors.InvalidField("video_url", "video post requires video_url")
		}
	case model.CategoryImage:
		if len(p.Images) == 0 {
			return apperrors.InvalidField("images", "image post requires at least one image")
		}
	default:
		return apperrors.ErrInvalidFieldValue("category")
	}
	return validateLocation(p.Longitude, p.Latitude)
}

func imagesOf(urls []string) []model.PostImage {
	images := make([]model.PostImage, len(urls))
	for i, u := range urls {
		images[i] = model.PostImage{URL: u, Sort: i}
	}
	return images
}

// Create 发布帖子
func (s *PostService) Create(ctx context.Context, userID uint, in PostInput) (*PostView, error) {
	post := &model.Post{
		UserID:     userID,
		Visibility: in.Visibility,
		Category:   in.Category,
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		VideoURL:   in.VideoURL,
		Place:      in.Place,
		Longitude:  in.Longitude,
		Latitude:   in.Latitude,
		Time:       s.now(),
		Images:     imagesOf(in.Images),
	}
	if err := validatePost(post); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	logger.Info("帖子已发布", zap.Uint("post_id", post.ID), zap.Uint("user_id", userID))
	return s.Retrieve(ctx, userID, post.ID)
}

// Update 修改帖子，仅作者本人
func (s *PostService) Update(ctx context.Context, userID, postID uint, patch PostPatch) (*PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, apperrors.ErrPermission
	}

	fields := map[string]interface{}{}
	if patch.Visibility != nil {
		post.Visibility = *patch.Visibility
		fields["visibility"] = *patch.Visibility
	}
	if patch.Title != nil {
		post.Title = strings.TrimSpace(*patch.Title)
		fields["title"] = post.Title
	}
	if patch.Content != nil {
		post.Content = *patch.Content
		fields["content"] = *patch.Content
	}
	if patch.VideoURL != nil {
		post.VideoURL = *patch.VideoURL
		fields["video_url"] = *patch.VideoURL
	}
	if patch.Place != nil {
		post.Place = *patch.Place
		fields["place"] = *patch.Place
	}
	if patch.ClearLocation {
		if patch.Longitude != nil || patch.Latitude != nil {
			return nil, apperrors.InvalidField("clear_location", "clear_location cannot be combined with longitude/latitude")
		}
		post.Longitude, post.Latitude = nil, nil
		fields["longitude"] = nil
		fields["latitude"] = nil
	} else if patch.Longitude != nil || patch.Latitude != nil {
		post.Longitude, post.Latitude = patch.Longitude, patch.Latitude
		fields["longitude"] = patch.Longitude
		fields["latitude"] = patch.Latitude
	}
	if patch.Images != nil {
		post.Images = imagesOf(patch.Images)
	}
	if err := validatePost(post); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := s.posts.WithTx(tx)
		if err := posts.Update(ctx, postID, fields); err != nil {
			return err
		}
		if patch.Images != nil {
			return posts.ReplaceImages(ctx, postID, patch.Images)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Retrieve(ctx, userID, postID)
}

// Delete 删除帖子（软删除），仅作者本人
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return apperrors.ErrPermission
	}
	if err := s.posts.SoftDelete(ctx, postID); err != nil {
		return err
	}
	logger.Info("帖子已删除", zap.Uint("post_id", postID), zap.Uint("user_id", userID))
	return nil
}

// Mine 我的帖子，authorID 非零时查看他人主页（按可见范围过滤）
func (s *PostService) Mine(ctx context.Context, viewerID, authorID uint, page repository.Page) ([]*PostView, int64, error) {
	if authorID == 0 || authorID == viewerID {
		return s.list(ctx, viewerID, repository.PostQuery{AuthorID: viewerID}, page)
	}
	scope, err := s.resolver.Resolve(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, viewerID, repository.PostQuery{AuthorID: authorID, Scope: scope.Where}, page)
}

// Story 好友的故事：好友发布的好友可见帖子
func (s *PostService) Story(ctx context.Context, viewerID uint, page repository.Page) ([]*PostView, int64, error) {
	scope, err := s.resolver.Resolve(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	friends := scope.FriendIDs
	if friends == nil {
		friends = []uint{}
	}
	vis := model.VisibilityFriendsOnly
	return s.list(ctx, viewerID, repository.PostQuery{AuthorIDs: friends, Visibility: &vis}, page)
}

// Feed 公开帖子
func (s *PostService) Feed(ctx context.Context, viewerID uint, page repository.Page) ([]*PostView, int64, error) {
	vis := model.VisibilityPublic
	return s.list(ctx, viewerID, repository.PostQuery{Visibility: &vis}, page)
}

// Nearby 附近帖子：先用矩形范围在库中粗筛，再按球面距离精确过滤，近的在前
func (s *PostService) Nearby(ctx context.Context, viewerID uint, in NearbyInput, page repository.Page) ([]*PostView, int64, error) {
	if err := validateLocation(&in.Longitude, &in.Latitude); err != nil {
		return nil, 0, err
	}
	scope, err := s.resolver.Resolve(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	box := BoundingBoxAround(in.Longitude, in.Latitude, in.DistanceKm)
	candidates, _, err := s.posts.List(ctx, repository.PostQuery{Scope: scope.Where, Box: &box}, repository.Page{})
	if err != nil {
		return nil, 0, err
	}

	type hit struct {
		post *model.Post
		km   float64
	}
	hits := make([]hit, 0, len(candidates))
	for _, p := range candidates {
		km := Haversine(in.Longitude, in.Latitude, *p.Longitude, *p.Latitude)
		if km <= in.DistanceKm {
			hits = append(hits, hit{post: p, km: km})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].km < hits[j].km })

	total := int64(len(hits))
	start, end := 0, len(hits)
	if page.PageSize > 0 {
		start = page.Offset()
		if start > len(hits) {
			start = len(hits)
		}
		if end = start + page.PageSize; end > len(hits) {
			end = len(hits)
		}
	}
	hits = hits[start:end]

	posts := make([]*model.Post, len(hits))
	for i, h := range hits {
		posts[i] = h.post
	}
	views, err := s.views(ctx, viewerID, posts)
	if err != nil {
		return nil, 0, err
	}
	for i := range views {
		km := hits[i].km
		views[i].Distance = &km
	}
	return views, total, nil
}

// Retrieve 帖子详情，范围外的帖子视为不存在
func (s *PostService) Retrieve(ctx context.Context, viewerID, postID uint) (*PostView, error) {
	post, err := s.visible(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, viewerID, []*model.Post{post})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// Like 点赞并通知作者
func (s *PostService) Like(ctx context.Context, viewerID, postID uint) error {
	post, err := s.visible(ctx, viewerID, postID)
	if err != nil {
		return err
	}
	added, err := s.posts.Like(ctx, postID, viewerID)
	if err != nil {
		return err
	}
	if !added || post.UserID == viewerID {
		return nil
	}

	liker, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		logger.Warn("查询点赞用户失败", zap.Uint("user_id", viewerID), zap.Error(err))
		return nil
	}
	notify.Send(ctx, s.notifier, post.UserID, "帖子点赞", fmt.Sprintf("用户%s赞了您的帖子", liker.DisplayName()), map[string]string{
		"type":    "post_like",
		"post_id": fmt.Sprint(postID),
		"user_id": fmt.Sprint(viewerID),
	})
	return nil
}

// Unlike 取消点赞，帖子只要存在即可
func (s *PostService) Unlike(ctx context.Context, viewerID, postID uint) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return err
	}
	return s.posts.Unlike(ctx, postID, viewerID)
}

// Likers 点赞用户列表
func (s *PostService) Likers(ctx context.Context, viewerID, postID uint, page repository.Page) ([]*model.User, int64, error) {
	if _, err := s.visible(ctx, viewerID, postID); err != nil {
		return nil, 0, err
	}
	return s.posts.Likers(ctx, postID, page)
}

func (s *PostService) visible(ctx context.Context, viewerID, postID uint) (*model.Post, error) {
	return visiblePost(ctx, s.posts, s.resolver, viewerID, postID)
}

func (s *PostService) list(ctx context.Context, viewerID uint, q repository.PostQuery, page repository.Page) ([]*PostView, int64, error) {
	posts, total, err := s.posts.List(ctx, q, page)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, viewerID, posts)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *PostService) views(ctx context.Context, viewerID uint, posts []*model.Post) ([]*PostView, error) {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	stats, err := s.posts.StatsFor(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}
	views := make([]*PostView, len(posts))
	for i, p := range posts {
		st := stats[p.ID]
		views[i] = &PostView{Post: p, LikeCount: st.LikeCount, CommentCount: st.CommentCount, Liked: st.Liked}
	}
	return views, nil
}

// visiblePost 读取帖子并按 viewer 当前的可见范围检查，范围外返回 ErrPostNotFound
func visiblePost(ctx context.Context, posts *repository.PostRepository, resolver *ScopeResolver, viewerID, postID uint) (*model.Post, error) {
	post, err := posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	scope, err := resolver.Resolve(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !scope.CanView(post) {
		return nil, apperrors.ErrPostNotFound
	}
	return post, nil
}
