package service

import (
	"context"

	"oasis/internal/model"
	"oasis/internal/repository"

	"gorm.io/gorm"
)

// Scope 某个用户可见的帖子范围
// 公开帖子 ∪ 好友的好友可见帖子 ∪ 自己的全部帖子
// 好友指 viewer→X 已接受、未拉黑、未屏蔽帖子的 X，不要求双向
type Scope struct {
	ViewerID  uint
	FriendIDs []uint

	friends map[uint]struct{}
}

// NewScope 由好友列表构造
func NewScope(viewerID uint, friendIDs []uint) *Scope {
	s := &Scope{ViewerID: viewerID, FriendIDs: friendIDs, friends: make(map[uint]struct{}, len(friendIDs))}
	for _, id := range friendIDs {
		s.friends[id] = struct{}{}
	}
	return s
}

// IsFriend author 是否在 viewer 的好友可见范围内
func (s *Scope) IsFriend(authorID uint) bool {
	_, ok := s.friends[authorID]
	return ok
}

// CanView 帖子对 viewer 是否可见（不检查删除状态）
func (s *Scope) CanView(post *model.Post) bool {
	switch {
	case post.UserID == s.ViewerID:
		return true
	case post.Visibility == model.VisibilityPublic:
		return true
	case post.Visibility == model.VisibilityFriendsOnly:
		return s.IsFriend(post.UserID)
	default:
		return false
	}
}

// Where 作为 gorm scope 追加可见范围条件
func (s *Scope) Where(db *gorm.DB) *gorm.DB {
	// 条件组需要在干净的会话上构造，否则会带上外层已有的条件
	group := db.Session(&gorm.Session{NewDB: true})
	cond := group.Where("post.visibility = ?", model.VisibilityPublic).
		Or("post.user_id = ?", s.ViewerID)
	if len(s.FriendIDs) > 0 {
		cond = cond.Or("post.user_id IN ? AND post.visibility = ?", s.FriendIDs, model.VisibilityFriendsOnly)
	}
	return db.Where(cond)
}

// ScopeResolver 计算用户的可见范围
type ScopeResolver struct {
	rels *repository.RelationshipRepository
}

// NewScopeResolver 创建可见范围计算器
func NewScopeResolver(db *gorm.DB) *ScopeResolver {
	return &ScopeResolver{rels: repository.NewRelationshipRepository(db)}
}

// Resolve 每次调用都读取最新的好友关系
func (r *ScopeResolver) Resolve(ctx context.Context, viewerID uint) (*Scope, error) {
	agree := model.FriendAgree
	no := false
	ids, err := r.rels.ToUserIDs(ctx, repository.RelationshipQuery{
		FromUserID:  viewerID,
		State:       &agree,
		IsBlock:     &no,
		IsPostBlock: &no,
	})
	if err != nil {
		return nil, err
	}
	return NewScope(viewerID, ids), nil
}
