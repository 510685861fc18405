package service

import (
	"context"
	"fmt"
	"time"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"
	"oasis/pkg/notify"
	"oasis/pkg/redis"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewlyAcceptedWindow 新朋友列表的时间窗口
const NewlyAcceptedWindow = 23*time.Hour + 59*time.Minute + 59*time.Second

// FriendRequestInput 好友申请
type FriendRequestInput struct {
	ToUserID uint    `json:"to_user" binding:"required"`
	SayHi    string  `json:"say_hi" binding:"max=255"`
	Remark   *string `json:"remark" binding:"omitempty,max=255"`
}

// FriendView 好友列表项
type FriendView struct {
	*model.Relationship
	Online bool `json:"online"`
}

// PendingOverview 待处理概览
type PendingOverview struct {
	NewlyAccepted []*model.Relationship `json:"newly_accepted"` // X→我 最近一天内通过
	Incoming      []*model.Relationship `json:"incoming"`       // X→我 待我处理
	Outgoing      []*model.Relationship `json:"outgoing"`       // 我→X 待对方处理
}

// OnlineFunc 批量查询在线状态
type OnlineFunc func(ctx context.Context, userIDs []uint) (map[uint]bool, error)

// FriendService 好友关系服务
type FriendService struct {
	db       *gorm.DB
	rels     *repository.RelationshipRepository
	users    *repository.UserRepository
	notifier notify.Notifier
	online   OnlineFunc
	now      func() time.Time
}

// NewFriendService 创建好友关系服务
func NewFriendService(db *gorm.DB, notifier notify.Notifier) *FriendService {
	return &FriendService{
		db:       db,
		rels:     repository.NewRelationshipRepository(db),
		users:    repository.NewUserRepository(db),
		notifier: notifier,
		online:   redis.OnlineAmong,
		now:      time.Now,
	}
}

// notice 事务提交后发送的通知
type notice struct {
	userID   uint
	title    string
	body     string
	metadata map[string]string
}

// friendMutation 一次变更的事务上下文
type friendMutation struct {
	rels   *repository.RelationshipRepository
	users  *repository.UserRepository
	rel    *model.Relationship
	patch  FriendPatch
	now    time.Time
	notice *notice
}

type friendHandler struct {
	role  Role
	apply func(ctx context.Context, m *friendMutation) error
}

// friendHandlers 每种变更要求的身份与处理函数
var friendHandlers = map[FriendOp]friendHandler{
	OpRemark:    {role: RoleFrom, apply: mutateRemark},
	OpBlock:     {role: RoleFrom, apply: mutateBlock},
	OpPostBlock: {role: RoleFrom, apply: mutatePostBlock},
	OpRespond:   {role: RoleTo, apply: mutateRespond},
	OpRemove:    {role: RoleFrom, apply: mutateRemove},
}

func mutateRemark(ctx context.Context, m *friendMutation) error {
	applyRemark(m.rel, *m.patch.Remark)
	return m.rels.Save(ctx, m.rel)
}

func mutateBlock(ctx context.Context, m *friendMutation) error {
	applyBlock(m.rel, *m.patch.IsBlock)
	return m.rels.Save(ctx, m.rel)
}

func mutatePostBlock(ctx context.Context, m *friendMutation) error {
	applyPostBlock(m.rel, *m.patch.IsPostBlock)
	return m.rels.Save(ctx, m.rel)
}

func mutateRemove(ctx context.Context, m *friendMutation) error {
	applyRemove(m.rel)
	return m.rels.Save(ctx, m.rel)
}

func mutateRespond(ctx context.Context, m *friendMutation) error {
	// 已处理的请求不再接受任何状态
	if m.rel.State != model.FriendPending {
		return apperrors.ErrAlreadyProcessed
	}
	switch *m.patch.State {
	case model.FriendAgree:
		requester, err := m.users.GetByID(ctx, m.rel.FromUserID)
		if err != nil {
			return err
		}
		accepter, err := m.users.GetByID(ctx, m.rel.ToUserID)
		if err != nil {
			return err
		}
		reverse, _, err := m.rels.GetOrCreate(ctx, m.rel.ToUserID, m.rel.FromUserID)
		if err != nil {
			return err
		}
		if err := applyAccept(m.rel, reverse, m.now, requester.DisplayName()); err != nil {
			return err
		}
		if err := m.rels.Save(ctx, m.rel); err != nil {
			return err
		}
		if err := m.rels.Save(ctx, reverse); err != nil {
			return err
		}
		m.notice = &notice{
			userID: requester.ID,
			title:  "好友申请已通过",
			body:   accepter.DisplayName() + " 通过了你的好友申请",
			metadata: map[string]string{
				"type":            "friend_accepted",
				"relationship_id": fmt.Sprint(reverse.ID),
				"user_id":         fmt.Sprint(accepter.ID),
			},
		}
		return nil
	case model.FriendReject:
		if err := applyReject(m.rel); err != nil {
			return err
		}
		return m.rels.Save(ctx, m.rel)
	default:
		return apperrors.ErrInvalidFieldValue("state")
	}
}

// Request 发起好友请求 from→to
func (s *FriendService) Request(ctx context.Context, fromUserID uint, in FriendRequestInput) (*model.Relationship, error) {
	if in.ToUserID == 0 {
		return nil, apperrors.ErrInvalidUserID
	}
	if in.ToUserID == fromUserID {
		return nil, apperrors.ErrCannotAddSelf
	}

	var rel *model.Relationship
	var requester *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		rels := s.rels.WithTx(tx)

		target, err := users.GetByID(ctx, in.ToUserID)
		if err != nil {
			return err
		}
		requester, err = users.GetByID(ctx, fromUserID)
		if err != nil {
			return err
		}

		remark := target.DisplayName()
		if in.Remark != nil {
			remark = *in.Remark
		}

		rel, _, err = rels.GetOrCreate(ctx, fromUserID, in.ToUserID)
		if err != nil {
			return err
		}
		if err := applyRequest(rel, in.SayHi, remark); err != nil {
			return err
		}
		return rels.Save(ctx, rel)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("好友请求已发送", zap.Uint("from_user_id", fromUserID), zap.Uint("to_user_id", in.ToUserID))
	notify.Send(ctx, s.notifier, in.ToUserID, "好友申请", requester.DisplayName()+" 请求添加你为好友", map[string]string{
		"type":            "friend_request",
		"relationship_id": fmt.Sprint(rel.ID),
		"user_id":         fmt.Sprint(fromUserID),
		"say_hi":          in.SayHi,
	})
	return rel, nil
}

// Update 按请求体中唯一的字段执行变更
func (s *FriendService) Update(ctx context.Context, callerID, relID uint, patch FriendPatch) (*model.Relationship, error) {
	op, err := patch.Op()
	if err != nil {
		return nil, err
	}
	if err := s.mutate(ctx, callerID, relID, op, patch); err != nil {
		return nil, err
	}
	return s.rels.GetByID(ctx, relID)
}

// Remove 删除好友，只删除调用者自己的一侧
func (s *FriendService) Remove(ctx context.Context, callerID, relID uint) error {
	return s.mutate(ctx, callerID, relID, OpRemove, FriendPatch{})
}

func (s *FriendService) mutate(ctx context.Context, callerID, relID uint, op FriendOp, patch FriendPatch) error {
	h, ok := friendHandlers[op]
	if !ok {
		return apperrors.ErrParameter
	}

	var n *notice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := &friendMutation{
			rels:  s.rels.WithTx(tx),
			users: s.users.WithTx(tx),
			patch: patch,
			now:   s.now(),
		}
		rel, err := m.rels.GetByIDForUpdate(ctx, relID)
		if err != nil {
			return err
		}
		if err := checkRole(rel, callerID, h.role); err != nil {
			return err
		}
		m.rel = rel
		if err := h.apply(ctx, m); err != nil {
			return err
		}
		n = m.notice
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("好友关系已变更",
		zap.Uint("relationship_id", relID),
		zap.Uint("user_id", callerID),
		zap.Stringer("op", op),
	)
	if n != nil {
		notify.Send(ctx, s.notifier, n.userID, n.title, n.body, n.metadata)
	}
	return nil
}

// Retrieve 查看单条关系，双方均可查看
func (s *FriendService) Retrieve(ctx context.Context, callerID, relID uint) (*model.Relationship, error) {
	rel, err := s.rels.GetByID(ctx, relID)
	if err != nil {
		return nil, err
	}
	if rel.FromUserID != callerID && rel.ToUserID != callerID {
		return nil, apperrors.ErrRelationshipNotFound
	}
	return rel, nil
}

// Friends 我的好友：我→X 已接受且未拉黑
func (s *FriendService) Friends(ctx context.Context, userID uint, page repository.Page) ([]*FriendView, int64, error) {
	agree := model.FriendAgree
	notBlocked := false
	rels, total, err := s.rels.List(ctx, repository.RelationshipQuery{
		FromUserID: userID,
		State:      &agree,
		IsBlock:    &notBlocked,
		WithUsers:  true,
	}, page)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(rels))
	for i, r := range rels {
		ids[i] = r.ToUserID
	}
	online, err := s.online(ctx, ids)
	if err != nil {
		logger.Warn("查询好友在线状态失败", zap.Uint("user_id", userID), zap.Error(err))
		online = nil
	}

	views := make([]*FriendView, len(rels))
	for i, r := range rels {
		views[i] = &FriendView{Relationship: r, Online: online[r.ToUserID]}
	}
	return views, total, nil
}

// Pending 待处理概览
func (s *FriendService) Pending(ctx context.Context, userID uint) (*PendingOverview, error) {
	agree, pending := model.FriendAgree, model.FriendPending
	notBlocked := false
	since := s.now().Add(-NewlyAcceptedWindow)

	newly, _, err := s.rels.List(ctx, repository.RelationshipQuery{
		ToUserID:    userID,
		State:       &agree,
		IsBlock:     &notBlocked,
		AgreedAfter: &since,
		WithUsers:   true,
	}, repository.Page{})
	if err != nil {
		return nil, err
	}

	incoming, _, err := s.rels.List(ctx, repository.RelationshipQuery{
		ToUserID:         userID,
		State:            &pending,
		IsBlock:          &notBlocked,
		ExcludeBlockedBy: userID,
		WithUsers:        true,
	}, repository.Page{})
	if err != nil {
		return nil, err
	}

	outgoing, _, err := s.rels.List(ctx, repository.RelationshipQuery{
		FromUserID: userID,
		State:      &pending,
		IsBlock:    &notBlocked,
		WithUsers:  true,
	}, repository.Page{})
	if err != nil {
		return nil, err
	}

	return &PendingOverview{NewlyAccepted: newly, Incoming: incoming, Outgoing: outgoing}, nil
}

// Blacklist 我拉黑的用户
func (s *FriendService) Blacklist(ctx context.Context, userID uint, page repository.Page) ([]*model.Relationship, int64, error) {
	blocked := true
	return s.rels.List(ctx, repository.RelationshipQuery{
		FromUserID: userID,
		IsBlock:    &blocked,
		WithUsers:  true,
	}, page)
}

// IsBlockedBy 判断 viewer 是否被 owner 拉黑
func (s *FriendService) IsBlockedBy(ctx context.Context, viewerID, ownerID uint) (bool, error) {
	rel, err := s.rels.Find(ctx, ownerID, viewerID)
	if err != nil {
		return false, err
	}
	return rel != nil && rel.IsBlock, nil
}
