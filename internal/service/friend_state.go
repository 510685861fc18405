package service

import (
	"time"

	"oasis/internal/model"
	apperrors "oasis/pkg/errors"
)

// FriendOp 对单条好友关系的一次变更
type FriendOp int

const (
	OpRemark FriendOp = iota + 1
	OpBlock
	OpPostBlock
	OpRespond
	OpRemove
)

func (op FriendOp) String() string {
	switch op {
	case OpRemark:
		return "remark"
	case OpBlock:
		return "is_block"
	case OpPostBlock:
		return "is_post_block"
	case OpRespond:
		return "state"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Role 操作者在关系行 (from→to) 中应处的位置
type Role int

const (
	RoleFrom Role = iota + 1
	RoleTo
)

// checkRole 非关系双方视为记录不存在，身份不符视为无权限
func checkRole(rel *model.Relationship, callerID uint, role Role) error {
	if callerID != rel.FromUserID && callerID != rel.ToUserID {
		return apperrors.ErrRelationshipNotFound
	}
	switch role {
	case RoleFrom:
		if callerID != rel.FromUserID {
			return apperrors.ErrPermission
		}
	case RoleTo:
		if callerID != rel.ToUserID {
			return apperrors.ErrPermission
		}
	}
	return nil
}

// applyRequest A→B 发起好友请求
func applyRequest(rel *model.Relationship, sayHi, remark string) error {
	if rel.IsBlock {
		// 拉黑后重新申请视为全新请求
		rel.IsBlock = false
	} else if rel.State == model.FriendAgree {
		return apperrors.ErrAlreadyFriends
	}
	rel.State = model.FriendPending
	rel.SayHi = sayHi
	rel.Remark = remark
	return nil
}

// applyAccept B 接受 A→B 的请求，reverse 为 B→A 行
// 两行写入同一个 agree_time
func applyAccept(forward, reverse *model.Relationship, at time.Time, requesterName string) error {
	if forward.State != model.FriendPending {
		return apperrors.ErrAlreadyProcessed
	}
	forward.State = model.FriendAgree
	forward.AgreeTime = &at

	reverse.State = model.FriendAgree
	agreeTime := at
	reverse.AgreeTime = &agreeTime
	reverse.Remark = requesterName
	return nil
}

// applyReject B 拒绝 A→B 的请求，B→A 不受影响
func applyReject(forward *model.Relationship) error {
	if forward.State != model.FriendPending {
		return apperrors.ErrAlreadyProcessed
	}
	forward.State = model.FriendReject
	return nil
}

func applyBlock(rel *model.Relationship, block bool) {
	rel.IsBlock = block
}

func applyPostBlock(rel *model.Relationship, block bool) {
	rel.IsPostBlock = block
}

func applyRemark(rel *model.Relationship, remark string) {
	rel.Remark = remark
}

// applyRemove 只删除 A→B，B→A 保持不变
func applyRemove(rel *model.Relationship) {
	rel.Status = model.RecordAbandoned
}

// FriendPatch PATCH /friends/:id 的请求体，必须且只能携带一个字段
type FriendPatch struct {
	Remark      *string            `json:"remark"`
	IsBlock     *bool              `json:"is_block"`
	IsPostBlock *bool              `json:"is_post_block"`
	State       *model.FriendState `json:"state"`
}

// Op 解析出本次变更的类型
func (p FriendPatch) Op() (FriendOp, error) {
	var ops []FriendOp
	if p.Remark != nil {
		ops = append(ops, OpRemark)
	}
	if p.IsBlock != nil {
		ops = append(ops, OpBlock)
	}
	if p.IsPostBlock != nil {
		ops = append(ops, OpPostBlock)
	}
	if p.State != nil {
		ops = append(ops, OpRespond)
	}
	if len(ops) != 1 {
		return 0, apperrors.ErrParameter
	}
	return ops[0], nil
}
