package service

import (
	"context"
	"testing"
	"time"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriend_RequestThenAccept(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	gomock.InOrder(
		e.notifier.EXPECT().Notify(gomock.Any(), bob.ID, "好友申请", gomock.Any(), gomock.Any()).Return(nil),
		e.notifier.EXPECT().Notify(gomock.Any(), alice.ID, "好友申请已通过", gomock.Any(), gomock.Any()).Return(nil),
	)

	rel, err := e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID, SayHi: "hello"})
	require.NoError(t, err)
	assert.Equal(t, model.FriendPending, rel.State)
	assert.Equal(t, "hello", rel.SayHi)
	assert.Equal(t, "bob", rel.Remark, "默认备注为对方的展示名")

	_, err = e.friends.Update(ctx, bob.ID, rel.ID, FriendPatch{State: statePtr(model.FriendAgree)})
	require.NoError(t, err)

	forward := e.row(t, alice.ID, bob.ID)
	reverse := e.row(t, bob.ID, alice.ID)
	assert.Equal(t, model.FriendAgree, forward.State)
	assert.Equal(t, model.FriendAgree, reverse.State)
	require.NotNil(t, forward.AgreeTime)
	require.NotNil(t, reverse.AgreeTime)
	assert.True(t, forward.AgreeTime.Equal(*reverse.AgreeTime))
	assert.Equal(t, "alice", reverse.Remark)
}

func TestFriend_RequestWithRemark(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	rel, err := e.friends.Request(context.Background(), alice.ID, FriendRequestInput{ToUserID: bob.ID, Remark: strPtr("老同学")})
	require.NoError(t, err)
	assert.Equal(t, "老同学", rel.Remark)
}

func TestFriend_RequestValidation(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	_, err := e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: alice.ID})
	assert.ErrorIs(t, err, apperrors.ErrCannotAddSelf)

	_, err = e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: 9999})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = e.friends.Request(ctx, alice.ID, FriendRequestInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserID)

	e.befriend(t, alice, bob)
	_, err = e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyFriends)
	assert.Equal(t, apperrors.CodeAlreadyFriends, apperrors.CodeOf(err))
}

func TestFriend_DoubleRequestOverwritesSayHi(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	first, err := e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID, SayHi: "x"})
	require.NoError(t, err)
	second, err := e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID, SayHi: "y"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	row := e.row(t, alice.ID, bob.ID)
	assert.Equal(t, model.FriendPending, row.State)
	assert.Equal(t, "y", row.SayHi)
}

func TestFriend_ReRequestAfterReject(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	rel, err := e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)
	_, err = e.friends.Update(ctx, bob.ID, rel.ID, FriendPatch{State: statePtr(model.FriendReject)})
	require.NoError(t, err)
	assert.Equal(t, model.FriendReject, e.row(t, alice.ID, bob.ID).State)

	var count int64
	require.NoError(t, e.db.Model(&model.Relationship{}).Where("from_user_id = ?", bob.ID).Count(&count).Error)
	assert.Zero(t, count, "拒绝不会创建反向行")

	_, err = e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, model.FriendPending, e.row(t, alice.ID, bob.ID).State)
}

func TestFriend_AcceptTwiceIsAlreadyProcessed(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	rel := e.befriend(t, alice, bob)

	_, err := e.friends.Update(context.Background(), bob.ID, rel.ID, FriendPatch{State: statePtr(model.FriendAgree)})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)
	assert.Equal(t, apperrors.CodeAlreadyProcessed, apperrors.CodeOf(err))

	_, err = e.friends.Update(context.Background(), bob.ID, rel.ID, FriendPatch{State: statePtr(model.FriendReject)})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)
}

func TestFriend_ProcessedRequestRejectsAnyState(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()
	rel, err := e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)
	_, err = e.friends.Update(ctx, bob.ID, rel.ID, FriendPatch{State: statePtr(model.FriendReject)})
	require.NoError(t, err)

	for _, state := range []model.FriendState{model.FriendPending, model.FriendState(42)} {
		_, err = e.friends.Update(ctx, bob.ID, rel.ID, FriendPatch{State: statePtr(state)})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed, "state %d", state)
	}
	assert.Equal(t, model.FriendReject, e.row(t, alice.ID, bob.ID).State)
}

func TestFriend_RespondWithInvalidState(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	rel, err := e.friends.Request(context.Background(), alice.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)

	_, err = e.friends.Update(context.Background(), bob.ID, rel.ID, FriendPatch{State: statePtr(model.FriendPending)})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "state", appErr.Field)
}

func TestFriend_BlockLeavesReverseRowAlone(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	rel := e.befriend(t, alice, bob)
	before := e.row(t, bob.ID, alice.ID)

	_, err := e.friends.Update(context.Background(), alice.ID, rel.ID, FriendPatch{IsBlock: boolPtr(true)})
	require.NoError(t, err)

	assert.True(t, e.row(t, alice.ID, bob.ID).IsBlock)
	after := e.row(t, bob.ID, alice.ID)
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.IsBlock, after.IsBlock)
	assert.Equal(t, before.IsPostBlock, after.IsPostBlock)
	assert.Equal(t, before.Remark, after.Remark)
}

func TestFriend_BlockIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	rel := e.befriend(t, alice, bob)
	ctx := context.Background()

	_, err := e.friends.Update(ctx, alice.ID, rel.ID, FriendPatch{IsBlock: boolPtr(true)})
	require.NoError(t, err)
	once := e.row(t, alice.ID, bob.ID)

	_, err = e.friends.Update(ctx, alice.ID, rel.ID, FriendPatch{IsBlock: boolPtr(true)})
	require.NoError(t, err)
	twice := e.row(t, alice.ID, bob.ID)

	assert.Equal(t, once.State, twice.State)
	assert.Equal(t, once.IsBlock, twice.IsBlock)
	assert.Equal(t, once.IsPostBlock, twice.IsPostBlock)
	assert.Equal(t, once.Remark, twice.Remark)
}

func TestFriend_RequestAfterBlockClearsBlock(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	rel := e.befriend(t, alice, bob)
	ctx := context.Background()

	_, err := e.friends.Update(ctx, alice.ID, rel.ID, FriendPatch{IsBlock: boolPtr(true)})
	require.NoError(t, err)

	_, err = e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID, SayHi: "again"})
	require.NoError(t, err)
	row := e.row(t, alice.ID, bob.ID)
	assert.False(t, row.IsBlock)
	assert.Equal(t, model.FriendPending, row.State)
}

func TestFriend_RoleGuard(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	ctx := context.Background()
	rel, err := e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)

	// 非关系双方
	_, err = e.friends.Update(ctx, carol.ID, rel.ID, FriendPatch{Remark: strPtr("x")})
	assert.ErrorIs(t, err, apperrors.ErrRelationshipNotFound)
	_, err = e.friends.Retrieve(ctx, carol.ID, rel.ID)
	assert.ErrorIs(t, err, apperrors.ErrRelationshipNotFound)

	// 接收方不能修改发起方的设置
	_, err = e.friends.Update(ctx, bob.ID, rel.ID, FriendPatch{IsBlock: boolPtr(true)})
	assert.ErrorIs(t, err, apperrors.ErrPermission)
	assert.ErrorIs(t, e.friends.Remove(ctx, bob.ID, rel.ID), apperrors.ErrPermission)

	// 发起方不能处理自己的申请
	_, err = e.friends.Update(ctx, alice.ID, rel.ID, FriendPatch{State: statePtr(model.FriendAgree)})
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	got, err := e.friends.Retrieve(ctx, bob.ID, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendPending, got.State)
}

func TestFriend_PatchNeedsExactlyOneField(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	rel, err := e.friends.Request(context.Background(), alice.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)

	_, err = e.friends.Update(context.Background(), alice.ID, rel.ID, FriendPatch{})
	assert.ErrorIs(t, err, apperrors.ErrParameter)

	_, err = e.friends.Update(context.Background(), alice.ID, rel.ID, FriendPatch{Remark: strPtr("x"), IsBlock: boolPtr(true)})
	assert.ErrorIs(t, err, apperrors.ErrParameter)

	assert.Equal(t, "bob", e.row(t, alice.ID, bob.ID).Remark)
}

func TestFriend_RemarkAndPostBlock(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	rel := e.befriend(t, alice, bob)
	ctx := context.Background()

	got, err := e.friends.Update(ctx, alice.ID, rel.ID, FriendPatch{Remark: strPtr("B")})
	require.NoError(t, err)
	assert.Equal(t, "B", got.Remark)

	got, err = e.friends.Update(ctx, alice.ID, rel.ID, FriendPatch{IsPostBlock: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, got.IsPostBlock)
	assert.Equal(t, model.FriendAgree, got.State)
}

func TestFriend_RemoveIsAsymmetric(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	rel := e.befriend(t, alice, bob)
	ctx := context.Background()

	require.NoError(t, e.friends.Remove(ctx, alice.ID, rel.ID))

	assert.Equal(t, model.RecordAbandoned, e.row(t, alice.ID, bob.ID).Status)
	assert.Equal(t, model.FriendAgree, e.row(t, bob.ID, alice.ID).State)

	mine, total, err := e.friends.Friends(ctx, alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, mine)

	theirs, total, err := e.friends.Friends(ctx, bob.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, alice.ID, theirs[0].ToUserID)

	_, err = e.friends.Retrieve(ctx, alice.ID, rel.ID)
	assert.ErrorIs(t, err, apperrors.ErrRelationshipNotFound)

	// 再次申请复用同一行
	again, err := e.friends.Request(ctx, alice.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, rel.ID, again.ID)
	assert.Equal(t, model.FriendPending, again.State)
}

func TestFriend_FriendsCarriesOnlineFlag(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	e.befriend(t, alice, bob)
	e.befriend(t, alice, carol)
	e.friends.online = func(_ context.Context, ids []uint) (map[uint]bool, error) {
		assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, ids)
		return map[uint]bool{bob.ID: true}, nil
	}

	views, total, err := e.friends.Friends(context.Background(), alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	online := map[uint]bool{}
	for _, v := range views {
		online[v.ToUserID] = v.Online
		require.NotNil(t, v.ToUser)
	}
	assert.Equal(t, map[uint]bool{bob.ID: true, carol.ID: false}, online)
}

func TestFriend_PendingOverview(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	me := e.user(t, "me")
	accepter, requester, stranger, target := e.user(t, "accepter"), e.user(t, "requester"), e.user(t, "stranger"), e.user(t, "target")
	ctx := context.Background()

	// accepter 通过了 me 的申请：accepter→me 行是新朋友
	e.befriend(t, me, accepter)

	// requester、stranger 向 me 发起申请，me 拉黑了 stranger
	_, err := e.friends.Request(ctx, requester.ID, FriendRequestInput{ToUserID: me.ID})
	require.NoError(t, err)
	_, err = e.friends.Request(ctx, stranger.ID, FriendRequestInput{ToUserID: me.ID})
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&model.Relationship{FromUserID: me.ID, ToUserID: stranger.ID, IsBlock: true}).Error)

	// me 向 target 发起申请
	_, err = e.friends.Request(ctx, me.ID, FriendRequestInput{ToUserID: target.ID})
	require.NoError(t, err)

	overview, err := e.friends.Pending(ctx, me.ID)
	require.NoError(t, err)

	require.Len(t, overview.NewlyAccepted, 1)
	assert.Equal(t, accepter.ID, overview.NewlyAccepted[0].FromUserID)
	require.Len(t, overview.Incoming, 1)
	assert.Equal(t, requester.ID, overview.Incoming[0].FromUserID)
	require.Len(t, overview.Outgoing, 1)
	assert.Equal(t, target.ID, overview.Outgoing[0].ToUserID)

	// 超过时间窗口后不再是新朋友
	e.friends.now = func() time.Time { return testNow.Add(NewlyAcceptedWindow + time.Second) }
	overview, err = e.friends.Pending(ctx, me.ID)
	require.NoError(t, err)
	assert.Empty(t, overview.NewlyAccepted)
}

func TestFriend_Blacklist(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	rel := e.befriend(t, alice, bob)
	e.befriend(t, alice, carol)
	ctx := context.Background()

	_, err := e.friends.Update(ctx, alice.ID, rel.ID, FriendPatch{IsBlock: boolPtr(true)})
	require.NoError(t, err)

	list, total, err := e.friends.Blacklist(ctx, alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, bob.ID, list[0].ToUserID)

	friends, _, err := e.friends.Friends(ctx, alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, carol.ID, friends[0].ToUserID)

	blocked, err := e.friends.IsBlockedBy(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, blocked)
	blocked, err = e.friends.IsBlockedBy(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestFriend_NotificationFailureDoesNotFailRequest(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	e.notifier.EXPECT().Notify(gomock.Any(), bob.ID, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(apperrors.Unavailable("push down", nil))

	rel, err := e.friends.Request(context.Background(), alice.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, model.FriendPending, rel.State)
}
