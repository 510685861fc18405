package service

import (
	"context"
	"testing"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/sensitive"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentService(e *env, words ...string) *CommentService {
	filter := sensitive.NewFilter(nil)
	filter.Replace(words)
	return NewCommentService(e.db, filter, e.notifier)
}

func TestComment_CreateOutsideScope(t *testing.T) {
	e := newEnv(t)
	svc := newCommentService(e)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	p := e.post(t, alice, model.VisibilityFriendsOnly)

	_, err := svc.Create(context.Background(), bob.ID, CommentInput{PostID: p.ID, Text: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	_, err = svc.Create(context.Background(), bob.ID, CommentInput{PostID: 999, Text: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestComment_ScopeIsResolvedAtCreation(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	svc := newCommentService(e)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()
	e.befriend(t, alice, bob)
	p := e.post(t, alice, model.VisibilityFriendsOnly)

	_, err := svc.Create(ctx, bob.ID, CommentInput{PostID: p.ID, Text: "first"})
	require.NoError(t, err)

	reverse := e.row(t, bob.ID, alice.ID)
	_, err = e.friends.Update(ctx, bob.ID, reverse.ID, FriendPatch{IsPostBlock: boolPtr(true)})
	require.NoError(t, err)

	_, err = svc.Create(ctx, bob.ID, CommentInput{PostID: p.ID, Text: "second"})
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	_, _, err = svc.List(ctx, bob.ID, p.ID, repository.NewPage(1, 20))
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestComment_ParentMustBelongToSamePost(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	svc := newCommentService(e)
	alice := e.user(t, "alice")
	ctx := context.Background()
	p1 := e.post(t, alice, model.VisibilityPublic)
	p2 := e.post(t, alice, model.VisibilityPublic)

	parent, err := svc.Create(ctx, alice.ID, CommentInput{PostID: p1.ID, Text: "root"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, alice.ID, CommentInput{PostID: p2.ID, ParentID: &parent.ID, Text: "reply"})
	assert.ErrorIs(t, err, apperrors.ErrParentPostMismatch)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "parent", appErr.Field)

	missing := uint(999)
	_, err = svc.Create(ctx, alice.ID, CommentInput{PostID: p1.ID, ParentID: &missing, Text: "reply"})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "parent", appErr.Field)

	reply, err := svc.Create(ctx, alice.ID, CommentInput{PostID: p1.ID, ParentID: &parent.ID, Text: "reply"})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)
}

func TestComment_SensitiveWords(t *testing.T) {
	e := newEnv(t)
	svc := newCommentService(e, "Spam", "赌博")
	alice := e.user(t, "alice")
	p := e.post(t, alice, model.VisibilityPublic)

	_, err := svc.Create(context.Background(), alice.ID, CommentInput{PostID: p.ID, Text: "buy SPAM here, 赌博"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidArgument, appErr.Code)
	assert.Equal(t, "text", appErr.Field)
	assert.Contains(t, appErr.Message, "spam")
	assert.Contains(t, appErr.Message, "赌博")

	var count int64
	require.NoError(t, e.db.Model(&model.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestComment_FilterUnavailableRejects(t *testing.T) {
	e := newEnv(t)
	svc := NewCommentService(e.db, sensitive.NewFilter(nil), e.notifier)
	alice := e.user(t, "alice")
	p := e.post(t, alice, model.VisibilityPublic)

	_, err := svc.Create(context.Background(), alice.ID, CommentInput{PostID: p.ID, Text: "hello"})
	assert.ErrorIs(t, err, apperrors.ErrSensitiveUnavailable)
}

func TestComment_Notifications(t *testing.T) {
	e := newEnv(t)
	svc := newCommentService(e)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	ctx := context.Background()
	p := e.post(t, alice, model.VisibilityPublic)

	e.notifier.EXPECT().Notify(gomock.Any(), alice.ID, "帖子评论", "用户bob评论了您的帖子", gomock.Any()).Return(nil)
	root, err := svc.Create(ctx, bob.ID, CommentInput{PostID: p.ID, Text: "nice"})
	require.NoError(t, err)

	gomock.InOrder(
		e.notifier.EXPECT().Notify(gomock.Any(), alice.ID, "帖子评论", gomock.Any(), gomock.Any()).Return(nil),
		e.notifier.EXPECT().Notify(gomock.Any(), bob.ID, "帖子评论回复", "用户carol回复了您的评论", gomock.Any()).Return(nil),
	)
	_, err = svc.Create(ctx, carol.ID, CommentInput{PostID: p.ID, ParentID: &root.ID, Text: "agreed"})
	require.NoError(t, err)

	// 作者回复自己的帖子不通知自己
	e.notifier.EXPECT().Notify(gomock.Any(), bob.ID, "帖子评论回复", gomock.Any(), gomock.Any()).Return(nil)
	_, err = svc.Create(ctx, alice.ID, CommentInput{PostID: p.ID, ParentID: &root.ID, Text: "thanks"})
	require.NoError(t, err)
}

func TestComment_DeletePromotesChildren(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	svc := newCommentService(e)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()
	p := e.post(t, alice, model.VisibilityPublic)

	root, err := svc.Create(ctx, alice.ID, CommentInput{PostID: p.ID, Text: "root"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, bob.ID, CommentInput{PostID: p.ID, ParentID: &root.ID, Text: "child"})
	require.NoError(t, err)
	grandchild, err := svc.Create(ctx, alice.ID, CommentInput{PostID: p.ID, ParentID: &child.ID, Text: "grandchild"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, bob.ID, root.ID), apperrors.ErrPermission)
	require.NoError(t, svc.Delete(ctx, alice.ID, root.ID))

	list, total, err := svc.List(ctx, bob.ID, p.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	byID := map[uint]*CommentView{}
	for _, c := range list {
		byID[c.ID] = c
	}
	require.Contains(t, byID, child.ID)
	assert.Nil(t, byID[child.ID].ParentID, "直接子评论提升为顶级")
	require.Contains(t, byID, grandchild.ID)
	require.NotNil(t, byID[grandchild.ID].ParentID)
	assert.Equal(t, child.ID, *byID[grandchild.ID].ParentID)

	assert.ErrorIs(t, svc.Delete(ctx, alice.ID, root.ID), apperrors.ErrCommentNotFound)
}

func TestComment_Immutable(t *testing.T) {
	e := newEnv(t)
	svc := newCommentService(e)
	assert.ErrorIs(t, svc.Update(context.Background(), 1, 1), apperrors.ErrCommentImmutable)
}

func TestComment_Likes(t *testing.T) {
	e := newEnv(t)
	svc := newCommentService(e)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	ctx := context.Background()
	p := e.post(t, alice, model.VisibilityFriendsOnly)

	c, err := svc.Create(ctx, alice.ID, CommentInput{PostID: p.ID, Text: "mine"})
	require.NoError(t, err)

	// carol 看不到帖子，也看不到评论
	assert.ErrorIs(t, svc.Like(ctx, carol.ID, c.ID), apperrors.ErrCommentNotFound)

	e.notifier.EXPECT().Notify(gomock.Any(), alice.ID, "好友申请", gomock.Any(), gomock.Any()).Return(nil)
	e.notifier.EXPECT().Notify(gomock.Any(), bob.ID, "好友申请已通过", gomock.Any(), gomock.Any()).Return(nil)
	e.befriend(t, bob, alice)

	e.notifier.EXPECT().Notify(gomock.Any(), alice.ID, "评论点赞", "用户bob赞了您的评论", gomock.Any()).Return(nil)
	require.NoError(t, svc.Like(ctx, bob.ID, c.ID))

	list, _, err := svc.List(ctx, bob.ID, p.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].LikeCount)
	assert.True(t, list[0].Liked)

	likers, total, err := svc.Likers(ctx, bob.ID, c.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, bob.ID, likers[0].ID)

	require.NoError(t, svc.Unlike(ctx, bob.ID, c.ID))
	list, _, err = svc.List(ctx, bob.ID, p.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, list[0].LikeCount)
}
