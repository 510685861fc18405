package service

import (
	"context"
	"testing"
	"time"

	"oasis/internal/model"
	"oasis/internal/testutil"
	"oasis/pkg/notify/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

// env 一组共享同一数据库与通知mock的服务
type env struct {
	db       *gorm.DB
	notifier *mocks.MockNotifier
	friends  *FriendService
	posts    *PostService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	ctrl := gomock.NewController(t)
	n := mocks.NewMockNotifier(ctrl)

	friends := NewFriendService(db, n)
	friends.now = func() time.Time { return testNow }
	friends.online = func(context.Context, []uint) (map[uint]bool, error) { return nil, nil }

	posts := NewPostService(db, n)
	posts.now = func() time.Time { return testNow }

	return &env{db: db, notifier: n, friends: friends, posts: posts}
}

// quiet 不关心通知内容的用例
func (e *env) quiet() {
	e.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (e *env) user(t *testing.T, name string) *model.User {
	return testutil.CreateUser(t, e.db, name)
}

// befriend a 申请、b 通过，返回 a→b 行
func (e *env) befriend(t *testing.T, a, b *model.User) *model.Relationship {
	t.Helper()
	ctx := context.Background()
	rel, err := e.friends.Request(ctx, a.ID, FriendRequestInput{ToUserID: b.ID, SayHi: "hi"})
	require.NoError(t, err)
	agree := model.FriendAgree
	_, err = e.friends.Update(ctx, b.ID, rel.ID, FriendPatch{State: &agree})
	require.NoError(t, err)
	return rel
}

// row 直接读取 from→to 行（包括已删除的）
func (e *env) row(t *testing.T, from, to uint) *model.Relationship {
	t.Helper()
	var rel model.Relationship
	require.NoError(t, e.db.Where("from_user_id = ? AND to_user_id = ?", from, to).First(&rel).Error)
	return &rel
}

func (e *env) post(t *testing.T, author *model.User, vis model.Visibility) *PostView {
	t.Helper()
	p, err := e.posts.Create(context.Background(), author.ID, PostInput{
		Visibility: vis,
		Category:   model.CategoryVideo,
		Title:      author.Username + " post",
		VideoURL:   "https://cdn.example.com/v.mp4",
	})
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func statePtr(s model.FriendState) *model.FriendState { return &s }
