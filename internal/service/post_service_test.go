package service

import (
	"context"
	"testing"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(views []*PostView) []uint {
	ids := make([]uint, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	return ids
}

func TestScope_FriendsOnlyVisibility(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	ctx := context.Background()

	e.befriend(t, alice, bob)
	// carol 只发出申请，未被接受
	_, err := e.friends.Request(ctx, carol.ID, FriendRequestInput{ToUserID: bob.ID})
	require.NoError(t, err)

	p := e.post(t, bob, model.VisibilityFriendsOnly)

	_, err = e.posts.Retrieve(ctx, alice.ID, p.ID)
	assert.NoError(t, err)
	_, err = e.posts.Retrieve(ctx, bob.ID, p.ID)
	assert.NoError(t, err)
	_, err = e.posts.Retrieve(ctx, carol.ID, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestScope_PrivateOnlyForAuthor(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	e.befriend(t, alice, bob)
	p := e.post(t, bob, model.VisibilityPrivate)

	_, err := e.posts.Retrieve(context.Background(), alice.ID, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	_, err = e.posts.Retrieve(context.Background(), bob.ID, p.ID)
	assert.NoError(t, err)
}

func TestScope_PostBlockIsDirectional(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()
	e.befriend(t, alice, bob)
	reverse := e.row(t, bob.ID, alice.ID)

	alicePost := e.post(t, alice, model.VisibilityFriendsOnly)
	bobPost := e.post(t, bob, model.VisibilityFriendsOnly)

	story, _, err := e.posts.Story(ctx, bob.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []uint{alicePost.ID}, postIDs(story))

	// bob 屏蔽 alice 的帖子
	_, err = e.friends.Update(ctx, bob.ID, reverse.ID, FriendPatch{IsPostBlock: boolPtr(true)})
	require.NoError(t, err)

	story, total, err := e.posts.Story(ctx, bob.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, story)
	_, err = e.posts.Retrieve(ctx, bob.ID, alicePost.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	// alice 仍然可以看到 bob 的帖子
	story, _, err = e.posts.Story(ctx, alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []uint{bobPost.ID}, postIDs(story))
}

func TestScope_BlockAndRemoveHideFriendsPosts(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	ctx := context.Background()
	toBob := e.befriend(t, alice, bob)
	toCarol := e.befriend(t, alice, carol)
	bobPost := e.post(t, bob, model.VisibilityFriendsOnly)
	carolPost := e.post(t, carol, model.VisibilityFriendsOnly)

	_, err := e.friends.Update(ctx, alice.ID, toBob.ID, FriendPatch{IsBlock: boolPtr(true)})
	require.NoError(t, err)
	require.NoError(t, e.friends.Remove(ctx, alice.ID, toCarol.ID))

	_, err = e.posts.Retrieve(ctx, alice.ID, bobPost.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	_, err = e.posts.Retrieve(ctx, alice.ID, carolPost.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestScope_WhereMatchesCanView(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	e.befriend(t, alice, bob)
	var all []*PostView
	for _, author := range []*model.User{alice, bob, carol} {
		for _, vis := range []model.Visibility{model.VisibilityPublic, model.VisibilityFriendsOnly, model.VisibilityPrivate} {
			all = append(all, e.post(t, author, vis))
		}
	}

	scope, err := NewScopeResolver(e.db).Resolve(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, scope.FriendIDs)

	var want []uint
	for _, p := range all {
		if scope.CanView(p.Post) {
			want = append(want, p.ID)
		}
	}
	got, _, err := repository.NewPostRepository(e.db).List(context.Background(),
		repository.PostQuery{Scope: scope.Where, AuthorIDs: []uint{alice.ID, bob.ID, carol.ID}}, repository.Page{})
	require.NoError(t, err)
	gotIDs := make([]uint, len(got))
	for i, p := range got {
		gotIDs[i] = p.ID
	}
	assert.ElementsMatch(t, want, gotIDs)
	// 自己3条 + bob 公开与好友可见 + carol 公开
	assert.Len(t, gotIDs, 6)
}

func TestPost_CreateValidation(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	ctx := context.Background()

	_, err := e.posts.Create(ctx, alice.ID, PostInput{Title: "v", Category: model.CategoryVideo})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "video_url", appErr.Field)

	_, err = e.posts.Create(ctx, alice.ID, PostInput{Title: "i", Category: model.CategoryImage})
	appErr, _ = apperrors.As(err)
	assert.Equal(t, "images", appErr.Field)

	_, err = e.posts.Create(ctx, alice.ID, PostInput{Title: "x", Category: model.CategoryVideo, VideoURL: "u", Visibility: 7})
	appErr, _ = apperrors.As(err)
	assert.Equal(t, "visibility", appErr.Field)

	lng := 120.0
	_, err = e.posts.Create(ctx, alice.ID, PostInput{Title: "x", Category: model.CategoryVideo, VideoURL: "u", Longitude: &lng})
	appErr, _ = apperrors.As(err)
	assert.Equal(t, "longitude", appErr.Field)

	p, err := e.posts.Create(ctx, alice.ID, PostInput{
		Title:    "photos",
		Category: model.CategoryImage,
		Images:   []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"},
	})
	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://cdn.example.com/1.jpg", p.Images[0].URL)
	assert.Equal(t, testNow, p.Time.UTC())
}

func TestPost_OwnerOnlyUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()
	p := e.post(t, alice, model.VisibilityPublic)

	_, err := e.posts.Update(ctx, bob.ID, p.ID, PostPatch{Title: strPtr("hacked")})
	assert.ErrorIs(t, err, apperrors.ErrPermission)
	assert.ErrorIs(t, e.posts.Delete(ctx, bob.ID, p.ID), apperrors.ErrPermission)

	vis := model.VisibilityPrivate
	updated, err := e.posts.Update(ctx, alice.ID, p.ID, PostPatch{Title: strPtr("edited"), Visibility: &vis})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Title)
	assert.Equal(t, model.VisibilityPrivate, updated.Visibility)

	_, err = e.posts.Retrieve(ctx, bob.ID, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	require.NoError(t, e.posts.Delete(ctx, alice.ID, p.ID))
	_, err = e.posts.Retrieve(ctx, alice.ID, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestPost_UpdateReplacesImages(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	ctx := context.Background()
	p, err := e.posts.Create(ctx, alice.ID, PostInput{Title: "p", Category: model.CategoryImage, Images: []string{"a", "b"}})
	require.NoError(t, err)

	updated, err := e.posts.Update(ctx, alice.ID, p.ID, PostPatch{Images: []string{"c"}})
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	assert.Equal(t, "c", updated.Images[0].URL)

	_, err = e.posts.Update(ctx, alice.ID, p.ID, PostPatch{Images: []string{}})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "images", appErr.Field)
}

func TestPost_UpdateClearsLocation(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	ctx := context.Background()
	lng, lat := 116.4, 39.9
	p, err := e.posts.Create(ctx, alice.ID, PostInput{
		Title: "p", Category: model.CategoryVideo, VideoURL: "u", Place: "北京", Longitude: &lng, Latitude: &lat,
	})
	require.NoError(t, err)

	_, err = e.posts.Update(ctx, alice.ID, p.ID, PostPatch{ClearLocation: true, Longitude: &lng, Latitude: &lat})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "clear_location", appErr.Field)

	updated, err := e.posts.Update(ctx, alice.ID, p.ID, PostPatch{ClearLocation: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Longitude)
	assert.Nil(t, updated.Latitude)
	assert.Equal(t, "北京", updated.Place)

	var row model.Post
	require.NoError(t, e.db.First(&row, p.ID).Error)
	assert.Nil(t, row.Longitude)
	assert.Nil(t, row.Latitude)
}

func TestPost_Listings(t *testing.T) {
	e := newEnv(t)
	e.quiet()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	ctx := context.Background()
	e.befriend(t, alice, bob)

	mine := e.post(t, alice, model.VisibilityPrivate)
	bobPublic := e.post(t, bob, model.VisibilityPublic)
	bobFriends := e.post(t, bob, model.VisibilityFriendsOnly)
	carolPublic := e.post(t, carol, model.VisibilityPublic)
	e.post(t, carol, model.VisibilityFriendsOnly)

	got, total, err := e.posts.Mine(ctx, alice.ID, 0, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []uint{mine.ID}, postIDs(got))

	got, _, err = e.posts.Story(ctx, alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []uint{bobFriends.ID}, postIDs(got))

	got, total, err = e.posts.Feed(ctx, alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.ElementsMatch(t, []uint{bobPublic.ID, carolPublic.ID}, postIDs(got))

	// 查看他人主页按可见范围过滤
	got, _, err = e.posts.Mine(ctx, alice.ID, bob.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{bobPublic.ID, bobFriends.ID}, postIDs(got))
	got, _, err = e.posts.Mine(ctx, alice.ID, carol.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []uint{carolPublic.ID}, postIDs(got))

	// 没有好友时故事为空
	got, total, err = e.posts.Story(ctx, carol.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)
}

func TestPost_Nearby(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	at := func(author *model.User, lng, lat float64, vis model.Visibility) uint {
		p, err := e.posts.Create(ctx, author.ID, PostInput{
			Title: "geo", Category: model.CategoryVideo, VideoURL: "u",
			Visibility: vis, Longitude: &lng, Latitude: &lat,
		})
		require.NoError(t, err)
		return p.ID
	}
	far := at(bob, 116.45, 39.90, model.VisibilityPublic)
	near := at(bob, 116.41, 39.90, model.VisibilityPublic)
	at(bob, 117.50, 39.90, model.VisibilityPublic)
	at(bob, 116.40, 39.90, model.VisibilityPrivate)
	e.post(t, bob, model.VisibilityPublic)

	got, total, err := e.posts.Nearby(ctx, alice.ID, NearbyInput{Longitude: 116.40, Latitude: 39.90, DistanceKm: 5}, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uint{near, far}, postIDs(got))
	require.NotNil(t, got[0].Distance)
	assert.InDelta(t, 0.85, *got[0].Distance, 0.05)

	got, total, err = e.posts.Nearby(ctx, alice.ID, NearbyInput{Longitude: 116.40, Latitude: 39.90, DistanceKm: 5}, repository.NewPage(2, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uint{far}, postIDs(got))

	_, _, err = e.posts.Nearby(ctx, alice.ID, NearbyInput{Longitude: 200, Latitude: 0, DistanceKm: 5}, repository.NewPage(1, 20))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "longitude", appErr.Field)
}

func TestPost_NearbyAcrossAntimeridian(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	lng, lat := -179.95, 0.0
	p, err := e.posts.Create(ctx, bob.ID, PostInput{
		Title: "fiji", Category: model.CategoryVideo, VideoURL: "u", Longitude: &lng, Latitude: &lat,
	})
	require.NoError(t, err)

	got, total, err := e.posts.Nearby(ctx, alice.ID, NearbyInput{Longitude: 179.95, Latitude: 0, DistanceKm: 20}, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []uint{p.ID}, postIDs(got))
	assert.InDelta(t, 11.1, *got[0].Distance, 0.1)
}

func TestPost_LikeNotifiesAuthorOnce(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()
	p := e.post(t, alice, model.VisibilityPublic)

	e.notifier.EXPECT().Notify(gomock.Any(), alice.ID, "帖子点赞", "用户bob赞了您的帖子", gomock.Any()).Return(nil).Times(1)

	require.NoError(t, e.posts.Like(ctx, bob.ID, p.ID))
	require.NoError(t, e.posts.Like(ctx, bob.ID, p.ID))
	// 给自己点赞不通知
	require.NoError(t, e.posts.Like(ctx, alice.ID, p.ID))

	view, err := e.posts.Retrieve(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.LikeCount)
	assert.True(t, view.Liked)

	likers, total, err := e.posts.Likers(ctx, bob.ID, p.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, likers, 2)

	require.NoError(t, e.posts.Unlike(ctx, bob.ID, p.ID))
	view, err = e.posts.Retrieve(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.LikeCount)
	assert.False(t, view.Liked)
}

func TestPost_LikeOutsideScope(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	p := e.post(t, alice, model.VisibilityFriendsOnly)

	assert.ErrorIs(t, e.posts.Like(context.Background(), bob.ID, p.ID), apperrors.ErrPostNotFound)
	_, _, err := e.posts.Likers(context.Background(), bob.ID, p.ID, repository.NewPage(1, 20))
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}
