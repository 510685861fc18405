package service

import (
	"context"
	"testing"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow(t *testing.T) {
	e := newEnv(t)
	svc := NewFollowService(e.db)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	assert.ErrorIs(t, svc.Follow(ctx, alice.ID, alice.ID), apperrors.ErrCannotFollowSelf)
	assert.ErrorIs(t, svc.Follow(ctx, alice.ID, 999), apperrors.ErrUserNotFound)

	require.NoError(t, svc.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.Follow(ctx, alice.ID, bob.ID))

	ok, err := svc.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	following, total, err := svc.Following(ctx, alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.NotNil(t, following[0].ToUser)
	assert.Equal(t, "bob", following[0].ToUser.Username)

	fans, total, err := svc.Fans(ctx, bob.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "alice", fans[0].FromUser.Username)

	require.NoError(t, svc.Unfollow(ctx, alice.ID, bob.ID))
	_, total, err = svc.Fans(ctx, bob.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFavorites_OwnerAndVisibility(t *testing.T) {
	e := newEnv(t)
	svc := NewFavoritesService(e.db, e.posts)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	public, err := svc.Create(ctx, alice.ID, FavoritesInput{Name: "旅行"})
	require.NoError(t, err)
	private, err := svc.Create(ctx, alice.ID, FavoritesInput{Name: "私藏", Category: model.FavoritesPrivate})
	require.NoError(t, err)

	_, err = svc.Create(ctx, alice.ID, FavoritesInput{Name: "x", Category: 5})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "category", appErr.Field)

	mine, total, err := svc.List(ctx, alice.ID, 0, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, mine, 2)

	theirs, total, err := svc.List(ctx, bob.ID, alice.ID, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, public.ID, theirs[0].ID)

	_, err = svc.Retrieve(ctx, bob.ID, private.ID)
	assert.ErrorIs(t, err, apperrors.ErrFavoritesNotFound)

	_, err = svc.Update(ctx, bob.ID, public.ID, FavoritesPatch{Name: strPtr("mine now")})
	assert.ErrorIs(t, err, apperrors.ErrPermission)
	assert.ErrorIs(t, svc.Delete(ctx, bob.ID, public.ID), apperrors.ErrPermission)

	updated, err := svc.Update(ctx, alice.ID, public.ID, FavoritesPatch{Name: strPtr("远方")})
	require.NoError(t, err)
	assert.Equal(t, "远方", updated.Name)

	require.NoError(t, svc.Delete(ctx, alice.ID, private.ID))
	_, err = svc.Retrieve(ctx, alice.ID, private.ID)
	assert.ErrorIs(t, err, apperrors.ErrFavoritesNotFound)
}

func TestFavorites_CollectRequiresScope(t *testing.T) {
	e := newEnv(t)
	svc := NewFavoritesService(e.db, e.posts)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ctx := context.Background()

	fav, err := svc.Create(ctx, alice.ID, FavoritesInput{Name: "fav"})
	require.NoError(t, err)
	public := e.post(t, bob, model.VisibilityPublic)
	hidden := e.post(t, bob, model.VisibilityFriendsOnly)

	err = svc.Operate(ctx, alice.ID, FavoritesOperation{FavoritesID: fav.ID, PostID: hidden.ID, Operation: "collect"})
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	err = svc.Operate(ctx, bob.ID, FavoritesOperation{FavoritesID: fav.ID, PostID: public.ID, Operation: "collect"})
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	op := FavoritesOperation{FavoritesID: fav.ID, PostID: public.ID, Operation: "collect"}
	require.NoError(t, svc.Operate(ctx, alice.ID, op))
	require.NoError(t, svc.Operate(ctx, alice.ID, op))

	detail, err := svc.Retrieve(ctx, alice.ID, fav.ID)
	require.NoError(t, err)
	require.Len(t, detail.Posts, 1)
	assert.Equal(t, public.ID, detail.Posts[0].ID)

	list, _, err := svc.List(ctx, alice.ID, 0, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), list[0].PostCount)

	// 帖子转为私密后不再出现在他人的收藏夹详情中
	vis := model.VisibilityPrivate
	_, err = e.posts.Update(ctx, bob.ID, public.ID, PostPatch{Visibility: &vis})
	require.NoError(t, err)
	detail, err = svc.Retrieve(ctx, alice.ID, fav.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Posts)

	op.Operation = "uncollect"
	require.NoError(t, svc.Operate(ctx, alice.ID, op))
	list, _, err = svc.List(ctx, alice.ID, 0, repository.NewPage(1, 20))
	require.NoError(t, err)
	assert.Zero(t, list[0].PostCount)
}
