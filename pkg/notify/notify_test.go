package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"oasis/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	online map[uint]bool
	sent   map[uint][][]byte
}

func (p *fakePusher) Push(userID uint, payload []byte) bool {
	if !p.online[userID] {
		return false
	}
	if p.sent == nil {
		p.sent = make(map[uint][][]byte)
	}
	p.sent[userID] = append(p.sent[userID], payload)
	return true
}

type failingInbox struct{}

func (failingInbox) Add(context.Context, uint, *redis.OfflineNotification) error {
	return errors.New("redis down")
}

func setupRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	redis.SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { redis.SetClient(nil) })
}

func TestHub_PushesWhenOnline(t *testing.T) {
	setupRedis(t)
	pusher := &fakePusher{online: map[uint]bool{1: true}}
	hub := NewHub(pusher, RedisInbox{})

	require.NoError(t, hub.Notify(context.Background(), 1, "Friend request", "bob wants to be friends", map[string]string{"type": "friend_request"}))
	require.Len(t, pusher.sent[1], 1)

	var env struct {
		Type string                    `json:"type"`
		Data redis.OfflineNotification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pusher.sent[1][0], &env))
	assert.Equal(t, "notification", env.Type)
	assert.Equal(t, "Friend request", env.Data.Title)
	assert.NotEmpty(t, env.Data.ID)

	count, err := redis.GetUnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHub_StoresWhenOffline(t *testing.T) {
	setupRedis(t)
	hub := NewHub(&fakePusher{}, RedisInbox{})

	require.NoError(t, hub.Notify(context.Background(), 2, "Like", "alice liked your post", nil))

	items, err := redis.GetOfflineNotifications(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Like", items[0].Title)

	count, err := redis.GetUnreadCount(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHub_InboxError(t *testing.T) {
	hub := NewHub(nil, failingInbox{})
	assert.Error(t, hub.Notify(context.Background(), 2, "t", "b", nil))

	// Send 只记录日志
	Send(context.Background(), hub, 2, "t", "b", nil)
	Send(context.Background(), nil, 2, "t", "b", nil)
}
