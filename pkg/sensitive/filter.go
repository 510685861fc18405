// Package sensitive 评论敏感词过滤
//
// 词表保存在内存快照中，通过 Reload 整体替换；读路径无锁。
// 从未成功加载过词表时 Match 返回不可用错误，拒绝放行。
package sensitive

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Source 敏感词来源
type Source interface {
	Words(ctx context.Context) ([]string, error)
}

// SourceFunc 函数形式的 Source
type SourceFunc func(ctx context.Context) ([]string, error)

func (f SourceFunc) Words(ctx context.Context) ([]string, error) { return f(ctx) }

type snapshot struct {
	words []string // 已小写、去重、按字典序排列
}

// Filter 敏感词过滤器
type Filter struct {
	source Source
	snap   atomic.Pointer[snapshot]
}

// NewFilter 创建过滤器，需调用 Reload 后才可用
func NewFilter(source Source) *Filter {
	return &Filter{source: source}
}

// Reload 从来源重新加载词表，失败时保留上一份快照
func (f *Filter) Reload(ctx context.Context) error {
	words, err := f.source.Words(ctx)
	if err != nil {
		logger.Warn("敏感词加载失败，沿用旧词表", zap.Error(err))
		return errors.Wrap(err, "load sensitive words")
	}
	f.Replace(words)
	return nil
}

// Replace 直接替换词表
func (f *Filter) Replace(words []string) {
	seen := make(map[string]struct{}, len(words))
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		normalized = append(normalized, w)
	}
	sort.Strings(normalized)
	f.snap.Store(&snapshot{words: normalized})
	logger.Info("敏感词已加载", zap.Int("count", len(normalized)))
}

// Ready 是否已有可用词表
func (f *Filter) Ready() bool {
	return f.snap.Load() != nil
}

// Match 返回文本中命中的敏感词（不区分大小写）
func (f *Filter) Match(text string) ([]string, error) {
	s := f.snap.Load()
	if s == nil {
		return nil, apperrors.ErrSensitiveUnavailable
	}

	lowered := strings.ToLower(text)
	var matches []string
	for _, w := range s.words {
		if strings.Contains(lowered, w) {
			matches = append(matches, w)
		}
	}
	return matches, nil
}

// Check 命中敏感词时返回字段级校验错误
func (f *Filter) Check(text string) error {
	matches, err := f.Match(text)
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		return apperrors.ErrSensitiveWords(matches)
	}
	return nil
}

// Listen 收到重载通知后刷新词表，直到 ctx 结束或频道关闭
func (f *Filter) Listen(ctx context.Context, ch <-chan *goredis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			logger.Info("收到敏感词重载通知", zap.String("channel", msg.Channel))
			_ = f.Reload(ctx)
		}
	}
}
