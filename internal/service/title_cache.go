package service

import (
	"context"
	"strconv"
	"time"

	"yamdb/internal/cache"
	"yamdb/internal/model"
)

const (
	titleKeyPrefix  = "title:"
	defaultTitleTTL = 5 * time.Minute
)

// TitleCache keeps rendered titles by id. Writes to titles, reviews and
// classifiers invalidate it.
type TitleCache interface {
	Get(ctx context.Context, id uint) (*model.Title, bool)
	Put(ctx context.Context, title *model.Title)
	Invalidate(ctx context.Context, id uint)
	InvalidateAll(ctx context.Context)
}

type redisTitleCache struct {
	client *cache.Client
	ttl    time.Duration
}

// NewTitleCache stores titles in redis. A nil client yields a cache that
// always misses.
func NewTitleCache(client *cache.Client, ttl time.Duration) TitleCache {
	if ttl <= 0 {
		ttl = defaultTitleTTL
	}
	return &redisTitleCache{client: client, ttl: ttl}
}

func titleKey(id uint) string {
	return titleKeyPrefix + strconv.FormatUint(uint64(id), 10)
}

func (c *redisTitleCache) Get(ctx context.Context, id uint) (*model.Title, bool) {
	var title model.Title
	if !c.client.GetJSON(ctx, titleKey(id), &title) {
		return nil, false
	}
	return &title, true
}

func (c *redisTitleCache) Put(ctx context.Context, title *model.Title) {
	c.client.SetJSON(ctx, titleKey(title.ID), title, c.ttl)
}

func (c *redisTitleCache) Invalidate(ctx context.Context, id uint) {
	_ = c.client.Delete(ctx, titleKey(id))
}

func (c *redisTitleCache) InvalidateAll(ctx context.Context) {
	_ = c.client.DeleteMatching(ctx, titleKeyPrefix+"*")
}
