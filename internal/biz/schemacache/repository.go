package schemacache

import (
	"context"
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
)

type Repo interface {
	commonrepo.Transaction

	// Latest 返回最高版本，不存在时返回 nil, nil
	Latest(ctx context.Context, sourceID, apiVersion string) (*Entry, error)
	Create(ctx context.Context, entry *Entry) error
	// Touch 记录一次缓存命中
	Touch(ctx context.Context, id uint64, at time.Time) error
	// MarkVerified 哈希未变化时只刷新时间戳
	MarkVerified(ctx context.Context, id uint64, at time.Time) error
	ListVersions(ctx context.Context, sourceID, apiVersion string) ([]*Entry, error)
}
