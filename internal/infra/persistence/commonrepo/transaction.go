package commonrepo

import (
	"context"

	"gorm.io/gorm"
)

type Transaction interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

type dbContextKey struct{}

type DefaultRepo struct {
	db DB
}

func NewDefaultRepo(db DB) DefaultRepo {
	return DefaultRepo{db: db}
}

// Execute 在事务里执行 fn；fn 内通过 ctx 拿到同一个 tx
func (r *DefaultRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(dbContextKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, dbContextKey{}, tx))
	})
}

func (r *DefaultRepo) Db(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(dbContextKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}
