package commonrepo

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DB gorm 的子集，便于在仓储里替换事务句柄
type DB interface {
	Model(value any) (tx *gorm.DB)
	Create(value any) (tx *gorm.DB)
	Where(query any, args ...any) (tx *gorm.DB)
	Table(name string, args ...any) (tx *gorm.DB)
	Transaction(fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
	AutoMigrate(table ...any) error
	First(dest any, conds ...any) (tx *gorm.DB)
	Find(dest any, conds ...any) (tx *gorm.DB)
	Select(query any, args ...any) (tx *gorm.DB)
	Joins(query string, args ...any) (tx *gorm.DB)
	Clauses(conds ...clause.Expression) (tx *gorm.DB)
	WithContext(ctx context.Context) *gorm.DB

	Count(count *int64) *gorm.DB
	Updates(values any) *gorm.DB
	Take(dest any, conds ...any) *gorm.DB
	Offset(offset int) *gorm.DB
	Limit(limit int) *gorm.DB
	Order(value any) *gorm.DB
}

// FirstOrNil 记录不存在时返回 (false, nil)
func FirstOrNil(tx *gorm.DB) (bool, error) {
	err := tx.Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// NullJSON JSON 列不写 SQL NULL，datatypes.JSON 无法扫描 NULL
func NullJSON() datatypes.JSON {
	return datatypes.JSON("null")
}

func JSONOrNull(b []byte) datatypes.JSON {
	if len(b) == 0 {
		return NullJSON()
	}
	return datatypes.JSON(b)
}
