package accessrepo

import (
	"context"

	"github.com/google/wire"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/access"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/ids"
	"gorm.io/gorm/clause"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) access.Repo {
	return &MysqlRepositoryImpl{
		DefaultRepo: commonrepo.NewDefaultRepo(db),
	}
}

func (r *MysqlRepositoryImpl) HasRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	if userID == "" || len(roles) == 0 {
		return false, nil
	}
	var count int64
	err := r.Db(ctx).Model(&UserRole{}).Where("user_id = ? AND role IN ?", userID, roles).Count(&count).Error
	return count > 0, err
}

func (r *MysqlRepositoryImpl) HasSourceGrant(ctx context.Context, userID, sourceID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var count int64
	err := r.Db(ctx).Model(&SourceGrant{}).Where("user_id = ? AND source_id = ?", userID, sourceID).Count(&count).Error
	return count > 0, err
}

func (r *MysqlRepositoryImpl) GrantRole(ctx context.Context, userID, role string) error {
	po := &UserRole{Mode: commonrepo.Mode{ID: ids.Next()}, UserID: userID, Role: role}
	return r.Db(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(po).Error
}

func (r *MysqlRepositoryImpl) GrantSource(ctx context.Context, userID, sourceID string) error {
	po := &SourceGrant{Mode: commonrepo.Mode{ID: ids.Next()}, UserID: userID, SourceID: sourceID}
	return r.Db(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(po).Error
}
