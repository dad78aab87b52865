package accessrepo

import "github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"

type UserRole struct {
	commonrepo.Mode
	UserID string `gorm:"column:user_id;size:64;not null;uniqueIndex:uk_user_role"`
	Role   string `gorm:"column:role;size:32;not null;uniqueIndex:uk_user_role"`
}

func (UserRole) TableName() string { return "user_roles" }

type SourceGrant struct {
	commonrepo.Mode
	UserID   string `gorm:"column:user_id;size:64;not null;uniqueIndex:uk_user_source"`
	SourceID string `gorm:"column:source_id;size:64;not null;uniqueIndex:uk_user_source"`
}

func (SourceGrant) TableName() string { return "source_grants" }
