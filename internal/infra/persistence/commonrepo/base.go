package commonrepo

import "time"

// Mode 公共列；ID 由 idgen 生成，不使用自增
type Mode struct {
	ID        uint64    `gorm:"primarykey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// StringMode 外部系统分配字符串主键的表（数据源、数据集、模板）
type StringMode struct {
	ID        string    `gorm:"primarykey;size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
