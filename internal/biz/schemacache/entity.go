package schemacache

import (
	"encoding/json"
	"time"
)

// Classification 模式安全等级，由敏感字段扫描得出
type Classification string

const (
	ClassificationPublic       Classification = "public"
	ClassificationInternal     Classification = "internal"
	ClassificationConfidential Classification = "confidential"
	ClassificationRestricted   Classification = "restricted"
)

func (c Classification) Rank() int {
	switch c {
	case ClassificationInternal:
		return 1
	case ClassificationConfidential:
		return 2
	case ClassificationRestricted:
		return 3
	}
	return 0
}

// RequiresRedaction confidential 及以上对非管理员脱敏
func (c Classification) RequiresRedaction() bool {
	return c.Rank() >= ClassificationConfidential.Rank()
}

type Metadata struct {
	Hash            string   `json:"hash"`
	Processor       string   `json:"processor"`
	TypeCount       int      `json:"typeCount"`
	ResourceCount   int      `json:"resourceCount"`
	SensitiveFields []string `json:"sensitiveFields"`
	SensitiveTypes  []string `json:"sensitiveTypes,omitempty"`
}

// Entry 一个 (source, api_version) 的某个模式版本
type Entry struct {
	ID              uint64
	SourceID        string
	APIVersion      string
	SchemaVersion   int
	Schema          json.RawMessage
	ProcessedSchema json.RawMessage
	Classification  Classification
	Metadata        Metadata
	CreatedAt       time.Time
	// VerifiedAt 最近一次与提供方确认未变化的时间，新鲜度以此计算
	VerifiedAt      time.Time
	LastAccessedAt  time.Time
	AccessCount     int64
}

func (e *Entry) Fresh(now time.Time, lifetime time.Duration) bool {
	ref := e.VerifiedAt
	if ref.IsZero() {
		ref = e.CreatedAt
	}
	return now.Sub(ref) < lifetime
}
