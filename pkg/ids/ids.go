// Package ids 雪花 ID 生成
package ids

import (
	"sync"

	"github.com/yitter/idgenerator-go/idgen"
)

var once sync.Once

// Init 设置 workerID，只有第一次调用生效
func Init(workerID uint16) {
	once.Do(func() {
		options := idgen.NewIdGeneratorOptions(workerID)
		options.BaseTime = 1755937966000
		options.WorkerIdBitLength = 6
		idgen.SetIdGenerator(options)
	})
}

// Next 未初始化时使用 workerID 1
func Next() uint64 {
	Init(1)
	return uint64(idgen.NextId())
}
