package logger

import "fmt"

func stackOf(err error) string {
	// cockroachdb/errors 在 %+v 下输出堆栈
	return fmt.Sprintf("%+v", err)
}
