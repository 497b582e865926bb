package logging

import (
	"log"
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// Init 初始化全局 zap Logger，debug 模式下输出更友好
func Init(debug bool) *zap.Logger {
	once.Do(func() {
		var err error
		if debug {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			log.Fatalf("failed to init logger: %v", err)
		}
		zap.ReplaceGlobals(logger)
	})
	return logger
}

// L 获取全局 Logger，未初始化时退化为 Nop，方便测试
func L() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
