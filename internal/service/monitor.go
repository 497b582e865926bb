package service

import (
	"sync"
	"time"
)

// Monitor 进程内运行计数，供后台接口观测订单与结算链路
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors         int64
	MQErrors         int64
	SettlementErrors int64
	ReviewErrors     int64
	WorkerErrors     int64

	// 业务统计
	OrdersCreated     int64
	SettlementSuccess int64
	ReviewsCreated    int64
	WorkerProcessed   int64
	WorkerFailed      int64

	// 时间统计
	LastDBError        time.Time
	LastMQError        time.Time
	LastSettlementTime time.Time
	LastWorkerTime     time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordMQError 记录 MQ 错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordOrderCreated 记录订单创建成功
func (m *Monitor) RecordOrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated++
}

// RecordSettlementSuccess 记录结算成功
func (m *Monitor) RecordSettlementSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettlementSuccess++
	m.LastSettlementTime = time.Now()
}

// RecordSettlementError 记录结算失败（含被并发抢先的状态冲突）
func (m *Monitor) RecordSettlementError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettlementErrors++
}

// RecordReviewCreated 记录评价创建成功
func (m *Monitor) RecordReviewCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReviewsCreated++
}

// RecordReviewError 记录评价写入失败
func (m *Monitor) RecordReviewError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReviewErrors++
}

// RecordWorkerProcessed 记录 Worker 处理成功
func (m *Monitor) RecordWorkerProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerProcessed++
	m.LastWorkerTime = time.Now()
}

// RecordWorkerFailed 记录 Worker 处理失败
func (m *Monitor) RecordWorkerFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerFailed++
	m.WorkerErrors++
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	workerSuccessRate := float64(0)
	totalWorker := m.WorkerProcessed + m.WorkerFailed
	if totalWorker > 0 {
		workerSuccessRate = float64(m.WorkerProcessed) / float64(totalWorker) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":         m.DBErrors,
			"mq":         m.MQErrors,
			"settlement": m.SettlementErrors,
			"review":     m.ReviewErrors,
			"worker":     m.WorkerErrors,
		},
		"business": map[string]interface{}{
			"orders_created":      m.OrdersCreated,
			"settlement_success":  m.SettlementSuccess,
			"reviews_created":     m.ReviewsCreated,
			"worker_processed":    m.WorkerProcessed,
			"worker_failed":       m.WorkerFailed,
			"worker_success_rate": workerSuccessRate,
		},
		"last_events": map[string]interface{}{
			"db_error":        m.LastDBError,
			"mq_error":        m.LastMQError,
			"last_settlement": m.LastSettlementTime,
			"last_worker":     m.LastWorkerTime,
		},
	}
}

// Reset 重置统计（用于测试或定期清理）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors = 0
	m.MQErrors = 0
	m.SettlementErrors = 0
	m.ReviewErrors = 0
	m.WorkerErrors = 0
	m.OrdersCreated = 0
	m.SettlementSuccess = 0
	m.ReviewsCreated = 0
	m.WorkerProcessed = 0
	m.WorkerFailed = 0
}
