package client

import (
	"sync/atomic"
)

// LoopMetrics 记录游戏循环运行期的关键指标（用于监控与调试）
type LoopMetrics struct {
	TickCount       int64 // 触发的 Tick 次数
	StartsRequested int64 // 开局请求数
	StartsApplied   int64 // 生效的开局数
	MovesSent       int64 // 发出的移动请求
	MovesApplied    int64 // 被应用到棋盘的移动响应
	RequestsFailed  int64 // 网络或响应格式错误
	StaleDiscarded  int64 // 因所属局已结束/被替换或乱序而丢弃的响应
	InputsAccepted  int64 // 通过反向保护的方向输入
	InputsRejected  int64 // 被反向保护拒绝或无局可用的输入
	InputsDropped   int64 // 因通道满被丢弃的输入
	CommandsDropped int64 // 因命令队列满被丢弃的开局/调速命令
	TimersActive    int64 // 当前存活的 Tick 定时器（应始终 <= 1）
	TotalRTTNs      int64 // 移动请求往返累计耗时（纳秒）
}

func (m *LoopMetrics) IncTick()            { atomic.AddInt64(&m.TickCount, 1) }
func (m *LoopMetrics) IncStartRequested()  { atomic.AddInt64(&m.StartsRequested, 1) }
func (m *LoopMetrics) IncStartApplied()    { atomic.AddInt64(&m.StartsApplied, 1) }
func (m *LoopMetrics) IncMoveSent()        { atomic.AddInt64(&m.MovesSent, 1) }
func (m *LoopMetrics) IncFailed()          { atomic.AddInt64(&m.RequestsFailed, 1) }
func (m *LoopMetrics) IncStale()           { atomic.AddInt64(&m.StaleDiscarded, 1) }
func (m *LoopMetrics) IncInputAccepted()   { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *LoopMetrics) IncInputRejected()   { atomic.AddInt64(&m.InputsRejected, 1) }
func (m *LoopMetrics) IncInputDropped()    { atomic.AddInt64(&m.InputsDropped, 1) }
func (m *LoopMetrics) IncCommandDropped()  { atomic.AddInt64(&m.CommandsDropped, 1) }
func (m *LoopMetrics) TimerInstalled()     { atomic.AddInt64(&m.TimersActive, 1) }
func (m *LoopMetrics) TimerCancelled()     { atomic.AddInt64(&m.TimersActive, -1) }
func (m *LoopMetrics) ActiveTimers() int64 { return atomic.LoadInt64(&m.TimersActive) }
func (m *LoopMetrics) AddMoveApplied(rttNs int64) {
	atomic.AddInt64(&m.MovesApplied, 1)
	atomic.AddInt64(&m.TotalRTTNs, rttNs)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *LoopMetrics) Snapshot() map[string]any {
	applied := atomic.LoadInt64(&m.MovesApplied)
	total := atomic.LoadInt64(&m.TotalRTTNs)
	var avgMs float64
	if applied > 0 {
		avgMs = float64(total) / float64(applied) / 1e6
	}
	return map[string]any{
		"tick_count":       atomic.LoadInt64(&m.TickCount),
		"starts_requested": atomic.LoadInt64(&m.StartsRequested),
		"starts_applied":   atomic.LoadInt64(&m.StartsApplied),
		"moves_sent":       atomic.LoadInt64(&m.MovesSent),
		"moves_applied":    applied,
		"requests_failed":  atomic.LoadInt64(&m.RequestsFailed),
		"stale_discarded":  atomic.LoadInt64(&m.StaleDiscarded),
		"inputs_accepted":  atomic.LoadInt64(&m.InputsAccepted),
		"inputs_rejected":  atomic.LoadInt64(&m.InputsRejected),
		"inputs_dropped":   atomic.LoadInt64(&m.InputsDropped),
		"commands_dropped": atomic.LoadInt64(&m.CommandsDropped),
		"timers_active":    atomic.LoadInt64(&m.TimersActive),
		"avg_rtt_ms":       avgMs,
	}
}
