package client

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// DefaultTickInterval 每次移动请求的间隔
	DefaultTickInterval = 350 * time.Millisecond
	// BaselineTickInterval 早期版本使用的较慢节奏
	BaselineTickInterval = 500 * time.Millisecond

	inputBufferSize   = 256
	commandBufferSize = 16
	resultBufferSize  = 64
)

var _ Controls = (*Loop)(nil)

type LoopOptions struct {
	Gateway        Gateway
	Display        Display
	Metrics        *LoopMetrics
	BoardSize      int
	TickInterval   time.Duration
	RequestTimeout time.Duration
}

// session 一局游戏：当前方向、请求上下文与世代号都归它所有
type session struct {
	id         string
	gen        uint64
	ctx        context.Context
	cancel     context.CancelFunc
	controller *Controller
	moveSeq    uint64 // 最近发出的移动序号
	appliedSeq uint64 // 最近应用的移动序号
	over       bool
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdSetInterval
)

type command struct {
	kind     commandKind
	interval time.Duration
}

type resultKind int

const (
	resultStart resultKind = iota
	resultMove
)

// result 异步请求的结果，带世代号回到循环协程
type result struct {
	kind   resultKind
	gen    uint64
	seq    uint64
	sentAt time.Time
	start  *StartResult
	move   *MoveResult
	err    error
}

// Loop 游戏循环：单协程推进，输入、命令、网络结果和 Tick 都作为事件串行处理
type Loop struct {
	gateway        Gateway
	display        Display
	metrics        *LoopMetrics
	board          *Board
	requestTimeout time.Duration
	tickInterval   atomic.Int64

	inputChan  chan Direction
	cmdChan    chan command
	resultChan chan result

	// 以下字段只在循环协程内访问
	ctx        context.Context
	sess       *session
	sessionGen uint64
	startGen   uint64
	ticker     *time.Ticker
}

func NewLoop(opts LoopOptions) *Loop {
	if opts.Display == nil {
		opts.Display = MultiDisplay(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = &LoopMetrics{}
	}
	if opts.BoardSize <= 0 {
		opts.BoardSize = BoardSize
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	l := &Loop{
		gateway:        opts.Gateway,
		display:        opts.Display,
		metrics:        opts.Metrics,
		board:          NewBoard(opts.BoardSize),
		requestTimeout: opts.RequestTimeout,
		inputChan:      make(chan Direction, inputBufferSize),
		cmdChan:        make(chan command, commandBufferSize),
		resultChan:     make(chan result, resultBufferSize),
	}
	l.tickInterval.Store(int64(opts.TickInterval))
	return l
}

func (l *Loop) Metrics() *LoopMetrics { return l.metrics }

func (l *Loop) TickInterval() time.Duration {
	return time.Duration(l.tickInterval.Load())
}

// Start 请求开新局（非阻塞），可在任意时刻调用
func (l *Loop) Start() {
	if l.enqueue(command{kind: cmdStart}) {
		l.metrics.IncStartRequested()
	}
}

// SetTickInterval 热更新 Tick 周期，运行中的定时器在循环协程内重置
func (l *Loop) SetTickInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	l.tickInterval.Store(int64(d))
	l.enqueue(command{kind: cmdSetInterval, interval: d})
}

func (l *Loop) enqueue(cmd command) bool {
	select {
	case l.cmdChan <- cmd:
		return true
	default:
		l.metrics.IncCommandDropped()
		Log.Warnf("command queue full, dropping command %d", cmd.kind)
		return false
	}
}

// Steer 入站方向输入（不立即生效），等循环协程处理
func (l *Loop) Steer(dir Direction) {
	// 不阻塞：输入拥塞时直接丢弃，保证输入端不会卡住
	select {
	case l.inputChan <- dir:
	default:
		l.metrics.IncInputDropped()
	}
}

// Run 运行事件循环直到 ctx 结束
func (l *Loop) Run(ctx context.Context) error {
	l.ctx = ctx
	defer l.shutdown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-l.cmdChan:
			l.handleCommand(cmd)
		case dir := <-l.inputChan:
			l.applyInput(dir)
		case res := <-l.resultChan:
			l.handleResult(res)
		case <-l.tickC():
			l.tick()
		}
	}
}

func (l *Loop) tickC() <-chan time.Time {
	if l.ticker == nil {
		return nil
	}
	return l.ticker.C
}

func (l *Loop) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdStart:
		l.requestStart()
	case cmdSetInterval:
		if l.ticker != nil {
			l.ticker.Reset(cmd.interval)
		}
		Log.Infof("tick interval set to %s", cmd.interval)
	}
}

func (l *Loop) requestStart() {
	l.display.ClearBanners()
	l.startGen++
	gen := l.startGen
	runCtx := l.ctx
	go func() {
		ctx, cancel := context.WithTimeout(runCtx, l.requestTimeout)
		defer cancel()
		res, err := l.gateway.StartGame(ctx)
		l.deliver(result{kind: resultStart, gen: gen, start: res, err: err})
	}()
}

func (l *Loop) deliver(r result) {
	select {
	case l.resultChan <- r:
	case <-l.ctx.Done():
	}
}

func (l *Loop) handleResult(r result) {
	switch r.kind {
	case resultStart:
		l.applyStart(r)
	case resultMove:
		l.applyMove(r)
	}
}

func (l *Loop) applyStart(r result) {
	// 连续点击开始时只采用最后一次请求的结果
	if r.gen != l.startGen {
		l.metrics.IncStale()
		Log.Debugf("discarding superseded start response (gen=%d, latest=%d)", r.gen, l.startGen)
		return
	}
	if r.err != nil {
		l.metrics.IncFailed()
		Log.Warnf("start game failed: %v", r.err)
		l.display.Error(r.err)
		return
	}

	l.endSession()
	l.sessionGen++
	ctx, cancel := context.WithCancel(l.ctx)
	l.sess = &session{
		id:         r.start.GameID,
		gen:        l.sessionGen,
		ctx:        ctx,
		cancel:     cancel,
		controller: NewController(r.start.Direction),
	}

	l.board.Render(r.start.Snake, r.start.Apple)
	l.display.Render(l.board, r.start.Score)

	// 先取消旧定时器再安装新的，同一步内完成，不会有两个定时器共存
	l.stopTimer()
	l.installTimer()
	l.metrics.IncStartApplied()
	Log.Infof("game started: id=%s direction=%s interval=%s", r.start.GameID, r.start.Direction, l.TickInterval())
}

// applyInput 在循环协程内应用方向输入，反向请求被静默忽略
func (l *Loop) applyInput(dir Direction) {
	s := l.sess
	if s == nil || s.over {
		l.metrics.IncInputRejected()
		return
	}
	if !s.controller.Set(dir) {
		l.metrics.IncInputRejected()
		Log.Debugf("input %s rejected (current %s)", dir, s.controller.Current())
		return
	}
	l.metrics.IncInputAccepted()
}

// drainInputs 非阻塞处理已排队的输入，使其对本次 Tick 可见
func (l *Loop) drainInputs() {
	for {
		select {
		case dir := <-l.inputChan:
			l.applyInput(dir)
		default:
			return
		}
	}
}

func (l *Loop) tick() {
	l.drainInputs()
	s := l.sess
	if s == nil || s.over {
		return
	}
	l.metrics.IncTick()

	// 方向在触发时读取，而不是开局时捕获
	dir := s.controller.Current()
	s.moveSeq++
	seq, gen, id, sctx := s.moveSeq, s.gen, s.id, s.ctx
	sent := time.Now()
	l.metrics.IncMoveSent()

	go func() {
		ctx, cancel := context.WithTimeout(sctx, l.requestTimeout)
		defer cancel()
		res, err := l.gateway.SubmitMove(ctx, id, dir)
		l.deliver(result{kind: resultMove, gen: gen, seq: seq, sentAt: sent, move: res, err: err})
	}()
}

func (l *Loop) applyMove(r result) {
	s := l.sess
	// 已结束/被替换的局，或比已应用响应更旧的响应一律丢弃
	if s == nil || r.gen != s.gen || s.over || r.seq <= s.appliedSeq {
		l.metrics.IncStale()
		Log.Debugf("discarding stale move response (gen=%d seq=%d)", r.gen, r.seq)
		return
	}
	if r.err != nil {
		l.metrics.IncFailed()
		Log.Warnf("move failed: game=%s seq=%d: %v", s.id, r.seq, r.err)
		l.display.Error(r.err)
		return
	}
	s.appliedSeq = r.seq
	l.metrics.AddMoveApplied(time.Since(r.sentAt).Nanoseconds())

	m := r.move
	if len(m.Snake) >= l.board.TotalCells() {
		l.finish(s, BoardFullText)
		return
	}
	if m.Status == StatusSuccess {
		l.display.Banner(BannerSuccess, SuccessText(m.Key))
		Log.Infof("reward reached: game=%s score=%d", s.id, m.Score)
	}

	l.board.Render(m.Snake, m.Apple)
	l.display.Render(l.board, m.Score)

	if m.Status == StatusGameOver {
		l.finish(s, GameOverText)
	}
}

// finish 终局：停止定时器、取消在途请求并显示终局横幅
func (l *Loop) finish(s *session, text string) {
	s.over = true
	l.stopTimer()
	s.cancel()
	l.display.Banner(BannerFinal, text)
	Log.Infof("game finished: id=%s: %s", s.id, text)
}

func (l *Loop) installTimer() {
	l.ticker = time.NewTicker(l.TickInterval())
	l.metrics.TimerInstalled()
}

// stopTimer 幂等：没有定时器时为空操作
func (l *Loop) stopTimer() {
	if l.ticker == nil {
		return
	}
	l.ticker.Stop()
	l.ticker = nil
	l.metrics.TimerCancelled()
}

func (l *Loop) endSession() {
	if l.sess != nil {
		l.sess.cancel()
		l.sess = nil
	}
}

func (l *Loop) shutdown() {
	l.stopTimer()
	l.endSession()
}
