package viewer

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"snakeclient/client"
)

var _ client.Display = (*Hub)(nil)

// Frame 推送给浏览器的消息
// type: board | banner | clear | error
type Frame struct {
	Type  string              `json:"type"`
	Size  int                 `json:"size,omitempty"`
	Cells []client.MarkedCell `json:"cells,omitempty"`
	Score string              `json:"score,omitempty"`
	Kind  string              `json:"kind,omitempty"`
	Text  string              `json:"text,omitempty"`
}

// HubMetrics 浏览器侧连接与输入统计
type HubMetrics struct {
	Connections    int64
	InputsAccepted int64
	RateLimited    int64
	Malformed      int64
	FramesDropped  int64
}

func (m *HubMetrics) Snapshot() map[string]any {
	return map[string]any{
		"connections":     atomic.LoadInt64(&m.Connections),
		"inputs_accepted": atomic.LoadInt64(&m.InputsAccepted),
		"rate_limited":    atomic.LoadInt64(&m.RateLimited),
		"malformed":       atomic.LoadInt64(&m.Malformed),
		"frames_dropped":  atomic.LoadInt64(&m.FramesDropped),
	}
}

// Hub 将棋盘与横幅广播给所有已连接的浏览器，并为新连接补发最新画面
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*ClientConn
	board   []byte
	banners map[client.BannerKind][]byte

	metrics HubMetrics
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*ClientConn),
		banners: make(map[client.BannerKind][]byte),
	}
}

func (h *Hub) Metrics() *HubMetrics { return &h.metrics }

// Join 注册连接并补发当前画面
func (h *Hub) Join(c *ClientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	atomic.AddInt64(&h.metrics.Connections, 1)
	if h.board != nil {
		c.Enqueue(h.board)
	}
	for _, kind := range []client.BannerKind{client.BannerSuccess, client.BannerFinal} {
		if b, ok := h.banners[kind]; ok {
			c.Enqueue(b)
		}
	}
}

func (h *Hub) Leave(c *ClientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		atomic.AddInt64(&h.metrics.Connections, -1)
	}
}

func (h *Hub) Render(board *client.Board, score int) {
	b := h.encode(Frame{
		Type:  "board",
		Size:  board.Size(),
		Cells: board.Cells(),
		Score: client.ScoreText(score),
	})
	h.mu.Lock()
	h.board = b
	h.mu.Unlock()
	h.broadcast(b)
}

func (h *Hub) Banner(kind client.BannerKind, text string) {
	b := h.encode(Frame{Type: "banner", Kind: string(kind), Text: text})
	h.mu.Lock()
	h.banners[kind] = b
	h.mu.Unlock()
	h.broadcast(b)
}

func (h *Hub) ClearBanners() {
	h.mu.Lock()
	clear(h.banners)
	h.mu.Unlock()
	h.broadcast(h.encode(Frame{Type: "clear"}))
}

func (h *Hub) Error(err error) {
	h.broadcast(h.encode(Frame{Type: "error", Text: err.Error()}))
}

func (h *Hub) encode(f Frame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		client.Log.Errorf("failed to encode %s frame: %v", f.Type, err)
		return nil
	}
	return b
}

func (h *Hub) broadcast(b []byte) {
	if b == nil {
		return
	}
	h.mu.RLock()
	conns := lo.Values(h.clients)
	h.mu.RUnlock()
	for _, c := range conns {
		if !c.Enqueue(b) {
			atomic.AddInt64(&h.metrics.FramesDropped, 1)
		}
	}
}
