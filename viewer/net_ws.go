package viewer

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"snakeclient/client"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ClientConn 负责发送（写）数据到浏览器的轻量包装
type ClientConn struct {
	ID   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ID:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）；返回是否入队
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		// 为了实时性丢弃，浏览器会在下一帧拿到完整快照
		return false
	}
}

// Close 关闭底层连接并结束写协程，可重复调用
func (c *ClientConn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取浏览器输入，按连接限流后交给 Controls
func (c *ClientConn) readPump(controls client.Controls, limiter *rate.Limiter, m *HubMetrics) {
	defer c.Close()
	c.ws.SetReadLimit(4 << 10)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.Log.Debugf("viewer %s read error: %v", c.ID, err)
			}
			return
		}
		var im client.InputMessage
		if err := json.Unmarshal(payload, &im); err != nil {
			atomic.AddInt64(&m.Malformed, 1)
			continue
		}
		if !limiter.Allow() {
			atomic.AddInt64(&m.RateLimited, 1)
			continue
		}
		if !client.Dispatch(controls, im) {
			atomic.AddInt64(&m.Malformed, 1)
			continue
		}
		atomic.AddInt64(&m.InputsAccepted, 1)
	}
}

// HandleWS WebSocket 接入：浏览器端的键盘与按钮输入、画面推送
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		client.Log.Warnf("upgrade error: %v", err)
		return
	}

	c := NewClientConn(ws)
	s.hub.Join(c)
	client.Log.Infof("viewer connected: id=%s remote=%s", c.ID, ws.RemoteAddr())

	limiter := rate.NewLimiter(s.inputRate, s.inputBurst)
	go c.writePump()
	go func() {
		defer s.hub.Leave(c)
		defer client.Log.Infof("viewer disconnected: id=%s", c.ID)
		c.readPump(s.loop, limiter, s.hub.Metrics())
	}()
}
