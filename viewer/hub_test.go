package viewer

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snakeclient/client"
)

// fakeLoop 记录来自浏览器的操作
type fakeLoop struct {
	mu       sync.Mutex
	starts   int
	steers   []client.Direction
	interval time.Duration
	metrics  client.LoopMetrics
}

func (f *fakeLoop) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

func (f *fakeLoop) Steer(d client.Direction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steers = append(f.steers, d)
}

func (f *fakeLoop) TickInterval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

func (f *fakeLoop) SetTickInterval(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interval = d
}

func (f *fakeLoop) Metrics() *client.LoopMetrics { return &f.metrics }

func (f *fakeLoop) recorded() (int, []client.Direction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, append([]client.Direction(nil), f.steers...)
}

func newTestServer(t *testing.T, opts Options) (*Server, *fakeLoop, string) {
	t.Helper()
	loop := &fakeLoop{interval: client.DefaultTickInterval}
	opts.Loop = loop
	s := NewServer(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, loop, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_ReplaysLatestFrameOnJoin(t *testing.T) {
	s, _, url := newTestServer(t, Options{})
	board := client.NewBoard(client.BoardSize)
	board.Render([]client.Coord{{Row: 10, Col: 9}, {Row: 10, Col: 10}}, client.Coord{Row: 5, Col: 5})
	s.Hub().Render(board, 0)
	s.Hub().Banner(client.BannerSuccess, client.SuccessText(""))

	conn := dial(t, url)

	f := readFrame(t, conn)
	assert.Equal(t, "board", f.Type)
	assert.Equal(t, client.BoardSize, f.Size)
	assert.Equal(t, "Score: 0", f.Score)
	assert.ElementsMatch(t, []client.MarkedCell{
		{ID: "cell-10-9", Class: "snake"},
		{ID: "cell-10-10", Class: "snake"},
		{ID: "cell-5-5", Class: "apple"},
	}, f.Cells)

	f = readFrame(t, conn)
	assert.Equal(t, Frame{Type: "banner", Kind: "success", Text: "Success! Your key: No key available"}, f)
}

func TestHub_BroadcastsToConnectedViewers(t *testing.T) {
	s, _, url := newTestServer(t, Options{})
	a, b := dial(t, url), dial(t, url)
	require.Eventually(t, func() bool {
		return s.Hub().Metrics().Snapshot()["connections"] == int64(2)
	}, 2*time.Second, 5*time.Millisecond)

	s.Hub().Banner(client.BannerFinal, client.GameOverText)
	s.Hub().ClearBanners()

	for _, conn := range []*websocket.Conn{a, b} {
		assert.Equal(t, Frame{Type: "banner", Kind: "final", Text: "Game Over!"}, readFrame(t, conn))
		assert.Equal(t, Frame{Type: "clear"}, readFrame(t, conn))
	}
}

func TestHub_InputsReachLoop(t *testing.T) {
	s, loop, url := newTestServer(t, Options{InputRate: 100, InputBurst: 100})
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(client.InputMessage{Type: "start"}))
	require.NoError(t, conn.WriteJSON(client.InputMessage{Type: "move", Command: "ArrowLeft"}))
	require.NoError(t, conn.WriteJSON(client.InputMessage{Type: "move", Command: "UP"}))
	require.NoError(t, conn.WriteJSON(client.InputMessage{Type: "move", Command: "sideways"}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	require.Eventually(t, func() bool {
		return s.Hub().Metrics().Snapshot()["malformed"] == int64(2)
	}, 2*time.Second, 5*time.Millisecond)

	starts, steers := loop.recorded()
	assert.Equal(t, 1, starts)
	assert.Equal(t, []client.Direction{client.DirLeft, client.DirUp}, steers)
	assert.Equal(t, int64(3), s.Hub().Metrics().Snapshot()["inputs_accepted"])
}

func TestHub_RateLimitsInputs(t *testing.T) {
	s, loop, url := newTestServer(t, Options{InputRate: 1, InputBurst: 2})
	conn := dial(t, url)

	for i := 0; i < 6; i++ {
		require.NoError(t, conn.WriteJSON(client.InputMessage{Type: "move", Command: "ArrowRight"}))
	}
	require.Eventually(t, func() bool {
		snap := s.Hub().Metrics().Snapshot()
		return snap["inputs_accepted"].(int64)+snap["rate_limited"].(int64) == 6
	}, 2*time.Second, 5*time.Millisecond)

	_, steers := loop.recorded()
	assert.GreaterOrEqual(t, len(steers), 2)
	assert.Less(t, len(steers), 6)
}

func TestHub_LeaveOnDisconnect(t *testing.T) {
	s, _, url := newTestServer(t, Options{})
	conn := dial(t, url)
	require.Eventually(t, func() bool {
		return s.Hub().Metrics().Snapshot()["connections"] == int64(1)
	}, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return s.Hub().Metrics().Snapshot()["connections"] == int64(0)
	}, 2*time.Second, 5*time.Millisecond)
}
