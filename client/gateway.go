package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RouteOpen  = "/snake"
	RouteStart = "/snake/start"
	RouteMove  = "/snake/move"

	DefaultRequestTimeout = 5 * time.Second
)

// Gateway 服务端权威的两个操作；每次响应都是完整快照
type Gateway interface {
	StartGame(ctx context.Context) (*StartResult, error)
	SubmitMove(ctx context.Context, gameID string, dir Direction) (*MoveResult, error)
}

// HTTPGateway 通过 HTTP/JSON 访问服务端
type HTTPGateway struct {
	baseURL   string
	boardSize int
	client    *http.Client
}

type NewHTTPGatewayOptions struct {
	BaseURL   string
	BoardSize int
	Timeout   time.Duration
	// Client 可选；为空时创建带 cookie jar 的客户端（奖励 key 保存在服务端 session 中）
	Client *http.Client
}

func NewHTTPGateway(opts NewHTTPGatewayOptions) (*HTTPGateway, error) {
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", opts.BaseURL, err)
	}
	if opts.BoardSize <= 0 {
		opts.BoardSize = BoardSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	hc := opts.Client
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		hc = &http.Client{Jar: jar, Timeout: opts.Timeout}
	}
	return &HTTPGateway{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		boardSize: opts.BoardSize,
		client:    hc,
	}, nil
}

// OpenSession 访问游戏主页，服务端据 count 计算奖励 key 并写入 session cookie
func (g *HTTPGateway) OpenSession(ctx context.Context, count int) error {
	u := g.baseURL + RouteOpen + "?count=" + strconv.Itoa(count)
	resp, err := g.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	Log.Debugf("session opened: count=%d cookies=%d", count, len(resp.Cookies()))
	return nil
}

type startPayload struct {
	GameID    *string    `json:"game_id"`
	Direction *Direction `json:"direction"`
	Snake     []Coord    `json:"snake"`
	Apple     *Coord     `json:"apple"`
	Score     *int       `json:"score"`
}

type movePayload struct {
	Snake  []Coord `json:"snake"`
	Apple  *Coord  `json:"apple"`
	Score  *int    `json:"score"`
	Status Status  `json:"status,omitempty"`
	Key    *string `json:"key,omitempty"`
}

type moveRequest struct {
	GameID    string    `json:"game_id"`
	Direction Direction `json:"direction"`
}

func (g *HTTPGateway) StartGame(ctx context.Context) (*StartResult, error) {
	var p startPayload
	if err := g.postJSON(ctx, RouteStart, nil, &p); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	switch {
	case p.GameID == nil || *p.GameID == "":
		return nil, fmt.Errorf("start game: %w", malformed("missing game_id"))
	case p.Direction == nil:
		return nil, fmt.Errorf("start game: %w", malformed("missing direction"))
	}
	if err := g.validateBoard(p.Snake, p.Apple, p.Score); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	return &StartResult{
		GameID:    *p.GameID,
		Direction: *p.Direction,
		Snake:     p.Snake,
		Apple:     *p.Apple,
		Score:     *p.Score,
	}, nil
}

func (g *HTTPGateway) SubmitMove(ctx context.Context, gameID string, dir Direction) (*MoveResult, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("submit move: %w", errInvalidDirection)
	}
	var p movePayload
	if err := g.postJSON(ctx, RouteMove, &moveRequest{GameID: gameID, Direction: dir}, &p); err != nil {
		return nil, fmt.Errorf("submit move: %w", err)
	}
	if !p.Status.known() {
		return nil, fmt.Errorf("submit move: %w", malformed("unknown status %q", p.Status))
	}
	if err := g.validateBoard(p.Snake, p.Apple, p.Score); err != nil {
		return nil, fmt.Errorf("submit move: %w", err)
	}
	res := &MoveResult{
		Snake:  p.Snake,
		Apple:  *p.Apple,
		Score:  *p.Score,
		Status: p.Status,
	}
	if p.Key != nil {
		res.Key = *p.Key
	}
	return res, nil
}

func (g *HTTPGateway) validateBoard(snake []Coord, apple *Coord, score *int) error {
	switch {
	case len(snake) == 0:
		return malformed("missing snake")
	case apple == nil:
		return malformed("missing apple")
	case score == nil:
		return malformed("missing score")
	}
	for i, c := range snake {
		if !c.In(g.boardSize) {
			return malformed("snake[%d] %v outside %dx%d board", i, c, g.boardSize, g.boardSize)
		}
	}
	if !apple.In(g.boardSize) {
		return malformed("apple %v outside %dx%d board", *apple, g.boardSize, g.boardSize)
	}
	return nil
}

func (g *HTTPGateway) postJSON(ctx context.Context, route string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	resp, err := g.do(ctx, http.MethodPost, g.baseURL+route, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformed("decode body: %v", err)
	}
	return nil
}

// do 发送请求；非 2xx 转换为 *StatusError（FastAPI 的 detail 字段作为说明）
func (g *HTTPGateway) do(ctx context.Context, method, u string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	Log.Debugf("%s %s -> %d (%s, req=%s)", method, req.URL.Path, resp.StatusCode, time.Since(start), reqID)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var fastapi struct {
		Detail any `json:"detail"`
	}
	detail := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &fastapi) == nil && fastapi.Detail != nil {
		if s, ok := fastapi.Detail.(string); ok {
			detail = s
		} else if b, err := json.Marshal(fastapi.Detail); err == nil {
			detail = string(b)
		}
	}
	return &StatusError{Code: resp.StatusCode, Detail: detail}
}
