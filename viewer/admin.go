package viewer

import (
	"encoding/json"
	"net/http"
	"time"

	"snakeclient/client"
)

// HandleAdminConfig 读取与热更新 Tick 周期
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新：{"tickIntervalMs":350}
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		TickIntervalMs *int64 `json:"tickIntervalMs,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		ms := s.loop.TickInterval().Milliseconds()
		writeJSON(w, cfg{TickIntervalMs: &ms})
		return
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.TickIntervalMs != nil {
			if *body.TickIntervalMs < minTickIntervalMs {
				http.Error(w, "tickIntervalMs too small", http.StatusBadRequest)
				return
			}
			if *body.TickIntervalMs > maxTickIntervalMs {
				http.Error(w, "tickIntervalMs too large", http.StatusBadRequest)
				return
			}
			s.loop.SetTickInterval(time.Duration(*body.TickIntervalMs) * time.Millisecond)
		}
		writeJSON(w, map[string]any{"ok": true})
		client.Log.Infof("config updated: tickInterval=%s", s.loop.TickInterval())
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出循环与浏览器连接的运行指标
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"tick_interval_ms": s.loop.TickInterval().Milliseconds(),
		"loop":             s.loop.Metrics().Snapshot(),
		"viewer":           s.hub.Metrics().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		client.Log.Errorf("failed to encode response: %v", err)
	}
}
