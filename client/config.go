package client

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 客户端运行配置：默认值 <- 环境变量（含 .env）<- 命令行参数
type Config struct {
	ServerURL      string
	TickInterval   time.Duration
	BoardSize      int
	RequestTimeout time.Duration
	KeyCount       int // >0 时开局前访问 /snake?count=N 以获得奖励 key
	ViewerAddr     string
	LogFile        string
	LogLevel       string
	Terminal       bool
	InputRate      int // 每个浏览器连接每秒允许的输入数
	InputBurst     int
}

func DefaultConfig() Config {
	return Config{
		ServerURL:      "http://localhost:8000",
		TickInterval:   DefaultTickInterval,
		BoardSize:      BoardSize,
		RequestTimeout: DefaultRequestTimeout,
		ViewerAddr:     ":8090",
		LogFile:        "snakeclient.log",
		LogLevel:       "info",
		Terminal:       true,
		InputRate:      20,
		InputBurst:     10,
	}
}

// LoadConfig 读取 .env（可选）与环境变量
func LoadConfig(envFiles ...string) Config {
	_ = godotenv.Load(envFiles...)

	def := DefaultConfig()
	return Config{
		ServerURL:      getEnvString("SNAKE_SERVER_URL", def.ServerURL),
		TickInterval:   getEnvDuration("SNAKE_TICK_INTERVAL", def.TickInterval),
		BoardSize:      getEnvInt("SNAKE_BOARD_SIZE", def.BoardSize),
		RequestTimeout: getEnvDuration("SNAKE_REQUEST_TIMEOUT", def.RequestTimeout),
		KeyCount:       getEnvInt("SNAKE_KEY_COUNT", def.KeyCount),
		ViewerAddr:     getEnvString("SNAKE_VIEWER_ADDR", def.ViewerAddr),
		LogFile:        getEnvString("SNAKE_LOG_FILE", def.LogFile),
		LogLevel:       getEnvString("SNAKE_LOG_LEVEL", def.LogLevel),
		Terminal:       getEnvBool("SNAKE_TERMINAL", def.Terminal),
		InputRate:      getEnvInt("SNAKE_INPUT_RATE", def.InputRate),
		InputBurst:     getEnvInt("SNAKE_INPUT_BURST", def.InputBurst),
	}
}

func getEnvString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		Log.Warnf("Invalid duration for %s: %q, using default %v", key, val, fallback)
		return fallback
	}
	return d
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		Log.Warnf("Invalid int for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return i
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		Log.Warnf("Invalid bool for %s: %v, using default %t", key, err, fallback)
		return fallback
	}
	return b
}
