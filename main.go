package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"snakeclient/client"
	"snakeclient/viewer"
)

// snakeclient 入口：连接贪吃蛇服务端，终端与浏览器共用同一游戏循环
func main() {
	cfg := client.LoadConfig()
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "snake server base url")
	flag.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "interval between move requests")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request timeout")
	flag.IntVar(&cfg.KeyCount, "count", cfg.KeyCount, "open /snake?count=N before playing so the server can issue a reward key (0 disables)")
	flag.StringVar(&cfg.ViewerAddr, "viewer", cfg.ViewerAddr, "browser viewer listen address, empty disables")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file path, empty disables file logging")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.Terminal, "terminal", cfg.Terminal, "render the board and read keys on this terminal")
	flag.Parse()

	// 终端不画棋盘时，日志同时输出到 stderr
	cfg.Terminal = cfg.Terminal && term.IsTerminal(int(os.Stdin.Fd()))
	logOpts := client.LoggerOptions{File: cfg.LogFile, Level: cfg.LogLevel}
	if !cfg.Terminal {
		logOpts.Console = os.Stderr
	}
	if err := client.InitLogger(logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer client.SyncLogger()

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, client.ErrQuit) {
		client.Log.Errorf("snakeclient: %v", err)
		fmt.Fprintf(os.Stderr, "snakeclient: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg client.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := client.NewHTTPGateway(client.NewHTTPGatewayOptions{
		BaseURL:   cfg.ServerURL,
		BoardSize: cfg.BoardSize,
		Timeout:   cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}
	if cfg.KeyCount > 0 {
		if err := gateway.OpenSession(ctx, cfg.KeyCount); err != nil {
			// 没有 session 也能玩，只是拿不到奖励 key
			client.Log.Warnf("failed to open session: %v", err)
		}
	}

	var displays client.MultiDisplay
	useTerminal := cfg.Terminal
	if useTerminal {
		displays = append(displays, client.NewTerminalDisplay(os.Stdout))
	}
	var hub *viewer.Hub
	if cfg.ViewerAddr != "" {
		hub = viewer.NewHub()
		displays = append(displays, hub)
	}
	if len(displays) == 0 {
		return errors.New("nothing to play on: enable the terminal or the viewer")
	}

	loop := client.NewLoop(client.LoopOptions{
		Gateway:        gateway,
		Display:        displays,
		BoardSize:      cfg.BoardSize,
		TickInterval:   cfg.TickInterval,
		RequestTimeout: cfg.RequestTimeout,
	})

	if hub != nil {
		srv := viewer.NewServer(viewer.Options{
			Addr:       cfg.ViewerAddr,
			Loop:       loop,
			Hub:        hub,
			InputRate:  cfg.InputRate,
			InputBurst: cfg.InputBurst,
		})
		go func() {
			if err := srv.Start(); err != nil {
				client.Log.Errorf("viewer: %v", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(sctx); err != nil {
				client.Log.Warnf("viewer shutdown: %v", err)
			}
		}()
	}

	if useTerminal {
		state, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer term.Restore(int(os.Stdin.Fd()), state)

		go func() {
			err := client.ReadKeys(ctx, os.Stdin, loop)
			if err != nil && !errors.Is(err, client.ErrQuit) {
				client.Log.Warnf("keyboard: %v", err)
			}
			stop()
		}()
		// 终端模式直接开局，之后按 n 重新开始
		loop.Start()
	}

	client.Log.Infof("snakeclient started: server=%s tick=%s viewer=%q", cfg.ServerURL, cfg.TickInterval, cfg.ViewerAddr)
	err = loop.Run(ctx)
	client.Log.Info("Shutting down...")
	return err
}
