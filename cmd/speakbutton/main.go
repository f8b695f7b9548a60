package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/iabetor/speakbutton/internal/audio"
	"github.com/iabetor/speakbutton/internal/config"
	"github.com/iabetor/speakbutton/internal/control"
	"github.com/iabetor/speakbutton/internal/database"
	"github.com/iabetor/speakbutton/internal/logger"
	"github.com/iabetor/speakbutton/internal/tts"
)

func main() {
	configPath := flag.String("config", "configs/speakbutton.yaml", "配置文件路径")
	svgPath := flag.String("svg", "speakbutton.svg", "按钮图形输出路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infof("[main] speakbutton 启动中 (engine=%s, log_level=%s)", cfg.TTS.Engine, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在关闭...", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *svgPath, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("[main] 运行出错: %v", err)
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("[main] speakbutton 已停止")
}

// run 组装引擎、播放器和 Controller，并处理 in 中的命令直到 quit、EOF 或 ctx 取消。
func run(ctx context.Context, cfg *config.Config, svgPath string, in io.Reader) error {
	engine, cleanup, err := newEngine(cfg.TTS)
	if err != nil {
		return err
	}
	defer cleanup()

	player, err := audio.NewPlayer(cfg.Audio.Channels)
	if err != nil {
		return fmt.Errorf("创建播放器失败: %w", err)
	}
	defer player.Close()

	host := newFileHost(svgPath)
	ctrl := control.New(engine, control.FromAudio(audio.NewLoader(player)), host)
	defer ctrl.Close()

	s := newSession(ctrl, host, initialConfig(cfg))
	s.push()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := s.handle(line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				continue
			}
			if quit {
				return nil
			}
		}
	}
}

// newEngine 创建配置的合成引擎，开启缓存时包一层 SQLite 缓存。
// 返回的 cleanup 关闭引擎及缓存数据库。
func newEngine(cfg config.TTSConfig) (tts.Engine, func(), error) {
	engine, err := tts.NewEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled {
		return engine, func() { closeEngine(engine) }, nil
	}

	db, err := database.Open(cfg.Cache.Path)
	if err != nil {
		closeEngine(engine)
		return nil, nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		closeEngine(engine)
		return nil, nil, err
	}
	name := cfg.Engine
	if name == "" {
		name = "azure"
	}
	logger.Infof("[main] 合成缓存已启用: %s", db.Path())

	cached := tts.NewCachedEngine(engine, db, name)
	return cached, func() {
		closeEngine(cached)
		db.Close()
	}, nil
}

func closeEngine(engine tts.Engine) {
	if c, ok := engine.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warnf("[main] 关闭合成引擎失败: %v", err)
		}
	}
}

// initialConfig 把配置文件中的控件参数和 Azure 凭据组装成首个快照。
func initialConfig(cfg *config.Config) control.Config {
	return control.Config{
		Text:            cfg.Control.Text,
		SubscriptionKey: cfg.TTS.Azure.SubscriptionKey,
		Region:          cfg.TTS.Azure.Region,
		Language:        cfg.Control.Language,
		Voice:           cfg.Control.Voice,
		AutoSpeak:       cfg.Control.AutoSpeak,
		Stroke:          cfg.Control.Stroke,
		Width:           cfg.Control.Width,
		Height:          cfg.Control.Height,
	}
}
