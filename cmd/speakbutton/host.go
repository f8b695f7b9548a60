package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/iabetor/speakbutton/internal/control"
	"github.com/iabetor/speakbutton/internal/icon"
	"github.com/iabetor/speakbutton/internal/logger"
)

// fileHost 把按钮图形写入 SVG 文件，并记录 Controller 回传的输出。
// 回调在 Controller 的锁内执行，这里只做记录，回传由 session 在下次推送时完成。
type fileHost struct {
	path string

	mu   sync.Mutex
	last control.Outputs
	seen bool
}

func newFileHost(path string) *fileHost {
	return &fileHost{path: path}
}

func (h *fileHost) OutputsChanged(out control.Outputs) {
	h.mu.Lock()
	h.last, h.seen = out, true
	h.mu.Unlock()
	logger.Infof("[host] state=%s auto_speak=%v", out.State, out.AutoSpeak)
}

func (h *fileHost) Draw(d icon.Drawable) {
	if h.path == "" {
		return
	}
	// 先写临时文件再改名，查看器不会读到半截文件
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(d.SVG()), 0644); err != nil {
		logger.Warnf("[host] 写入 SVG 失败: %v", err)
		return
	}
	if err := os.Rename(tmp, h.path); err != nil {
		logger.Warnf("[host] 替换 SVG 失败: %v", err)
		os.Remove(tmp)
		return
	}
	logger.Debugf("[host] 已绘制 %s → %s", d.Shape, filepath.Base(h.path))
}

// outputs 返回最近一次回传的输出；尚未回传过时 ok 为 false。
func (h *fileHost) outputs() (out control.Outputs, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.seen
}

// session 模拟宿主的双向绑定：命令修改配置，推送前先写回 Controller 的输出。
type session struct {
	ctrl *control.Controller
	host *fileHost
	cfg  control.Config
}

func newSession(ctrl *control.Controller, host *fileHost, cfg control.Config) *session {
	return &session{ctrl: ctrl, host: host, cfg: cfg}
}

// echo 把 Controller 最近回传的输出写回配置。
func (s *session) echo() {
	if out, ok := s.host.outputs(); ok {
		s.cfg.State = out.State.String()
		s.cfg.AutoSpeak = out.AutoSpeak
	}
}

// push 把当前配置推送给 Controller。
func (s *session) push() {
	s.echo()
	s.ctrl.Update(s.cfg)
}

// handle 执行一行命令，返回是否应退出。
func (s *session) handle(line string) (bool, error) {
	// 回传写在修改之前，命令对 AutoSpeak 的修改才不会被覆盖
	s.echo()

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "", "click":
		s.ctrl.Activate()
		return false, nil
	case "quit", "exit":
		return true, nil
	case "state":
		out := s.ctrl.Outputs()
		fmt.Printf("state=%s auto_speak=%v\n", out.State, out.AutoSpeak)
		return false, nil
	}

	if err := applyCommand(&s.cfg, cmd, arg); err != nil {
		return false, err
	}
	s.ctrl.Update(s.cfg)
	return false, nil
}

// applyCommand 按命令修改配置快照。
func applyCommand(cfg *control.Config, cmd, arg string) error {
	switch cmd {
	case "text":
		cfg.Text = arg
	case "voice":
		cfg.Voice = arg
	case "lang":
		cfg.Language = arg
	case "stroke":
		cfg.Stroke = arg
	case "auto":
		cfg.AutoSpeak = true
	case "size":
		w, h, ok := strings.Cut(arg, " ")
		if !ok {
			return fmt.Errorf("用法: size <宽> <高>")
		}
		width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return fmt.Errorf("无效的宽度 %q: %w", w, err)
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return fmt.Errorf("无效的高度 %q: %w", h, err)
		}
		cfg.Width, cfg.Height = width, height
	default:
		return fmt.Errorf("未知命令: %s", cmd)
	}
	return nil
}
