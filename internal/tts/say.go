package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/iabetor/speakbutton/internal/logger"
)

// SayEngine 使用 macOS 内置 say 命令合成语音，作为无网络时的备用方案。
// 仅在 macOS 上可用。
type SayEngine struct {
	voice   string // macOS 语音名称，如 "Samantha"
	say     string
	convert string
}

// NewSayEngine 创建 macOS say 引擎。voice 为空时使用系统默认语音。
func NewSayEngine(voice string) *SayEngine {
	return &SayEngine{voice: voice, say: "say", convert: "afconvert"}
}

// Synthesize 先用 say 生成 AIFF，再用 afconvert 转成 16-bit 单声道 WAV 返回。
// 请求中的 Azure 语音名对 say 无意义，始终使用构造时指定的语音。
func (s *SayEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	logger.Debugf("[tts] say: 正在合成 %d 个字符", len([]rune(req.Text)))

	tmpFile, err := os.CreateTemp("", "speakbutton-say-*.aiff")
	if err != nil {
		return nil, fmt.Errorf("[tts] say: 创建临时文件失败: %w", err)
	}
	aiffPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(aiffPath)

	wavPath := aiffPath + ".wav"
	defer os.Remove(wavPath)

	args := []string{"-o", aiffPath}
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	args = append(args, req.Text)
	if err := runQuiet(ctx, s.say, args...); err != nil {
		return nil, fmt.Errorf("[tts] say 执行失败: %w: %w", ErrSynthesisFailed, err)
	}

	if err := runQuiet(ctx, s.convert,
		"-f", "WAVE",
		"-d", "LEI16@22050",
		"-c", "1",
		aiffPath, wavPath,
	); err != nil {
		return nil, fmt.Errorf("[tts] afconvert 执行失败: %w: %w", ErrSynthesisFailed, err)
	}

	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("[tts] say: 读取输出文件失败: %w: %w", ErrSynthesisFailed, err)
	}
	if len(data) <= 44 {
		return nil, fmt.Errorf("[tts] say: 未收到音频数据: %w", ErrSynthesisFailed)
	}

	logger.Debugf("[tts] say: 收到 %d 字节 WAV", len(data))
	return data, nil
}

// runQuiet 执行命令，失败时把 stderr 附在错误里。
func runQuiet(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w, stderr: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
