package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iabetor/speakbutton/internal/logger"
)

// Output 是阻塞式音频输出设备，Player 是其 malgo 实现。
type Output interface {
	// Play 播放单声道样本，直到播放结束或 ctx 被取消。
	Play(ctx context.Context, samples []float32, sampleRate int) error
}

// Loader 把合成得到的音频负载装载为可播放的 Handle。
type Loader struct {
	out Output
}

// NewLoader 创建使用指定输出设备的 Loader。
func NewLoader(out Output) *Loader {
	return &Loader{out: out}
}

// Load 解码音频数据并返回一个尚未开始播放的 Handle。
func (l *Loader) Load(data []byte) (*Handle, error) {
	samples, sampleRate, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("[audio] 音频数据为空: %w", ErrUnsupportedFormat)
	}
	logger.Debugf("[audio] 已装载 %d 个样本 (%d Hz)", len(samples), sampleRate)

	return &Handle{
		out:        l.out,
		samples:    samples,
		sampleRate: sampleRate,
		done:       make(chan struct{}),
	}, nil
}

// Handle 持有一段已装载的音频。
//
// Play 最多生效一次；Stop 立即停止并释放，之后的所有调用都是空操作；
// OnEnded 注册的回调只在自然播放结束时触发一次，调用 Stop 后永不触发。
type Handle struct {
	out        Output
	samples    []float32
	sampleRate int

	mu       sync.Mutex
	cancel   context.CancelFunc
	started  bool
	released bool
	onEnded  func()
	done     chan struct{}
}

// Play 在后台开始播放。重复调用或对已释放的 Handle 调用不产生效果。
func (h *Handle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released || h.started {
		return nil
	}
	if h.out == nil {
		return errors.New("[audio] 未配置音频输出")
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.started = true

	go h.run(ctx)
	return nil
}

func (h *Handle) run(ctx context.Context) {
	defer close(h.done)

	err := h.out.Play(ctx, h.samples, h.sampleRate)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warnf("[audio] 播放出错，按结束处理: %v", err)
	}

	h.mu.Lock()
	if h.released {
		// 已被 Stop，不通知结束
		h.mu.Unlock()
		return
	}
	h.released = true
	h.cancel()
	fn := h.onEnded
	h.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop 立即停止播放并释放 Handle。
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	if h.cancel != nil {
		h.cancel()
	} else {
		// 从未开始播放，直接标记完成
		close(h.done)
	}
}

// OnEnded 注册自然播放结束时的回调。应在 Play 之前调用。
func (h *Handle) OnEnded(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return
	}
	h.onEnded = fn
}

// Released 返回 Handle 是否已经释放。
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Done 在后台播放协程退出（或未播放即被释放）后关闭。
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
