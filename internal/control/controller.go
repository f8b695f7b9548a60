// Package control 实现朗读按钮的播放状态机。
//
// Controller 串联宿主推送的配置、用户点击、合成服务和音频播放，
// 并在每次状态变化时通知宿主、重绘按钮。
package control

import (
	"context"
	"sync"

	"github.com/iabetor/speakbutton/internal/audio"
	"github.com/iabetor/speakbutton/internal/icon"
	"github.com/iabetor/speakbutton/internal/logger"
	"github.com/iabetor/speakbutton/internal/tts"
)

// Config 是宿主每个更新周期推送的配置快照。
// 所有字段都可比较，变化检测就是与上一次快照做 ==。
type Config struct {
	Text string
	// State 是宿主回传的状态，只参与变化检测，不会改变 Controller 的状态。
	State           string
	SubscriptionKey string
	Region          string
	Language        string
	Voice           string
	AutoSpeak       bool
	Stroke          string
	Width           float64
	Height          float64
}

// Outputs 是回传给宿主的值。
type Outputs struct {
	State     State
	AutoSpeak bool
}

// Host 接收 Controller 的输出。回调在 Controller 的锁内执行，
// 实现方不能在回调中同步调用 Controller 的方法。
type Host interface {
	OutputsChanged(out Outputs)
	Draw(d icon.Drawable)
}

// Speaker 是一段已装载、可播放的音频，audio.Handle 是其实现。
// 实现必须是可比较的类型（通常是指针）。
type Speaker interface {
	Play() error
	Stop()
	OnEnded(fn func())
}

// AudioLoader 把合成结果装载为 Speaker。
type AudioLoader interface {
	Load(data []byte) (Speaker, error)
}

// LoaderFunc 让普通函数实现 AudioLoader。
type LoaderFunc func(data []byte) (Speaker, error)

// Load 调用 f。
func (f LoaderFunc) Load(data []byte) (Speaker, error) { return f(data) }

// FromAudio 把 audio.Loader 适配为 AudioLoader。
func FromAudio(l *audio.Loader) AudioLoader {
	return LoaderFunc(func(data []byte) (Speaker, error) {
		h, err := l.Load(data)
		if err != nil {
			return nil, err
		}
		return h, nil
	})
}

// Controller 持有一个控件实例的全部状态。
//
// 所有事件（配置更新、激活、合成完成、播放结束）都在同一把锁内串行处理。
// 任何时刻最多只有一个合成请求在途、一个 Speaker 存活。
type Controller struct {
	engine tts.Engine
	loader AudioLoader
	host   Host

	// ctx 在 Close 时取消，在途的合成请求会收到取消信号
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	cfg         Config
	initialised bool
	state       State
	autoSpeak   bool
	generation  uint64
	speaker     Speaker
	closed      bool
}

// New 创建 Controller。host 为 nil 时输出会被丢弃。
func New(engine tts.Engine, loader AudioLoader, host Host) *Controller {
	if host == nil {
		host = nopHost{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		engine: engine,
		loader: loader,
		host:   host,
		ctx:    ctx,
		cancel: cancel,
		state:  StateWaiting,
	}
}

// Update 应用宿主推送的配置。与上次快照相同的配置被忽略；
// 否则重绘按钮，并在 AutoSpeak 被置位时自动激活一次。
func (c *Controller) Update(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || (c.initialised && cfg == c.cfg) {
		return
	}

	prev, first := c.cfg, !c.initialised
	c.cfg = cfg
	c.initialised = true

	// AutoSpeak 是一次性触发：只有从 false 变为 true（或首次配置即为 true）时才置位，
	// 宿主一直保持 true 不会重复触发。
	switch {
	case !cfg.AutoSpeak:
		c.autoSpeak = false
	case first || !prev.AutoSpeak:
		c.autoSpeak = true
	}

	if first {
		logger.Debugf("[control] 首次渲染 (%vx%v)", cfg.Width, cfg.Height)
	}
	c.draw()

	if c.autoSpeak {
		c.autoActivate()
	}
}

// Activate 处理一次点击：空闲时开始合成，播放中则停止，加载中忽略。
func (c *Controller) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.activate("click")
}

// State 返回当前状态。
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outputs 返回当前应回传给宿主的值。
func (c *Controller) Outputs() Outputs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputs()
}

// Close 停止播放，并丢弃之后到达的合成结果。会等待在途请求的协程退出。
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.releaseSpeaker()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	logger.Debugf("[control] 已关闭")
}

// autoActivate 消费 AutoSpeak 标志。文本为空时标志保留，等待文本到达。
func (c *Controller) autoActivate() {
	switch c.state {
	case StateLoading, StateSpeaking:
		logger.Debugf("[control] %s 状态下忽略自动朗读", c.state)
		c.autoSpeak = false
		c.emit()
	default:
		c.activate("auto")
	}
}

// activate 必须在持有锁时调用，点击和自动朗读共用同一套守卫。
func (c *Controller) activate(source string) {
	if c.cfg.Text == "" {
		logger.Debugf("[control] 文本为空，忽略激活 (%s)", source)
		return
	}

	switch c.state {
	case StateLoading:
		logger.Debugf("[control] 正在加载，忽略激活 (%s)", source)
		return
	case StateSpeaking:
		logger.Infof("[control] 停止播放 (%s)", source)
		c.releaseSpeaker()
		c.transition(StateIdle)
		return
	}

	c.autoSpeak = false
	c.generation++
	req := tts.NewRequest(c.cfg.Text, c.cfg.Language, c.cfg.Voice, tts.Credentials{
		Key:    c.cfg.SubscriptionKey,
		Region: c.cfg.Region,
	})
	logger.Infof("[control] 开始合成 %d 个字符 (%s)，请求=%s", len([]rune(req.Text)), source, req.ID)

	c.transition(StateLoading)

	c.wg.Add(1)
	go c.synthesize(c.generation, req)
}

// synthesize 在独立协程中调用合成服务，完成后回到锁内推进状态。
func (c *Controller) synthesize(gen uint64, req tts.Request) {
	defer c.wg.Done()

	data, err := c.engine.Synthesize(c.ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.generation || c.state != StateLoading {
		logger.Debugf("[control] 丢弃过期的合成结果，请求=%s", req.ID)
		return
	}
	if err != nil {
		logger.Warnf("[control] 合成失败，请求=%s: %v", req.ID, err)
		c.transition(StateIdle)
		return
	}

	sp, err := c.loader.Load(data)
	if err != nil {
		logger.Warnf("[control] 装载音频失败，请求=%s: %v", req.ID, err)
		c.transition(StateIdle)
		return
	}
	// 先注册回调再播放，避免错过很短的音频的结束事件
	sp.OnEnded(func() { c.playbackEnded(sp) })
	if err := sp.Play(); err != nil {
		sp.Stop()
		logger.Warnf("[control] 开始播放失败，请求=%s: %v", req.ID, err)
		c.transition(StateIdle)
		return
	}

	c.speaker = sp
	c.transition(StateSpeaking)
}

// playbackEnded 处理自然播放结束，只对当前 Speaker 生效。
func (c *Controller) playbackEnded(sp Speaker) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.speaker != sp || c.state != StateSpeaking {
		return
	}
	logger.Debugf("[control] 播放结束")
	c.speaker = nil
	c.transition(StateIdle)
}

func (c *Controller) releaseSpeaker() {
	if c.speaker != nil {
		c.speaker.Stop()
		c.speaker = nil
	}
}

// transition 切换状态，通知宿主并重绘。非法转换只记录日志。
func (c *Controller) transition(to State) {
	if !validTransition(c.state, to) {
		logger.Warnf("[control] 非法转换 %s → %s", c.state, to)
		return
	}
	from := c.state
	c.state = to
	logger.Debugf("[control] %s → %s", from, to)

	c.emit()
	c.draw()
}

func (c *Controller) outputs() Outputs {
	return Outputs{State: c.state, AutoSpeak: c.autoSpeak}
}

func (c *Controller) emit() {
	c.host.OutputsChanged(c.outputs())
}

func (c *Controller) draw() {
	c.host.Draw(icon.Render(c.state.Shape(), c.cfg.Stroke, c.cfg.Width, c.cfg.Height))
}

type nopHost struct{}

func (nopHost) OutputsChanged(Outputs) {}
func (nopHost) Draw(icon.Drawable)     {}
