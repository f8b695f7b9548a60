package control

import "github.com/iabetor/speakbutton/internal/icon"

// State 表示控件的播放状态，由 Controller 独占维护。
type State int

const (
	// StateWaiting 控件尚未渲染过，初始状态。
	StateWaiting State = iota
	// StateIdle 空闲，等待点击。
	StateIdle
	// StateLoading 正在等待合成服务返回音频。
	StateLoading
	// StateSpeaking 正在播放合成的音频。
	StateSpeaking
)

var stateNames = [...]string{
	"waiting",
	"idle",
	"loading",
	"speaking",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// ParseState 将宿主回传的状态字符串转换为 State，无法识别时返回 StateWaiting。
func ParseState(s string) State {
	for i, name := range stateNames {
		if name == s {
			return State(i)
		}
	}
	return StateWaiting
}

// Shape 返回该状态下应显示的图形。
func (s State) Shape() icon.Shape {
	switch s {
	case StateLoading:
		return icon.Loading
	case StateSpeaking:
		return icon.Stop
	}
	return icon.Play
}

// validTransition 检查状态转换是否合法：
//
//	Waiting  → Loading   （首次激活）
//	Idle     → Loading   （激活）
//	Loading  → Speaking  （合成成功，开始播放）
//	Loading  → Idle      （合成失败）
//	Speaking → Idle      （播放结束或被停止）
func validTransition(from, to State) bool {
	switch from {
	case StateWaiting, StateIdle:
		return to == StateLoading
	case StateLoading:
		return to == StateSpeaking || to == StateIdle
	case StateSpeaking:
		return to == StateIdle
	}
	return false
}
