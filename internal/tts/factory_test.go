package tts

import (
	"testing"

	"github.com/iabetor/speakbutton/internal/config"
)

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TTSConfig
		wantErr bool
		check   func(Engine) bool
	}{
		{"azure default", config.TTSConfig{}, false, func(e Engine) bool { _, ok := e.(*AzureEngine); return ok }},
		{"edge", config.TTSConfig{Engine: "edge"}, false, func(e Engine) bool { _, ok := e.(*EdgeEngine); return ok }},
		{"piper", config.TTSConfig{Engine: "piper", Piper: config.PiperConfig{ModelPath: "m.onnx"}}, false,
			func(e Engine) bool { _, ok := e.(*PiperEngine); return ok }},
		{"say", config.TTSConfig{Engine: "say"}, false, func(e Engine) bool { _, ok := e.(*SayEngine); return ok }},
		{"piper without model", config.TTSConfig{Engine: "piper"}, true, nil},
		{"tencent without secrets", config.TTSConfig{Engine: "tencent"}, true, nil},
		{"sherpa without model", config.TTSConfig{Engine: "sherpa"}, true, nil},
		{"unknown", config.TTSConfig{Engine: "espeak"}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if e != nil {
					t.Fatalf("expected nil engine on error, got %T", e)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(e) {
				t.Fatalf("unexpected engine type %T", e)
			}
		})
	}
}

func TestTencentHelpers(t *testing.T) {
	if got := tencentVoiceType("101016", 1001); got != 101016 {
		t.Errorf("numeric voice: got %d", got)
	}
	if got := tencentVoiceType("en-US-ChristopherNeural", 1001); got != 1001 {
		t.Errorf("non-numeric voice should use default, got %d", got)
	}
	if got := tencentLanguage("en-GB"); got != tencentLangEnglish {
		t.Errorf("en-GB: got %d", got)
	}
	if got := tencentLanguage("zh-CN"); got != tencentLangChinese {
		t.Errorf("zh-CN: got %d", got)
	}
}

func TestNewRequest_AssignsUniqueIDs(t *testing.T) {
	a := NewRequest("t", "en-US", "v", Credentials{Key: "k", Region: "r"})
	b := NewRequest("t", "en-US", "v", Credentials{Key: "k", Region: "r"})
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if a.Text != "t" || a.Credentials.Region != "r" {
		t.Fatalf("unexpected request %+v", a)
	}
}
