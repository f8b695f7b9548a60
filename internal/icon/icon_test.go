package icon

import (
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func TestRender_ShapeContents(t *testing.T) {
	tests := []struct {
		shape    Shape
		contains []string
		absent   []string
	}{
		{Play, []string{"<circle", playPath}, []string{"<rect", "animateTransform"}},
		{Stop, []string{"<circle", `<rect x="275" y="275" width="250" height="250"`}, []string{playPath, "animateTransform"}},
		{Loading, []string{loadingPath, `repeatCount="indefinite"`, `dur="2s"`}, []string{"<circle", "<rect"}},
	}

	for _, tt := range tests {
		svg := Render(tt.shape, "white", 48, 48).SVG()
		for _, want := range tt.contains {
			if !strings.Contains(svg, want) {
				t.Errorf("%s: expected %q in %s", tt.shape, want, svg)
			}
		}
		for _, bad := range tt.absent {
			if strings.Contains(svg, bad) {
				t.Errorf("%s: unexpected %q in %s", tt.shape, bad, svg)
			}
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	a := Render(Stop, "#ff0000", 32, 16)
	b := Render(Stop, "#ff0000", 32, 16)
	if a != b {
		t.Fatalf("Render not deterministic: %+v vs %+v", a, b)
	}
	if a.SVG() != b.SVG() {
		t.Fatal("SVG output not deterministic")
	}
}

func TestRender_ZeroAndInvalidSize(t *testing.T) {
	tests := []struct {
		w, h float64
	}{
		{0, 0},
		{-5, 10},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		d := Render(Play, "white", tt.w, tt.h)
		if d.Width < 0 || d.Height < 0 || math.IsNaN(d.Width) || math.IsNaN(d.Height) {
			t.Errorf("Render(%v, %v) produced invalid size %vx%v", tt.w, tt.h, d.Width, d.Height)
		}
	}

	svg := Render(Loading, "white", 0, 0).SVG()
	if !strings.Contains(svg, `width="0" height="0"`) {
		t.Errorf("expected zero-size svg, got %s", svg)
	}
}

func TestRender_UnknownShapeFallsBackToPlay(t *testing.T) {
	if got := Render(Shape(42), "white", 1, 1).Shape; got != Play {
		t.Fatalf("expected Play, got %s", got)
	}
}

func TestSVG_EscapesStroke(t *testing.T) {
	svg := Render(Play, `red" onload="x`, 10, 10).SVG()
	if strings.Contains(svg, `onload="x"`) {
		t.Fatalf("stroke not escaped: %s", svg)
	}
	// 输出应是合法 XML
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("invalid xml: %v\n%s", err, svg)
		}
	}
}

func TestDrawable_Flags(t *testing.T) {
	if !Render(Play, "", 1, 1).HasRing() || Render(Play, "", 1, 1).Animated() {
		t.Error("play: expected ring, no animation")
	}
	if !Render(Stop, "", 1, 1).HasRing() {
		t.Error("stop: expected ring")
	}
	if Render(Loading, "", 1, 1).HasRing() || !Render(Loading, "", 1, 1).Animated() {
		t.Error("loading: expected animation, no ring")
	}
}

func TestShape_String(t *testing.T) {
	tests := []struct {
		s    Shape
		want string
	}{
		{Play, "play"},
		{Stop, "stop"},
		{Loading, "loading"},
		{Shape(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Shape(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
