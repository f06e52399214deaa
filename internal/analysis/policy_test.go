package analysis

import (
	"strings"
	"testing"
)

func TestPolicy_RateZeroNeverProcesses(t *testing.T) {
	p := NewPolicy(PolicyConfig{SampleRate: 0, RandFn: func() float64 { return 0 }})
	for i := 0; i < 100; i++ {
		if p.ShouldProcess() {
			t.Fatal("rate 0 must disable processing entirely")
		}
	}
}

func TestPolicy_RateOneAlwaysProcesses(t *testing.T) {
	p := NewPolicy(PolicyConfig{SampleRate: 1, RandFn: func() float64 { return 0.999999 }})
	for i := 0; i < 100; i++ {
		if !p.ShouldProcess() {
			t.Fatal("rate 1 must process every message")
		}
	}
}

func TestPolicy_PartialRateUsesDraw(t *testing.T) {
	p := NewPolicy(PolicyConfig{SampleRate: 0.5, RandFn: func() float64 { return 0.4 }})
	if !p.ShouldProcess() {
		t.Error("draw below rate should process")
	}
	p = NewPolicy(PolicyConfig{SampleRate: 0.5, RandFn: func() float64 { return 0.6 }})
	if p.ShouldProcess() {
		t.Error("draw above rate should not process")
	}
}

func TestPolicy_ClampLength(t *testing.T) {
	p := NewPolicy(PolicyConfig{MaxTextLength: 10})
	if got := p.ClampLength("short"); got != "short" {
		t.Errorf("short text should pass through, got %q", got)
	}
	long := strings.Repeat("a", 50)
	if got := p.ClampLength(long); len(got) != 10 {
		t.Errorf("expected exactly 10 chars, got %d", len(got))
	}
}

func TestPolicy_ClampLengthCountsRunes(t *testing.T) {
	p := NewPolicy(PolicyConfig{MaxTextLength: 3})
	got := p.ClampLength("日本語テスト")
	if got != "日本語" {
		t.Errorf("expected 3 runes, got %q", got)
	}
}

func TestPolicy_LongEnough(t *testing.T) {
	p := NewPolicy(PolicyConfig{MinTextLength: 20})
	if p.LongEnough("too short") {
		t.Error("short sanitized text should fail the length gate")
	}
	if !p.LongEnough("this sanitized text is long enough to analyze") {
		t.Error("long text should pass")
	}
}

func TestPolicy_LongEnoughCountsRunes(t *testing.T) {
	p := NewPolicy(PolicyConfig{MinTextLength: 10})
	// 8 characters, 24 bytes: must fail on character count.
	if p.LongEnough("日本語のテキスト") {
		t.Error("8 runes must not pass a 10-rune minimum")
	}
	// 10 characters exactly.
	if !p.LongEnough("日本語のテキストです") {
		t.Error("10 runes must pass a 10-rune minimum")
	}
}
