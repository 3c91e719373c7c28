package xmplayer

import "testing"

// testModule builds a minimal one-channel module with a two-row pattern:
// a C-4 note on row 0, nothing on row 1. It loops back to the start of
// the pattern order once it ends.
func testModule() *Module {
	mod := cloneBaseModule()
	mod.PatternOrder = []int{0}
	mod.Patterns = []Pattern{{
		Rows:     2,
		Channels: 1,
		Slots: []PatternSlot{
			{Note: 49, Instrument: 1}, // C-4
			{},
		},
	}}
	return mod
}

func TestPlayerGeneratesNonSilentAudio(t *testing.T) {
	mod := testModule()
	p := NewPlayer(mod, 8000, false)

	out := make([]float32, 512)
	n := p.GenerateAudio(out)
	if n == 0 {
		t.Fatal("expected some audio to be generated")
	}

	var anyNonZero bool
	for _, v := range out[:n*2] {
		if v != 0 {
			anyNonZero = true
			break
		}
	}
	if !anyNonZero {
		t.Error("expected non-silent output from a triggered note")
	}
}

func TestPlayerLoopsAndRespectsMaxLoopCount(t *testing.T) {
	mod := testModule()
	p := NewPlayer(mod, 8000, false)
	p.SetMaxLoopCount(2)

	out := make([]float32, 64)
	total := 0
	for p.IsPlaying() && total < 1_000_000 {
		n := p.GenerateAudio(out)
		if n == 0 {
			break
		}
		total += n
	}

	if p.IsPlaying() {
		t.Error("player should have stopped after reaching the loop budget")
	}
	if p.LoopCount() < 2 {
		t.Errorf("expected loop count >= 2, got %d", p.LoopCount())
	}
}

func TestPlayerMuteSilencesChannel(t *testing.T) {
	mod := testModule()
	p := NewPlayer(mod, 8000, false)
	p.Mute = 1 // mute channel 0, the only channel

	out := make([]float32, 512)
	n := p.GenerateAudio(out)
	for _, v := range out[:n*2] {
		if v != 0 {
			t.Fatal("muted channel should produce silent output")
		}
	}
}

func TestPlayerGoToResetsPosition(t *testing.T) {
	mod := testModule()
	p := NewPlayer(mod, 8000, false)
	p.GoTo(0, 1)

	if p.currentOrder != 0 || p.currentRow != 1 {
		t.Errorf("GoTo(0, 1) left position at order=%d row=%d", p.currentOrder, p.currentRow)
	}
}

func TestPlayerStartStopGatesAudio(t *testing.T) {
	mod := testModule()
	p := NewPlayer(mod, 8000, false)
	p.Stop()

	if p.IsPlaying() {
		t.Fatal("IsPlaying should be false immediately after Stop")
	}

	out := make([]float32, 16)
	n := p.GenerateAudio(out)
	if n != 0 {
		t.Errorf("GenerateAudio should produce nothing while stopped, got %d samples", n)
	}

	p.Start()
	if !p.IsPlaying() {
		t.Error("IsPlaying should be true again after Start")
	}
}
