package comb

import "testing"

func TestCombAddDelaysSignal(t *testing.T) {
	const delayMs, rate = 10, 1000 // 10 samples of delay
	c := NewCombAdd(64, 0.5, delayMs, rate)

	impulse := make([]float32, 2)
	impulse[0], impulse[1] = 1.0, 1.0

	if rem := c.InputSamples(impulse); rem == 0 {
		t.Fatalf("expected InputSamples to report remaining samples before steady state")
	}

	zeros := make([]float32, 2)
	var sawDelayed bool
	for i := 0; i < 20; i++ {
		c.InputSamples(zeros)
		out := make([]float32, 2)
		if n := c.GetAudio(out); n != 2 {
			t.Fatalf("GetAudio returned %d samples, want 2", n)
		}
		// i == 0 returns the undelayed impulse itself.
		if i > 0 && out[0] != 0 {
			sawDelayed = true
		}
	}

	if !sawDelayed {
		t.Error("never saw the delayed reflection of the impulse")
	}
}

func TestCombAddGetAudioBounded(t *testing.T) {
	c := NewCombAdd(64, 0.3, 5, 1000)
	c.InputSamples([]float32{1, 1})

	out := make([]float32, 100)
	n := c.GetAudio(out)
	if n != 2 {
		t.Errorf("GetAudio returned %d, want 2 (can't read more than was written)", n)
	}
}

func TestCombUnityWithZeroDecay(t *testing.T) {
	in := []float32{0.5, -0.5, 0.25, -0.25}
	c := NewComb(in, 0, 1, 1000)

	out := make([]float32, len(in))
	c.GetAudio(out)
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: got %f, want %f (zero decay should pass through unchanged)", i, out[i], in[i])
		}
	}
}

func TestNewCombFixedIsReverber(t *testing.T) {
	var _ Reverber = NewCombFixed(1024, 0.2, 150, 44100)
}
