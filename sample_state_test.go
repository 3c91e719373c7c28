package xmplayer

import "testing"

func rampSample(n int, loop LoopType, loopStart, loopLen int) *Sample {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return &Sample{Data: data, LoopType: loop, LoopStart: loopStart, LoopLength: loopLen}
}

func TestSampleStateDisablesAtEndWithoutLoop(t *testing.T) {
	s := rampSample(4, LoopNone, 0, 0)
	ss := newSampleState(s, 1)
	ss.setStep(1)

	for i := 0; i < 4; i++ {
		if !ss.isEnabled() {
			t.Fatalf("sample disabled early at step %d", i)
		}
		ss.next()
	}
	if ss.isEnabled() {
		t.Error("sample should be disabled after running off the end")
	}
}

func TestSampleStateForwardLoopWraps(t *testing.T) {
	s := rampSample(10, LoopForward, 2, 6) // loop region [2, 8)
	ss := newSampleState(s, 1)
	ss.setStep(1)

	for i := 0; i < 100; i++ {
		if !ss.isEnabled() {
			t.Fatalf("forward-looping sample disabled unexpectedly at step %d", i)
		}
		ss.next()
	}
}

func TestSampleStatePingPongStaysEnabled(t *testing.T) {
	s := rampSample(10, LoopPingPong, 2, 6)
	ss := newSampleState(s, 1)
	ss.setStep(1)

	for i := 0; i < 100; i++ {
		if !ss.isEnabled() {
			t.Fatalf("ping-pong sample disabled unexpectedly at step %d", i)
		}
		ss.next()
	}
}

func TestSampleStateSetPositionPastEndDisables(t *testing.T) {
	s := rampSample(4, LoopNone, 0, 0)
	ss := newSampleState(s, 1)
	ss.setPosition(10)
	if ss.isEnabled() {
		t.Error("setting position past sample length should disable it")
	}
}

func TestSampleStateStepFromZeroRate(t *testing.T) {
	s := rampSample(4, LoopNone, 0, 0)
	ss := newSampleState(s, 0)
	ss.setStep(440)
	if ss.step != 0 {
		t.Errorf("step with zero output rate should be 0, got %v", ss.step)
	}
}
