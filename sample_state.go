package xmplayer

// sampleState tracks one channel's read position into an Instrument's
// Sample, including loop wraparound and linear interpolation. It is one of
// the pieces of per-note playback state that can survive a retrigger
// (triggerKeepSamplePosition asks triggerNote to leave it alone).
type sampleState struct {
	sample *Sample
	// position is the fractional sample index; negative means disabled.
	position float32
	// step is playback frequency divided by output rate, i.e. how far
	// position advances per output sample.
	step float32
	// ping is true while playing forward through a ping-pong loop.
	ping bool
	rate float32
}

func newSampleState(s *Sample, rate float32) sampleState {
	pos := float32(0)
	if s == nil || s.Len() == 0 {
		pos = -1
	}
	return sampleState{sample: s, position: pos, ping: true, rate: rate}
}

func (s *sampleState) reset() {
	if s.sample == nil || s.sample.Len() == 0 {
		s.position = -1
	} else {
		s.position = 0
	}
	s.ping = true
}

func (s *sampleState) setStep(frequency float32) {
	if s.rate <= 0 {
		s.step = 0
		return
	}
	s.step = frequency / s.rate
}

func (s *sampleState) setPosition(position int) {
	if s.sample == nil || position >= s.sample.Len() {
		s.disable()
		return
	}
	s.position = float32(position)
}

func (s *sampleState) isEnabled() bool {
	return s.position >= 0
}

func (s *sampleState) disable() {
	s.position = -1
}

func (s *sampleState) panning() float32 {
	if s.sample == nil {
		return 0.5
	}
	return s.sample.Panning
}

func (s *sampleState) volume() float32 {
	if s.sample == nil {
		return 0
	}
	return s.sample.Volume
}

func (s *sampleState) finetunedNote() float32 {
	if s.sample == nil {
		return 0
	}
	return float32(s.sample.RelativeNote) + s.sample.Finetune
}

// next advances the read position by one output sample and returns the
// interpolated value. Callers must check isEnabled() before calling next;
// a disabled sampleState has nothing meaningful to return.
func (s *sampleState) next() float32 {
	if s.position < 0 || s.sample == nil {
		return 0
	}

	a := uint32(s.position)
	b := a + 1
	t := s.position - float32(a)
	u := s.sample.At(int(a))

	loopEnd := s.sample.LoopStart + s.sample.LoopLength
	length := s.sample.Len()

	var v float32
	switch s.sample.LoopType {
	case LoopNone:
		s.position += s.step
		if int(s.position) >= length {
			s.disable()
		}
		if int(b) < length {
			v = s.sample.At(int(b))
		} else {
			v = 0
		}
	case LoopForward:
		s.position += s.step
		if int(s.position) >= loopEnd {
			delta := modf32(s.position-float32(loopEnd), float32(s.sample.LoopLength))
			s.position = float32(s.sample.LoopStart) + delta
		}
		seek := int(b)
		if seek >= loopEnd {
			seek = s.sample.LoopStart
		}
		v = s.sample.At(seek)
	case LoopPingPong:
		if s.ping {
			s.position += s.step
		} else {
			s.position -= s.step
		}

		if s.ping {
			if int(s.position) >= loopEnd {
				s.ping = false
				delta := modf32(s.position-float32(loopEnd), float32(s.sample.LoopLength))
				s.position = float32(loopEnd) - delta
			}
			seek := int(b)
			if seek >= loopEnd {
				seek = int(a)
			}
			v = s.sample.At(seek)
		} else {
			if int(s.position) <= s.sample.LoopStart {
				s.ping = true
				delta := modf32(float32(s.sample.LoopStart)-s.position, float32(s.sample.LoopLength))
				s.position = float32(s.sample.LoopStart) + delta
			}
			vv := u
			seek := int(b) - 2
			if b == 1 || seek <= s.sample.LoopStart {
				seek = int(a)
			}
			u = s.sample.At(seek)
			v = vv
		}
	}

	if LinearInterpolation {
		return lerp(u, v, t)
	}
	return u
}

func modf32(v, m float32) float32 {
	if m <= 0 {
		return 0
	}
	r := v - m*float32(int(v/m))
	if r < 0 {
		r += m
	}
	return r
}
