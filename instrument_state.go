package xmplayer

// instrState binds a triggered note to its Instrument, aggregating the
// volume/panning envelopes and auto-vibrato into the single per-tick
// volume and frequency a Channel mixes into the output.
type instrState struct {
	instr      *Instrument
	ph         PeriodHelper
	historical bool

	sample sampleState

	volumeEnvelope  envelopeState
	panningEnvelope envelopeState
	vibrato         autoVibratoState

	fadeout float32 // 1.0 at trigger, decays toward 0
	sustained bool

	note         float32 // finetuned note, set by setNote
	volume       float32 // 0..1, channel volume column / default volume
	panning      float32 // 0..1
}

func newInstrState(instr *Instrument, sampleIdx int, rate float32, ph PeriodHelper, historical bool) *instrState {
	s := &instrState{instr: instr, ph: ph, historical: historical, fadeout: 1.0, sustained: true, volume: 1.0, panning: 0.5}

	var samp *Sample
	if instr != nil && sampleIdx >= 0 && sampleIdx < len(instr.Samples) {
		samp = &instr.Samples[sampleIdx]
	}
	s.sample = newSampleState(samp, rate)

	if instr != nil {
		s.volumeEnvelope = newEnvelopeState(&instr.VolumeEnvelope, historical)
		s.panningEnvelope = newEnvelopeState(&instr.PanningEnvelope, historical)
		s.vibrato = newAutoVibratoState(&instr.AutoVibrato, ph)
	}

	return s
}

func (s *instrState) isEnabled() bool {
	return s.sample.isEnabled()
}

func (s *instrState) sampleReset() {
	s.sample.reset()
}

func (s *instrState) envelopesReset() {
	s.volumeEnvelope.reset()
	s.panningEnvelope.reset()
	s.fadeout = 1.0
	s.sustained = true
}

func (s *instrState) vibratoReset() {
	s.vibrato.reset()
}

func (s *instrState) cutNote() {
	s.volume = 0
	s.fadeout = 0
}

// keyOff releases the note: the volume envelope starts decaying from its
// sustain point, fadeout begins, and if the instrument has no volume
// envelope at all the note is cut outright (matching the reference
// player, which otherwise would sustain forever with nothing to decay).
func (s *instrState) keyOff() {
	s.sustained = false
	if s.instr != nil && !s.instr.VolumeEnvelope.Enabled {
		s.cutNote()
	}
}

// volumeLevel returns fadeout * volume envelope, the instrument-side
// share of the final gain. The channel's own volume (set from the
// sample default at trigger time, then driven by volume-column/effect
// commands) is applied separately by the caller.
func (s *instrState) volumeLevel() float32 {
	return s.fadeout * s.volumeEnvelope.value
}

func (s *instrState) envelopes() {
	if s.instr == nil {
		return
	}
	if !s.sustained {
		if s.instr.VolumeFadeout > 0 {
			s.fadeout -= s.instr.VolumeFadeout
		}
		if s.fadeout < 0 {
			s.fadeout = 0
		}
	}
	if s.instr.VolumeEnvelope.Enabled {
		s.volumeEnvelope.tick(s.sustained)
	} else {
		s.volumeEnvelope.value = 1.0
	}
	if s.instr.PanningEnvelope.Enabled {
		s.panningEnvelope.tick(s.sustained)
	} else {
		s.panningEnvelope.value = 0.5
	}
}

// updateFrequency recomputes the sample step from the channel's current
// period, the ongoing arpeggio note offset, and the auto-vibrato period
// offset, and applies it to the sample state. Under linear frequencies
// the arpeggio offset is a flat 64 units/semitone; under Amiga periods
// the table isn't evenly spaced, so the offset is applied by round-
// tripping the period through note space instead.
func (s *instrState) updateFrequency(period, arpNote, periodOffset float32) {
	var arpPeriod float32
	if arpNote == 0 || s.ph.FreqType == LinearFrequencies {
		arpPeriod = period - arpNote*64
	} else if s.historical {
		arpPeriod = adjustPeriodFromNoteHistorical(s.ph, uint16(round(period)), uint16(arpNote), s.rawFinetune())
	} else {
		arpPeriod = s.ph.amigaPeriod(s.ph.amigaNote(period) + arpNote)
	}
	finalPeriod := arpPeriod + s.vibrato.periodOffset + periodOffset
	freq := s.ph.PeriodToFrequency(finalPeriod)
	s.sample.setStep(freq)
}

// rawFinetune recovers the sample's finetune in the raw -128..127 unit
// the historical bisection expects, from the normalized -1..1 fraction
// Sample.Finetune stores.
func (s *instrState) rawFinetune() int16 {
	if s.sample.sample == nil {
		return 0
	}
	return int16(s.sample.sample.Finetune * 128)
}

func (s *instrState) setNote(note float32) {
	s.note = note
	if s.instr != nil {
		s.volume = s.sample.volume()
		s.panning = s.sample.panning()
	}
}

func (s *instrState) selectSample(sampleIdx int) {
	if s.instr == nil || sampleIdx < 0 || sampleIdx >= len(s.instr.Samples) {
		return
	}
	samp := &s.instr.Samples[sampleIdx]
	s.sample = newSampleState(samp, s.sample.rate)
	s.volume = samp.Volume
	s.panning = samp.Panning
}

func (s *instrState) tick() {
	s.envelopes()
	s.vibrato.tick(s.sustained)
}
