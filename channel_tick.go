package xmplayer

// tick0 processes a new row's pattern slot: instrument/note resolution,
// every effect's tick-0 setup, the volume column, and a gain refresh.
func (c *Channel) tick0(slot PatternSlot) {
	c.current = slot
	c.noteCutTick = 0
	c.noteDelayParam = 0
	c.tremorMuted = false

	// Extended effects (including note delay, EDx) must be decoded before
	// deciding whether to trigger now or defer to a later tick.
	if slot.Effect == effectExtended {
		c.tick0ExtendedEffects(slot.EffectParam)
	}

	if c.noteDelayParam == 0 {
		c.tick0LoadInstrumentAndNote(slot)
	}
	c.tick0Effects(slot)
	c.tick0VolumeEffects(slot)
	c.tickNUpdateInstr()
}

// tick processes ticks 1..Speed-1 of the current row: instrument
// envelopes/fadeout, the continuous volume-column effect, every row
// effect's per-tick behavior, and a gain refresh. currentTick is the
// 0-based tick index within the row (tick() is never called with 0).
func (c *Channel) tick(currentTick int) {
	if c.noteDelayParam > 0 && currentTick == c.noteDelayParam {
		c.tick0LoadInstrumentAndNote(c.current)
		c.noteDelayParam = 0
	}

	c.instr.tick()
	c.tickVolumeEffects()
	c.tickEffects(currentTick)
	c.tickNUpdateInstr()
}

func (c *Channel) tick0LoadInstrumentAndNote(slot PatternSlot) {
	if slot.Note == NoteKeyOff {
		c.instr.keyOff()
		return
	}

	tonePorta := slot.Effect == effectTonePortamento || slot.Effect == effectTonePortaVolSlide

	if slot.Instrument != 0 {
		// The sample a multi-sample instrument selects depends on the note
		// actually sounding this row, not whatever note was playing before
		// it, so a row combining a note and an instrument number must pick
		// the new note's sample.
		note := c.origNote
		if NoteIsValid(slot.Note) {
			note = slot.Note
		}
		c.tick0ChangeInstr(slot.Instrument, note, tonePorta)
	}

	if NoteIsValid(slot.Note) {
		c.tick0LoadNote(slot, tonePorta)
	}
}

func (c *Channel) tick0ChangeInstr(instrNum, note int, sampleOnly bool) {
	if instrNum < 1 || instrNum > len(c.module.Instruments) {
		c.instr.cutNote()
		return
	}
	instr := &c.module.Instruments[instrNum-1]

	sampleIdx := -1
	if NoteIsValid(note) {
		sampleIdx = instr.NoteToSample[note] - 1
	}

	prevVolume, prevPanning := c.instr.volume, c.instr.panning
	c.instr = newInstrState(instr, sampleIdx, c.rate, c.ph, c.historical)
	if sampleOnly {
		// A ghost instrument number under tone-portamento keeps playing
		// the old volume/panning rather than resetting to sample defaults.
		c.instr.volume = prevVolume
		c.instr.panning = prevPanning
	}

	keep := triggerKeepPeriod | triggerKeepSamplePosition
	if sampleOnly {
		keep |= triggerKeepVolume
	}
	c.triggerNote(keep)
}

func (c *Channel) tick0LoadNote(slot PatternSlot, toneGoalOnly bool) {
	c.origNote = slot.Note

	finetune := float32(0)
	if c.instr != nil {
		finetune = c.instr.sample.finetunedNote()
	}
	note := float32(slot.Note-1) + finetune

	if toneGoalOnly {
		c.tonePortamento.goal = c.ph.NoteToPeriod(note)
		return
	}

	c.note = note
	c.instr.setNote(note)

	keep := triggerKeepNone
	if slot.Instrument == 0 {
		keep = triggerKeepVolume
	}
	c.triggerNote(keep)

	if c.arpeggio.inProgress() {
		c.arpeggio.retrigger()
	}
	if c.vibrato.inProgress() {
		c.vibrato.retrigger()
	}
}

func toneMultiplierFor(ph PeriodHelper) float32 {
	if ph.FreqType == LinearFrequencies {
		return 1.0
	}
	return 1.0
}

func (c *Channel) tick0Effects(slot PatternSlot) {
	param := slot.EffectParam
	switch slot.Effect {
	case effectArpeggio:
		c.arpeggio.tick0(param)
	case effectPortamentoUp:
		if sp, ok := xmConvertPortamento(param, 0, c.ph.FreqType == LinearFrequencies); ok {
			c.portamentoUp.tick0(-sp)
		}
	case effectPortamentoDown:
		if sp, ok := xmConvertPortamento(param, 0, c.ph.FreqType == LinearFrequencies); ok {
			c.portamentoDown.tick0(sp)
		}
	case effectTonePortamento:
		if param != 0 {
			linear := c.ph.FreqType == LinearFrequencies
			c.tonePortamento.xmUpdateEffect(param, toneMultiplierFor(c.ph), linear, 0, c.ph)
		}
	case effectTonePortaVolSlide:
		c.volumeSlide.xmUpdateEffect(param, 64.0)
	case effectVibrato:
		c.vibrato.tick0(param)
	case effectVibratoVolSlide:
		c.volumeSlide.xmUpdateEffect(param, 64.0)
	case effectTremolo:
		c.tremolo.tick0(param)
	case effectSetPanning:
		c.panning = float32(param) / 255.0
	case effectSampleOffset:
		if param != 0 {
			c.instr.sample.setPosition(param * 256)
		}
	case effectVolumeSlide:
		c.volumeSlide.xmUpdateEffect(param, 64.0)
	case effectSetVolume:
		c.volume = clamp(float32(param)/64.0, 0, 1)
	case effectKeyOff:
		c.instr.keyOff()
	case effectSetEnvelopePos:
		if c.instr != nil {
			c.instr.volumeEnvelope.counter = param
			c.instr.volumeEnvelope.value = c.instr.volumeEnvelope.interpolate(param)
		}
	case effectPanningSlide:
		c.panningSlide.xmUpdateEffect(param, 64.0)
	case effectMultiRetrig:
		c.multiRetrig.tick0(param)
	case effectTremor:
		c.tremor.tick0(param)
	}
}

func (c *Channel) tick0ExtendedEffects(param int) {
	sub := (param >> 4) & 0xF
	val := param & 0xF
	lower := LowerPeriodClamp(c.historical)

	switch sub {
	case effectExtraFinePortaUp:
		if sp, ok := xmConvertPortamento(val, 2, false); ok {
			c.period = clamp(c.period-sp, lower, upperPeriodClamp)
		}
	case effectExtraFinePortaDown:
		if sp, ok := xmConvertPortamento(val, 2, false); ok {
			c.period = clamp(c.period+sp, lower, upperPeriodClamp)
		}
	case effectSetGlissando:
		c.glissando = val != 0
	case effectSetTremoloControl:
		switch val {
		case 1:
			c.tremolo.waveform = WaveformRampDown
		case 2:
			c.tremolo.waveform = WaveformSquare
		default:
			c.tremolo.waveform = WaveformSine
		}
	case effectRetrigNote:
		c.multiRetrig.tick0(val)
	case effectFineVolumeSlideUp:
		c.volumeSlideTick0.xmUpdateEffect(val<<4, 64.0)
		c.volume = clampUp(c.volume+c.volumeSlideTick0.amount, 1.0)
	case effectFineVolumeSlideDown:
		c.volumeSlideTick0.xmUpdateEffect(val, 64.0)
		c.volume = clampDown(c.volume+c.volumeSlideTick0.amount, 0)
	case effectNoteCut:
		c.noteCutTick = val
	case effectNoteDelay:
		c.noteDelayParam = val
	}
}

func (c *Channel) tick0VolumeEffects(slot PatternSlot) {
	v := slot.Volume
	switch {
	case v == 0:
	case v >= 0x10 && v <= 0x50:
		c.volume = float32(v-0x10) / 64.0
	case v >= 0x51 && v <= 0x5F:
		c.volume = clamp(float32(v-0x20)/64.0, 0, 1)
	case v >= 0x60 && v <= 0x6F:
		c.volumeSlide.amount = -float32(v-0x60) / 64.0
	case v >= 0x70 && v <= 0x7F:
		c.volumeSlide.amount = float32(v-0x70) / 64.0
	case v >= 0x80 && v <= 0x8F:
		c.volumeSlideTick0.amount = -float32(v-0x80) / 64.0
		c.volume = clampDown(c.volume+c.volumeSlideTick0.amount, 0)
	case v >= 0x90 && v <= 0x9F:
		c.volumeSlideTick0.amount = float32(v-0x90) / 64.0
		c.volume = clampUp(c.volume+c.volumeSlideTick0.amount, 1.0)
	case v >= 0xA0 && v <= 0xAF:
		c.vibrato.setSpeed(float32(v - 0xA0))
	case v >= 0xB0 && v <= 0xBF:
		c.vibrato.depth = float32(v - 0xB0)
	case v >= 0xC0 && v <= 0xCF:
		c.panning = float32(v-0xC0) / 15.0
	case v >= 0xD0 && v <= 0xDF:
		c.panningSlide.amount = -float32(v-0xD0) / 64.0
	case v >= 0xE0 && v <= 0xEF:
		c.panningSlide.amount = float32(v-0xE0) / 64.0
	case v >= 0xF0 && v <= 0xFF:
		sub := v - 0xF0
		if sub != 0 {
			linear := c.ph.FreqType == LinearFrequencies
			c.tonePortamento.xmUpdateEffect(int(sub)*16, toneMultiplierFor(c.ph), linear, 0, c.ph)
		}
	}
}

func (c *Channel) tickVolumeEffects() {
	v := c.current.Volume
	switch {
	case v >= 0x60 && v <= 0x7F:
		c.volume = clamp(c.volume+c.volumeSlide.tick(), 0, 1)
	case v >= 0xD0 && v <= 0xEF:
		c.panning = clamp(c.panning+c.panningSlide.tick(), 0, 1)
	case v >= 0xF0 && v <= 0xFF:
		c.period = c.tonePortamento.tick(c.period)
		c.period = c.glissandoSnap(c.period)
	}
}

func (c *Channel) tickEffects(currentTick int) {
	if c.noteCutTick != 0 && currentTick == c.noteCutTick {
		c.instr.cutNote()
	}

	switch c.current.Effect {
	case effectArpeggio:
		if c.arpeggio.inProgress() {
			var hist *historicalHelper
			if c.historical {
				hist = c.hist
			}
			offset := c.arpeggio.tick(currentTick, hist)
			c.instr.updateFrequency(c.period, offset, 0)
			return
		}
	case effectPortamentoUp:
		c.portamentoUp.tick()
		c.period = c.portamentoUp.clamp(c.period, c.historical)
	case effectPortamentoDown:
		c.portamentoDown.tick()
		c.period = c.portamentoDown.clamp(c.period, c.historical)
	case effectTonePortamento:
		c.period = c.tonePortamento.tick(c.period)
		c.period = c.glissandoSnap(c.period)
	case effectTonePortaVolSlide:
		c.period = c.tonePortamento.tick(c.period)
		c.period = c.glissandoSnap(c.period)
		c.volume = clamp(c.volume+c.volumeSlide.tick(), 0, 1)
	case effectVibrato:
		offset := c.vibrato.tick(vibratoMultiplierFor(c.ph))
		c.instr.updateFrequency(c.period, c.arpeggio.value0(), offset)
		return
	case effectVibratoVolSlide:
		offset := c.vibrato.tick(vibratoMultiplierFor(c.ph))
		c.volume = clamp(c.volume+c.volumeSlide.tick(), 0, 1)
		c.instr.updateFrequency(c.period, c.arpeggio.value0(), offset)
		return
	case effectTremolo:
		c.tremolo.tick(tremoloMultiplier)
	case effectVolumeSlide:
		c.volume = clamp(c.volume+c.volumeSlide.tick(), 0, 1)
	case effectPanningSlide:
		c.panning = clamp(c.panning+c.panningSlide.tick(), 0, 1)
	case effectMultiRetrig:
		if c.multiRetrig.tick() {
			c.volume = c.multiRetrig.value(c.volume, c.historical)
			c.triggerNote(triggerKeepEnvelope | triggerKeepVolume)
		}
	case effectTremor:
		c.tremorMuted = !c.tremor.tick()
	case effectGlobalVolumeSlide, effectSetGlobalVolume, effectSetSpeed,
		effectPatternBreak, effectPositionJump, effectExtended:
		// Row-flow and global effects are owned by Player, not Channel.
	}

	c.instr.updateFrequency(c.period, c.arpeggio.value0(), 0)
}

func (c *Channel) glissandoSnap(period float32) float32 {
	if !c.glissando || c.ph.FreqType != LinearFrequencies {
		return period
	}
	note := (7680.0 - period) / 64.0
	note = roundf32(note)
	return 7680.0 - note*64.0
}

func roundf32(v float32) float32 {
	if v < 0 {
		return float32(int32(v - 0.5))
	}
	return float32(int32(v + 0.5))
}

func vibratoMultiplierFor(ph PeriodHelper) float32 {
	if ph.FreqType == LinearFrequencies {
		return vibratoMultiplierLinear
	}
	return vibratoMultiplierAmiga
}

func (c *Channel) tremorVolumeMuted() bool {
	return c.tremorMuted
}
