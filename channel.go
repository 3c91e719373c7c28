package xmplayer

// Effect type constants, in the XM effect-letter address space (0x0-0x23,
// spanning the numeric 0-9 effects, the A-Z-mapped extended effects, and
// the volume-column's own small command set handled separately).
const (
	effectArpeggio          = 0x0
	effectPortamentoUp      = 0x1
	effectPortamentoDown    = 0x2
	effectTonePortamento    = 0x3
	effectVibrato           = 0x4
	effectTonePortaVolSlide = 0x5
	effectVibratoVolSlide   = 0x6
	effectTremolo           = 0x7
	effectSetPanning        = 0x8
	effectSampleOffset      = 0x9
	effectVolumeSlide       = 0xA
	effectPositionJump      = 0xB
	effectSetVolume         = 0xC
	effectPatternBreak      = 0xD
	effectExtended          = 0xE
	effectSetSpeed          = 0xF
	effectSetGlobalVolume   = 0x10
	effectGlobalVolumeSlide = 0x11
	effectKeyOff            = 0x14
	effectSetEnvelopePos    = 0x15
	effectPanningSlide      = 0x19
	effectMultiRetrig       = 0x1B
	effectTremor            = 0x1D
	effectExtraFinePorta    = 0x21

	// Extended effects (Exy)
	effectExtraFinePortaUp     = 0x1
	effectExtraFinePortaDown   = 0x2
	effectSetGlissando         = 0x3
	effectSetFinetune          = 0x5
	effectSetPatternLoop       = 0x6
	effectSetTremoloControl    = 0x7
	effectRetrigNote           = 0x9
	effectFineVolumeSlideUp    = 0xA
	effectFineVolumeSlideDown  = 0xB
	effectNoteCut              = 0xC
	effectNoteDelay            = 0xD
	effectPatternDelay         = 0xE
)

// Channel is one voice's playback state machine: current note/period/
// volume/panning, the instrument bound to it, and every effect unit that
// might be active on it. Exactly one Channel per module channel lives for
// the lifetime of a Player.
type Channel struct {
	module *Module
	ph     PeriodHelper
	rate   float32

	historical bool

	note     float32 // finetuned note currently sounding
	origNote int     // raw note number from the last triggering row
	current  PatternSlot

	period  float32
	volume  float32 // 0..1
	panning float32 // 0..1

	instr *instrState

	portamentoUp        portamentoEffect
	portamentoDown      portamentoEffect
	tonePortamento      tonePortamentoEffect
	arpeggio            arpeggioEffect
	vibrato             vibratoTremoloEffect
	tremolo             vibratoTremoloEffect
	volumeSlide         slideEffect
	volumeSlideTick0    slideEffect // fine volume slide, applies once on tick 0 only
	panningSlide        slideEffect
	multiRetrig         multiRetrigEffect
	tremor              tremorEffect

	glissando bool

	noteDelayParam int
	noteCutTick     int // 0 means no pending note cut this row

	patternLoopOrigin int
	patternLoopCount  int

	muted       bool
	tremorMuted bool

	actualVolume [2]float32 // [left, right] gain for the current output sample

	hist *historicalHelper
}

func newChannel(mod *Module, ph PeriodHelper, rate float32, historical bool, hist *historicalHelper) *Channel {
	c := &Channel{
		module:     mod,
		ph:         ph,
		rate:       rate,
		historical: historical,
		hist:       hist,
		vibrato:    vibratoTremoloEffect{waveform: WaveformSine},
		tremolo:    vibratoTremoloEffect{waveform: WaveformSine},
	}
	c.instr = newInstrState(nil, -1, rate, ph, historical)
	return c
}

// Next returns this channel's stereo contribution to the current output
// sample and advances its sample reader by one sample.
func (c *Channel) Next() (float32, float32) {
	if c.muted || c.instr == nil || !c.instr.isEnabled() {
		return 0, 0
	}
	v := c.instr.sample.next()
	return v * c.actualVolume[0], v * c.actualVolume[1]
}

// triggerNote (re)starts playback of the current instrument/sample under
// the given keep-mask, matching the reference player's trigger_note.
func (c *Channel) triggerNote(keep triggerKeep) {
	if !keep.has(triggerKeepSamplePosition) {
		c.instr.sampleReset()
	}
	if !keep.has(triggerKeepEnvelope) {
		c.instr.envelopesReset()
		c.instr.vibratoReset()
	}
	if !keep.has(triggerKeepVolume) {
		c.volume = c.instr.volume
	}
	c.panning = c.instr.panning

	if !keep.has(triggerKeepPeriod) {
		c.period = c.ph.NoteToPeriod(c.note)
	}
	c.updateFrequency()
}

func (c *Channel) updateFrequency() {
	c.instr.updateFrequency(c.period, c.arpeggio.value0(), 0)
}

// tickNUpdateInstr recomputes this tick's output gain from volume,
// panning (including the panning envelope's pull toward center) and the
// tremor mute state, using the spec's equal-power panning law.
func (c *Channel) tickNUpdateInstr() {
	if c.instr == nil {
		return
	}

	vol := c.instr.volumeLevel() * c.volume
	if c.tremorMuted {
		vol = 0
	}

	envPan := c.instr.panningEnvelope.value
	panEff := c.panning + (envPan-0.5)*(0.5-absf32(c.panning-0.5))*2
	panEff = clamp(panEff, 0, 1)

	left, right := equalPowerPan(vol, panEff)
	c.actualVolume[0] = left
	c.actualVolume[1] = right
}

func equalPowerPan(v, pan float32) (float32, float32) {
	return v * sqrtf32(pan), v * sqrtf32(1-pan)
}
