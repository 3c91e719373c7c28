package xmplayer

// Player schedules rows and ticks across a Module's channels and mixes
// their contributions into a stereo output stream. It owns every piece
// of song-wide playback state: the global volume, tempo/BPM, the current
// position in the pattern order, and pattern-loop bookkeeping — anything
// a single Channel has no business knowing about.
type Player struct {
	Module *Module
	Rate   float32

	// Historical switches on FT2 quirk-reproduction across period
	// clamping, arpeggio tick tables and multi-retrig volume steps. Set
	// at construction via NewPlayer; each Channel is built against its
	// value, so changing it afterwards has no effect.
	Historical bool

	Mute uint32 // bitmask of muted channels, channel 0 in the LSB

	channels []*Channel
	ph       PeriodHelper
	hist     *historicalHelper

	globalVolume          float32 // 0..1
	globalVolumeSlide     slideEffect
	amplification         float32

	tempo int // ticks per row
	bpm   int

	currentOrder int
	currentRow   int
	currentTick  int

	remainingSamplesInTick float32

	positionJump  bool
	jumpOrder     int
	patternBreak  bool
	jumpRow       int
	patternDelay  int
	extraTicks    int

	rowLoopCount [][]int // per-pattern, per-row E6y loop counters
	loopCount    int
	maxLoopCount int

	// songEnded is set once playback has walked past the last order with
	// nothing left to jump to.
	songEnded bool

	// playing gates audio generation independent of songEnded, so a user
	// can pause and resume without losing playback position.
	playing bool
}

const defaultAmplification = 0.25

// NewPlayer builds a Player for mod, producing audio at the given output
// sample rate. historical turns on FT2 quirk-reproduction for every
// channel; it cannot be changed after construction.
func NewPlayer(mod *Module, rate int, historical bool) *Player {
	ph := NewPeriodHelper(mod.FrequencyType, float32(rate))
	hist := newHistoricalHelper(mod.Tempo)

	p := &Player{
		Module:        mod,
		Rate:          float32(rate),
		Historical:    historical,
		ph:            ph,
		hist:          &hist,
		globalVolume:  1.0,
		amplification: defaultAmplification,
		tempo:         mod.Tempo,
		bpm:           mod.BPM,
		playing:       true,
	}

	p.channels = make([]*Channel, mod.Channels)
	for i := range p.channels {
		p.channels[i] = newChannel(mod, ph, float32(rate), historical, p.hist)
		if i < len(mod.DefaultPanning) {
			p.channels[i].panning = mod.DefaultPanning[i]
		} else {
			p.channels[i].panning = 0.5
		}
	}

	p.rowLoopCount = make([][]int, len(mod.Patterns))
	for i, pat := range mod.Patterns {
		p.rowLoopCount[i] = make([]int, pat.Rows)
	}

	return p
}

// SetMaxLoopCount bounds how many times playback may loop back to an
// already-visited order position (the song wrapping to its restart
// position, or a backward Bxx/Dxx jump) before IsPlaying reports false.
// E6y pattern loops are not counted. 0 means unlimited.
func (p *Player) SetMaxLoopCount(n int) { p.maxLoopCount = n }

// LoopCount reports how many times playback has looped back to an
// already-visited order position.
func (p *Player) LoopCount() int { return p.loopCount }

// IsPlaying reports whether the player has more audio to produce: the
// song hasn't ended, the loop budget hasn't been exhausted, and nothing
// has paused it with Stop.
func (p *Player) IsPlaying() bool {
	if !p.playing || p.songEnded {
		return false
	}
	if p.maxLoopCount > 0 && p.loopCount >= p.maxLoopCount {
		return false
	}
	return true
}

// Start resumes playback after a Stop.
func (p *Player) Start() { p.playing = true }

// Stop pauses playback in place; GenerateAudio will produce nothing
// further until Start is called.
func (p *Player) Stop() { p.playing = false }

// Speed reports the current row duration in ticks (the Fxx value below
// 0x20).
func (p *Player) Speed() int { return p.tempo }

// BPM reports the current tempo in beats per minute (the Fxx value at
// or above 0x20).
func (p *Player) BPM() int { return p.bpm }

// PlayerState is a snapshot of playback position and per-channel note
// data, intended for UI rendering loops that poll rather than push.
type PlayerState struct {
	Order    int
	Row      int
	Channels []ChannelNoteData
}

// State reports the current playback position and a note snapshot for
// every channel.
func (p *Player) State() PlayerState {
	channels := make([]ChannelNoteData, len(p.channels))
	for i := range p.channels {
		channels[i] = p.NoteDataFor(i)
	}
	return PlayerState{Order: p.currentOrder, Row: p.currentRow, Channels: channels}
}

// NoteDataForRow reports the pattern data for every channel at a given
// order/row, independent of playback position — used to render the
// rows surrounding the one currently playing. Returns nil if the
// position is out of range.
func (p *Player) NoteDataForRow(order, row int) []ChannelNoteData {
	if order < 0 || order >= len(p.Module.PatternOrder) {
		return nil
	}
	pattern := &p.Module.Patterns[p.Module.PatternOrder[order]]
	if row < 0 || row >= pattern.Rows {
		return nil
	}

	out := make([]ChannelNoteData, pattern.Channels)
	for i := range out {
		slot := pattern.Slot(row, i)
		out[i] = ChannelNoteData{
			Note:       noteString(slot.Note),
			Instrument: slot.Instrument,
			Volume:     float32(slot.Volume),
			Effect:     slot.Effect,
			Param:      slot.EffectParam,
		}
	}
	return out
}

// GoTo seeks playback to a specific order/row, resetting song-wide
// tempo/volume to the module defaults and re-triggering every channel so
// playback resumes cleanly instead of carrying over stale effect state.
func (p *Player) GoTo(order, row int) {
	if order < 0 || order >= len(p.Module.PatternOrder) {
		return
	}
	pattern := p.Module.Patterns[p.Module.PatternOrder[order]]
	if row < 0 || row >= pattern.Rows {
		row = 0
	}

	p.currentOrder = order
	p.currentRow = row
	p.currentTick = 0
	p.remainingSamplesInTick = 0
	p.tempo = p.Module.Tempo
	p.bpm = p.Module.BPM
	p.globalVolume = 1.0
	p.songEnded = false

	for _, c := range p.channels {
		c.triggerNote(triggerKeepPeriod)
	}
}

func (p *Player) currentPattern() *Pattern {
	idx := p.Module.PatternOrder[p.currentOrder]
	return &p.Module.Patterns[idx]
}

// row processes tick 0 of the current row: resolves any pending jump or
// break from the previous row, runs every channel's tick0, dispatches
// row-flow and global effects, and advances the row/order counters.
func (p *Player) row() {
	if p.positionJump || p.patternBreak {
		p.applyPendingJump()
	}

	pattern := p.currentPattern()
	loopedThisRow := false

	for i, c := range p.channels {
		slot := pattern.Slot(p.currentRow, i)
		c.tick0(slot)
		if p.tick0GlobalEffects(i, slot) {
			loopedThisRow = true
		}
	}

	if loopedThisRow {
		return
	}

	if p.positionJump || p.patternBreak {
		return // honored at the top of the next row() call
	}

	if p.patternDelay > 0 {
		p.extraTicks = p.patternDelay * p.tempo
		p.patternDelay = 0
	}

	p.advanceRow(pattern)
}

func (p *Player) advanceRow(pattern *Pattern) {
	p.currentRow++
	if p.currentRow >= pattern.Rows {
		p.currentRow = 0
		p.advanceOrder()
	}
}

func (p *Player) advanceOrder() {
	p.currentOrder++
	if p.currentOrder >= len(p.Module.PatternOrder) {
		p.currentOrder = p.Module.RestartPosition
		p.loopCount++
	}
}

// applyPendingJump resolves a Bxx/Dxx effect queued by the previous row.
func (p *Player) applyPendingJump() {
	order, row := p.currentOrder, p.currentRow
	if p.positionJump {
		order = p.jumpOrder
		row = 0
	}
	if p.patternBreak {
		row = p.jumpRow
	}

	if order != p.currentOrder {
		if order >= len(p.Module.PatternOrder) {
			order = p.Module.RestartPosition
			p.loopCount++
		} else if order <= p.currentOrder {
			p.loopCount++
		}
	} else if p.patternBreak && row <= p.currentRow {
		p.loopCount++
	}

	p.currentOrder = order
	p.currentRow = row
	p.positionJump = false
	p.patternBreak = false
	p.jumpRow = 0
}

// tick0GlobalEffects dispatches the row-flow and song-wide effects that
// only Player has the context to honor: pattern break/jump, pattern loop
// (E6y), pattern delay (EEy), tempo/BPM (Fxx), global volume (Gxx/Hxy).
// Returns true if this channel's E6y caused a loop back (so row() should
// not also advance the row counter this call).
func (p *Player) tick0GlobalEffects(chIdx int, slot PatternSlot) bool {
	switch slot.Effect {
	case effectPositionJump:
		p.positionJump = true
		p.jumpOrder = slot.EffectParam
	case effectPatternBreak:
		p.patternBreak = true
		p.jumpRow = (slot.EffectParam>>4)*10 + (slot.EffectParam & 0xF)
	case effectSetSpeed:
		if slot.EffectParam > 0 {
			if slot.EffectParam < 32 {
				p.tempo = slot.EffectParam
			} else {
				p.bpm = slot.EffectParam
			}
		}
	case effectSetGlobalVolume:
		p.globalVolume = clamp(float32(slot.EffectParam)/64.0, 0, 1)
	case effectGlobalVolumeSlide:
		p.globalVolumeSlide.xmUpdateEffect(slot.EffectParam, 64.0)
	case effectExtended:
		return p.tick0ExtendedGlobalEffects(chIdx, slot.EffectParam)
	}
	return false
}

func (p *Player) tick0ExtendedGlobalEffects(chIdx int, param int) bool {
	sub := (param >> 4) & 0xF
	val := param & 0xF

	switch sub {
	case effectSetPatternLoop:
		return p.patternLoop(chIdx, val)
	case effectPatternDelay:
		p.patternDelay = val
	}
	return false
}

// patternLoop implements E6y: y==0 marks the loop origin row on this
// channel, y>0 jumps back to that origin, decrementing the channel's
// loop counter until it reaches zero.
func (p *Player) patternLoop(chIdx, count int) bool {
	c := p.channels[chIdx]

	if count == 0 {
		c.patternLoopOrigin = p.currentRow
		return false
	}

	patIdx := p.Module.PatternOrder[p.currentOrder]
	if c.patternLoopCount == 0 {
		c.patternLoopCount = count
	} else {
		c.patternLoopCount--
	}

	if c.patternLoopCount > 0 {
		p.rowLoopCount[patIdx][p.currentRow]++
		p.currentRow = c.patternLoopOrigin
		return true
	}

	c.patternLoopCount = 0
	return false
}

// tick processes one tick of the current row: row() on tick 0, then
// every channel's per-tick update, then the global volume slide and
// tick/tempo bookkeeping.
func (p *Player) tick() {
	if p.currentTick == 0 {
		p.row()
	}

	for _, c := range p.channels {
		if p.currentTick != 0 {
			c.tick(p.currentTick)
		}
	}

	if p.currentTick != 0 && p.globalVolumeSlide.inProgress() {
		p.globalVolume = clamp(p.globalVolume+p.globalVolumeSlide.tick(), 0, 1)
	}

	p.currentTick++
	if p.currentTick >= p.tempo+p.extraTicks {
		p.currentTick = 0
		p.extraTicks = 0
	}

	if p.bpm > 0 {
		p.remainingSamplesInTick += p.Rate / (float32(p.bpm) * 0.4)
	}
}

// sample produces one output sample pair, advancing the tick scheduler
// as needed. The gain stage applies a soft-saturation curve rather than
// a bare multiply so a module driving the global volume hard does not
// clip as abruptly as amplitude*volume would.
func (p *Player) sample() (float32, float32) {
	if p.remainingSamplesInTick <= 0 {
		p.tick()
	}
	p.remainingSamplesInTick--

	left, right := mixChannels(p.channels, p.Mute)

	gain := p.globalVolume * p.amplification / (p.globalVolume + p.amplification)
	return left * gain, right * gain
}

// GenerateAudio fills out with interleaved stereo float32 samples and
// returns how many sample pairs were written, stopping early if
// IsPlaying becomes false.
func (p *Player) GenerateAudio(out []float32) int {
	pairs := len(out) / 2
	n := 0
	for n < pairs && p.IsPlaying() {
		l, r := p.sample()
		out[n*2] = l
		out[n*2+1] = r
		n++
	}
	return n
}

// ChannelNoteData is the per-channel snapshot returned by NoteDataFor.
type ChannelNoteData struct {
	Note       string
	Instrument int
	Volume     float32
	Effect     int
	Param      int
}

// NoteDataFor reports, for UI purposes, the note, instrument and effect
// cells of the channel's current row together with the channel volume,
// without mutating any playback state.
func (p *Player) NoteDataFor(channel int) ChannelNoteData {
	c := p.channels[channel]
	return ChannelNoteData{
		Note:       noteString(c.current.Note),
		Instrument: c.current.Instrument,
		Volume:     c.volume,
		Effect:     c.current.Effect,
		Param:      c.current.EffectParam,
	}
}

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

func noteString(n int) string {
	switch {
	case n == 0:
		return "..."
	case n == NoteKeyOff:
		return "^^."
	}
	octave := (n - 1) / 12
	idx := (n - 1) % 12
	return noteNames[idx] + string(rune('0'+octave))
}
