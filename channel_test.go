package xmplayer

import "testing"

// testChannelModule clones the shared fixture, whose instrument already
// maps the low half of the keyboard to sample 0 and the high half to
// sample 1, and gives it a throwaway one-row pattern (tests drive tick0
// directly rather than reading rows from it).
func testChannelModule() *Module {
	mod := cloneBaseModule()
	mod.PatternOrder = []int{0}
	mod.Patterns = []Pattern{{Rows: 1, Channels: 1, Slots: []PatternSlot{{}}}}
	return mod
}

func newTestChannel(mod *Module) *Channel {
	ph := NewPeriodHelper(mod.FrequencyType, 44100)
	hist := newHistoricalHelper(mod.Tempo)
	return newChannel(mod, ph, 44100, false, &hist)
}

// A row carrying both an instrument number and a note must pick the
// sample that note maps to, not whatever sample the previous note had
// selected on this channel.
func TestTick0PicksSampleForNewNoteNotOldOne(t *testing.T) {
	mod := testChannelModule()
	c := newTestChannel(mod)

	c.tick0(PatternSlot{Note: 60, Instrument: 1}) // high half -> sample 1
	if c.instr.sample.sample != &mod.Instruments[0].Samples[1] {
		t.Fatalf("expected sample 1 selected for note 60")
	}

	c.tick0(PatternSlot{Note: 10, Instrument: 1}) // low half -> sample 0
	if c.instr.sample.sample != &mod.Instruments[0].Samples[0] {
		t.Fatalf("expected sample 0 selected for note 10")
	}
}

func TestTick0GhostInstrumentKeepsPreviousNote(t *testing.T) {
	mod := testChannelModule()
	c := newTestChannel(mod)

	c.tick0(PatternSlot{Note: 60, Instrument: 1})
	if c.instr.sample.sample != &mod.Instruments[0].Samples[1] {
		t.Fatalf("expected sample 1 selected for note 60")
	}

	// Ghost instrument (same number, no new note): should keep reading
	// the sample the previous note selected.
	c.tick0(PatternSlot{Instrument: 1})
	if c.instr.sample.sample != &mod.Instruments[0].Samples[1] {
		t.Errorf("ghost instrument changed sample selection without a new note")
	}
}

func TestPortamentoUpLowersPeriod(t *testing.T) {
	mod := testChannelModule()
	c := newTestChannel(mod)
	c.tick0(PatternSlot{Note: 49, Instrument: 1})

	before := c.period
	c.tick0(PatternSlot{Effect: effectPortamentoUp, EffectParam: 0x10})
	c.tick(1)

	if c.period >= before {
		t.Errorf("portamento up should lower the period, before=%v after=%v", before, c.period)
	}
}

func TestSetVolumeEffectClampsToRange(t *testing.T) {
	mod := testChannelModule()
	c := newTestChannel(mod)
	c.tick0(PatternSlot{Note: 49, Instrument: 1, Effect: effectSetVolume, EffectParam: 0xFF})

	if c.volume != 1.0 {
		t.Errorf("volume should clamp to 1.0, got %v", c.volume)
	}
}

func TestKeyOffCutsNoteWithoutVolumeEnvelope(t *testing.T) {
	mod := testChannelModule()
	c := newTestChannel(mod)
	c.tick0(PatternSlot{Note: 49, Instrument: 1})
	c.tick0(PatternSlot{Note: NoteKeyOff})

	if c.instr.volume != 0 {
		t.Errorf("key-off with no volume envelope should cut the note, volume=%v", c.instr.volume)
	}
}
