package xmplayer

import (
	clone "github.com/huandu/go-clone/generic"
)

// testBaseModule is the shared fixture every test builds its module from.
// Tests clone it rather than mutate it directly so one test's pattern or
// instrument edits can never leak into another.
var testBaseModule = Module{
	Title:         "test",
	FrequencyType: LinearFrequencies,
	Channels:      1,
	Tempo:         2,
	BPM:           125,
	Instruments:   []Instrument{testMultiSampleInstrument()},
}

// testMultiSampleInstrument maps the low half of the keyboard to one
// sample and the high half to another, so tests can exercise NoteToSample
// selection without each building their own keymap.
func testMultiSampleInstrument() Instrument {
	low := Sample{Data: make([]float32, 1000), Volume: 1.0, Panning: 0.5}
	high := Sample{Data: make([]float32, 1000), Volume: 1.0, Panning: 0.5}
	for i := range low.Data {
		low.Data[i] = 0.5
	}
	for i := range high.Data {
		high.Data[i] = 0.5
	}

	instr := Instrument{Name: "test", Samples: []Sample{low, high}}
	for n := 1; n < 49; n++ {
		instr.NoteToSample[n] = 1
	}
	for n := 49; n < len(instr.NoteToSample); n++ {
		instr.NoteToSample[n] = 2
	}
	return instr
}

// cloneBaseModule hands back a fresh copy of testBaseModule, following the
// same clone-a-shared-fixture pattern the engine's own test suite already
// used before this package existed, so tests stay isolated from each other
// without each re-declaring an instrument from scratch.
func cloneBaseModule() *Module {
	m := clone.Clone(testBaseModule)
	return &m
}
