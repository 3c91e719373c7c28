package xmplayer

import "testing"

func TestLinearPeriodOctaveDelta(t *testing.T) {
	ph := NewPeriodHelper(LinearFrequencies, 44100)

	// NoteToPeriod takes 0-based notes (C-0 == 0); the linear period
	// decreases by 64 per ascending semitone, so by 768 per octave.
	p0 := ph.NoteToPeriod(0)
	p12 := ph.NoteToPeriod(12)
	if got, want := p0-p12, float32(12*64); got != want {
		t.Errorf("period delta over an octave = %v, want %v", got, want)
	}
}

func TestLinearFrequencyDoublesPerOctave(t *testing.T) {
	ph := NewPeriodHelper(LinearFrequencies, 44100)

	f1 := ph.PeriodToFrequency(ph.NoteToPeriod(0))
	f2 := ph.PeriodToFrequency(ph.NoteToPeriod(12))

	ratio := f2 / f1
	if ratio < 1.99 || ratio > 2.01 {
		t.Errorf("frequency ratio over an octave = %v, want ~2.0", ratio)
	}
}

func TestAmigaPeriodTableBoundary(t *testing.T) {
	ph := NewPeriodHelper(AmigaFrequencies, 44100)

	// amigaPeriodTable anchors at octave 2 (note 24-35): note 35 is B in
	// that octave, so its period should match the table entry exactly at
	// zero finetune with no halving/doubling applied.
	got := ph.amigaPeriod(35)
	want := amigaPeriodTable[11]
	if got != want {
		t.Errorf("amigaPeriod(35) = %v, want %v", got, want)
	}
}

func TestAmigaPeriodNoteZeroBaseline(t *testing.T) {
	ph := NewPeriodHelper(AmigaFrequencies, 44100)

	// note 0 is two octaves below the table's anchor octave, so its
	// period should be the table's first entry times 2^2.
	got := ph.amigaPeriod(0)
	want := amigaPeriodTable[0] * 4
	if got != want {
		t.Errorf("amigaPeriod(0) = %v, want %v", got, want)
	}
}

func TestAmigaNoteRoundTripsThroughPeriod(t *testing.T) {
	ph := NewPeriodHelper(AmigaFrequencies, 44100)

	for _, note := range []float32{0, 11, 24, 35, 47, 60} {
		period := ph.amigaPeriod(note)
		got := ph.amigaNote(period)
		if diff := got - note; diff < -0.01 || diff > 0.01 {
			t.Errorf("amigaNote(amigaPeriod(%v)) = %v, want %v", note, got, note)
		}
	}
}

func TestAmigaFrequencyHalvesPeriodDoublesFrequency(t *testing.T) {
	ph := NewPeriodHelper(AmigaFrequencies, 44100)

	f1 := ph.amigaFrequency(428)
	f2 := ph.amigaFrequency(214)

	ratio := f2 / f1
	if ratio < 1.99 || ratio > 2.01 {
		t.Errorf("halving the period should double frequency, got ratio %v", ratio)
	}
}

func TestLowerPeriodClamp(t *testing.T) {
	if LowerPeriodClamp(false) != 1.0 {
		t.Errorf("normal lower clamp should be 1.0")
	}
	if LowerPeriodClamp(true) != 1540.0 {
		t.Errorf("historical lower clamp should be 1540.0")
	}
}
