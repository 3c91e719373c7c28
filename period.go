package xmplayer

import "math"

// PeriodHelper converts between notes, periods and playback frequencies
// under one of the two tuning models a module can declare: linear
// (modern, equal-tempered, independent of amiga-period quirks) or Amiga
// (period-table based, frequency inversely proportional to period).
type PeriodHelper struct {
	FreqType FrequencyType
	Rate     float32 // output sample rate; not read by the note/period/frequency conversions
}

func NewPeriodHelper(freqType FrequencyType, rate float32) PeriodHelper {
	return PeriodHelper{FreqType: freqType, Rate: rate}
}

// NoteToPeriod converts a finetuned note number (C-0 == 0.0, one unit per
// semitone, fractional part is finetune) into a period value.
func (p PeriodHelper) NoteToPeriod(note float32) float32 {
	if p.FreqType == LinearFrequencies {
		return p.linearPeriod(note)
	}
	return p.amigaPeriod(note)
}

// PeriodToFrequency converts a period into an output sample-step frequency.
func (p PeriodHelper) PeriodToFrequency(period float32) float32 {
	if p.FreqType == LinearFrequencies {
		return p.linearFrequency(period)
	}
	return p.amigaFrequency(period)
}

func (p PeriodHelper) linearPeriod(note float32) float32 {
	return 7680.0 - note*64.0
}

func (p PeriodHelper) linearFrequency(period float32) float32 {
	return 8363.0 * float32(math.Pow(2, float64((4608.0-period)/768.0)))
}

// amigaPeriodTable is the classic 12-semitone Amiga period table, base
// octave. Periods for other octaves are this table's value halved per
// octave above, doubled per octave below.
var amigaPeriodTable = [12]float32{
	1712, 1616, 1525, 1440, 1357, 1281, 1209, 1141, 1077, 1017, 961, 907,
}

func (p PeriodHelper) amigaPeriod(note float32) float32 {
	semitone := int(math.Floor(float64(note)))
	frac := note - float32(semitone)

	// amigaPeriodTable anchors at octave 2 (note 24-35), so the table
	// lookup needs the octave shifted down by 2 before it's used to
	// halve/double the period.
	octave := semitone/12 - 2
	idx := semitone % 12
	if idx < 0 {
		idx += 12
		octave--
	}

	base := amigaPeriodTable[idx]
	var next float32
	if idx == 11 {
		next = amigaPeriodTable[0] / 2
	} else {
		next = amigaPeriodTable[idx+1]
	}
	period := lerp(base, next, frac)

	if octave > 0 {
		period /= float32(math.Pow(2, float64(octave)))
	} else if octave < 0 {
		period *= float32(math.Pow(2, float64(-octave)))
	}
	return period
}

// amigaNote inverts amigaPeriod: given a period, returns the finetuned
// note number that would have produced it. Used to round-trip a period
// through note space (e.g. for arpeggio), since Amiga periods aren't
// evenly spaced per semitone the way linear periods are.
func (p PeriodHelper) amigaNote(period float32) float32 {
	if period <= 0 {
		return 0
	}

	octave := 2
	for period < amigaPeriodTable[11] {
		period *= 2
		octave++
	}
	for period > amigaPeriodTable[0] {
		period /= 2
		octave--
	}

	idx := 10
	for i := 0; i < 10; i++ {
		if period >= amigaPeriodTable[i+1] {
			idx = i
			break
		}
	}

	base := amigaPeriodTable[idx]
	var next float32
	if idx == 11 {
		next = amigaPeriodTable[0] / 2
	} else {
		next = amigaPeriodTable[idx+1]
	}

	frac := float32(0)
	if base != next {
		frac = (base - period) / (base - next)
	}
	return float32(octave*12+idx) + frac
}

func (p PeriodHelper) amigaFrequency(period float32) float32 {
	if period <= 0 {
		return 0
	}
	return 7159090.5 / (period * 2)
}

// LowerPeriodClamp is the minimum period the portamento effects clamp to.
// Historical mode reproduces FT2's higher floor (see historical.go).
func LowerPeriodClamp(historical bool) float32 {
	if historical {
		return 1540.0
	}
	return 1.0
}

const upperPeriodClamp = 32000.0 - 1.0
