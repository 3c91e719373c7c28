package xmplayer

// historicalHelper reproduces a handful of FastTracker 2 quirks that real
// modules were composed against and later clones chose to either fix or
// keep. Player.Historical switches these on; with it off the engine uses
// the straightforward modern computation everywhere these are consulted.
type historicalHelper struct {
	tempo int
}

func newHistoricalHelper(tempo int) historicalHelper {
	return historicalHelper{tempo: tempo}
}

// arpeggioTick reproduces FT2's tick-dependent arpeggio table, which
// cycles through a non-obvious lookup rather than a clean tick%3.
func (h historicalHelper) arpeggioTick(tick int) int {
	if h.tempo <= 0 {
		return tick % 3
	}
	t := tick % h.tempo
	reverseTick := h.tempo - t - 1
	switch {
	case reverseTick >= 0 && reverseTick <= 15:
		return reverseTick % 3
	case isArpeggioZeroTick(reverseTick):
		return 0
	default:
		return 2
	}
}

func isArpeggioZeroTick(t int) bool {
	switch t {
	case 51, 54, 60, 63, 72, 78, 81, 93, 99, 105, 108, 111, 114, 117, 120,
		123, 126, 129, 132, 135, 138, 141, 144, 147, 150, 153, 156, 159, 165,
		168, 171, 174, 177, 180, 183, 186, 189, 192, 195, 198, 201, 204, 207,
		210, 216, 219, 222, 225, 228, 231, 234, 237, 240, 243:
		return true
	}
	return false
}

// valueHistoricalComputers reproduces the discrete multi-retrigger volume
// table FT2 uses instead of a smooth curve.
func valueHistoricalComputers(vol, noteRetrigVol float32) float32 {
	rv := uint8(16.0 * noteRetrigVol)
	switch rv {
	case 0, 8:
		return vol
	case 1, 2, 3, 4, 5:
		return vol - float32(uint32(1)<<(rv-1))/64.0
	case 6:
		return vol * 2.0 / 3.0
	case 7:
		return vol / 2.0
	case 9, 10, 11, 12, 13:
		return vol + float32(uint32(1)<<(rv-9))/64.0
	case 14:
		return vol * 3.0 / 2.0
	case 15:
		return vol * 2.0
	default:
		return 0
	}
}

// adjustPeriodFromNoteHistorical reproduces FT2's finetune/period
// bisection bug (ported from ft2-clone, BSD-3-Clause, Olav Sorensen),
// clamped to the higher historical period floor. Notes above B-7 can
// misbehave the same way they do in FT2, by design.
func adjustPeriodFromNoteHistorical(ph PeriodHelper, period uint16, arpNote uint16, finetune int16) float32 {
	fineTune := int16(finetune/8 + 16)

	hiPeriod := int16(8 * 12 * 16)
	loPeriod := int16(0)

	for i := 0; i < 8; i++ {
		tmpPeriod := int16(uint16(loPeriod+hiPeriod)>>1&0xFFF0) + fineTune
		lookUp := int32(tmpPeriod) - 8
		if lookUp < 0 {
			lookUp = 0
		}

		if period >= uint16(round(ph.NoteToPeriod(float32(lookUp)/16.0-1.0))) {
			hiPeriod = int16(uint16(tmpPeriod-fineTune) & 0xFFF0)
		} else {
			loPeriod = int16(uint16(tmpPeriod-fineTune) & 0xFFF0)
		}
	}

	tmpPeriod := float32(loPeriod)/16.0 + float32(fineTune-16)/16.0 + float32(arpNote)
	p := ph.NoteToPeriod(tmpPeriod)
	if p < 1540.0 {
		p = 1540.0
	}
	return p
}

func round(v float32) float32 {
	if v < 0 {
		return float32(int(v - 0.5))
	}
	return float32(int(v + 0.5))
}
