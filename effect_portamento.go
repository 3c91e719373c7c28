package xmplayer

// portamentoEffect implements the continuous (1xy/2xy) and one-shot fine
// and extra-fine portamento variants. The fine/extra-fine distinction is
// resolved once, when the row's effect param is decoded into a speed via
// xmConvertPortamento, not by this type.
type portamentoEffect struct {
	speed float32
	value float32
}

func (p *portamentoEffect) tick0(speed float32) float32 {
	p.speed = speed
	p.value = 0
	return p.value
}

func (p *portamentoEffect) tick() float32 {
	p.value = p.speed
	return p.value
}

func (p *portamentoEffect) inProgress() bool {
	return p.speed != 0
}

func (p *portamentoEffect) retrigger() float32 {
	p.value = 0
	return p.value
}

// clamp applies the effect's offset for this tick to period and clamps the
// result into the valid period range for the given mode.
func (p *portamentoEffect) clamp(period float32, historical bool) float32 {
	final := period + p.value
	return clamp(final, LowerPeriodClamp(historical), upperPeriodClamp)
}

// xmConvertPortamento turns a raw 1xy/2xy-family param into a per-tick
// speed, handling the fine (special=1) and extra-fine (special=2)
// sub-variants that only slide once per row. Plain portamento (special=0)
// moves period by 4x as much per unit of param under linear frequencies
// as it does under Amiga periods, matching tone portamento's own
// linear/Amiga split.
func xmConvertPortamento(param, special int, linear bool) (float32, bool) {
	if param == 0 {
		return 0, false
	}
	switch special {
	case 1:
		return float32(param & 0x0F), true
	case 2:
		return (1.0 / 4.0) * float32(param&0x0F), true
	default:
		speed := float32(param)
		if linear {
			speed *= 4.0
		}
		return speed, true
	}
}

// tonePortamentoEffect (3xy) slides the current period toward a goal
// period without overshooting it, optionally snapping to full semitones
// for glissando.
type tonePortamentoEffect struct {
	speed float32
	goal  float32
}

func (t *tonePortamentoEffect) xmUpdateEffect(param int, multiplier float32, linear bool, note float32, ph PeriodHelper) {
	speed := float32(param) * multiplier
	if linear {
		t.speed = 4.0 * speed
	} else {
		t.speed = speed
	}
	if note != 0 {
		t.goal = ph.NoteToPeriod(note)
	}
}

func (t *tonePortamentoEffect) tick(period float32) float32 {
	return slideTowards(period, t.goal, t.speed)
}

func (t *tonePortamentoEffect) inProgress() bool {
	return t.speed != 0
}
