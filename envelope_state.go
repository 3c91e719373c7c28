package xmplayer

// envelopeState walks an Envelope's control points tick by tick,
// interpolating between nodes and freezing at the sustain point while a
// note is held, exactly like the reference player's StateEnvelope.
type envelopeState struct {
	envelope *Envelope
	historical bool

	counter int // tick counter since trigger, drives node lookup
	nodeIdx int // index of the node at/before counter

	value float32 // current output, 0..1
}

func newEnvelopeState(e *Envelope, historical bool) envelopeState {
	es := envelopeState{envelope: e, historical: historical}
	es.reset()
	return es
}

func (es *envelopeState) reset() {
	es.counter = 0
	es.nodeIdx = 0
	if es.envelope != nil && len(es.envelope.Nodes) > 0 {
		es.value = es.envelope.Nodes[0].Value
	} else {
		es.value = 1.0
	}
}

// tick advances the envelope by one tick. sustained is true while the
// owning channel has not received a key-off.
func (es *envelopeState) tick(sustained bool) {
	e := es.envelope
	if e == nil || !e.Enabled || len(e.Nodes) == 0 {
		return
	}

	if len(e.Nodes) == 1 {
		es.value = e.Nodes[0].Value
		return
	}

	if e.SustainEnabled && sustained && es.counter == e.Nodes[e.SustainPoint].Tick {
		es.value = e.Nodes[e.SustainPoint].Value
		return
	}

	es.value = es.interpolate(es.counter)

	es.counter++

	if e.LoopEnabled {
		loopEndTick := e.Nodes[e.LoopEnd].Tick
		if es.historical {
			if es.counter >= loopEndTick-1 {
				es.counter -= loopEndTick - e.Nodes[e.LoopStart].Tick - 1
			}
		} else {
			if es.counter >= loopEndTick {
				es.counter -= loopEndTick - e.Nodes[e.LoopStart].Tick
			}
		}
	}
}

// interpolate returns the envelope value at tick t by locating the
// surrounding pair of nodes and lerping between them.
func (es *envelopeState) interpolate(t int) float32 {
	nodes := es.envelope.Nodes
	if t <= nodes[0].Tick {
		return nodes[0].Value
	}
	last := len(nodes) - 1
	if t >= nodes[last].Tick {
		return nodes[last].Value
	}

	for i := 0; i < last; i++ {
		if t >= nodes[i].Tick && t < nodes[i+1].Tick {
			span := nodes[i+1].Tick - nodes[i].Tick
			if span <= 0 {
				return nodes[i].Value
			}
			frac := float32(t-nodes[i].Tick) / float32(span)
			return lerp(nodes[i].Value, nodes[i+1].Value, frac)
		}
	}
	return nodes[last].Value
}
