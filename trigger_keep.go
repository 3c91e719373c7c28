package xmplayer

// triggerKeep tells Channel.triggerNote which pieces of existing channel
// state to preserve across a retrigger instead of resetting to the
// instrument/sample defaults. Ghost notes (a note with no new instrument
// number), ghost instruments (an instrument number with no note) and
// tone-portamento all need partial resets.
type triggerKeep uint8

const (
	triggerKeepNone           triggerKeep = 0
	triggerKeepVolume         triggerKeep = 1 << 0
	triggerKeepPeriod         triggerKeep = 1 << 1
	triggerKeepSamplePosition triggerKeep = 1 << 2
	triggerKeepEnvelope       triggerKeep = 1 << 3
)

func (t triggerKeep) has(flag triggerKeep) bool {
	return t&flag != 0
}
