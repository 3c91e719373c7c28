// Package comb models simple comb-filter reverb, operating directly on
// the engine's interleaved stereo float32 output so the audio pipeline
// never round-trips through integer PCM.
package comb

// Reverber is the interface cmd/xmplay drives the reverb stage through:
// feed interleaved stereo samples in, read processed samples back out on
// your own schedule.
type Reverber interface {
	// InputSamples accepts interleaved stereo float32 samples and returns
	// a sample count whose meaning each implementation documents (CombAdd:
	// samples still to accumulate before reverb applies; the config
	// package's pass-through: samples accepted).
	InputSamples(in []float32) int
	GetAudio(out []float32) int
}

// Comb models a fixed comb-filter reverb. At construction time it takes
// a block of interleaved stereo sample data and applies reverb to it in
// one pass. It cannot be fed any more sample data after this.
type Comb struct {
	delayOffset int
	readPos     int
	audio       []float32
}

func NewComb(in []float32, decay float32, delayMs, sampleRate int) *Comb {
	c := &Comb{
		delayOffset: (delayMs * sampleRate) / 1000,
		audio:       make([]float32, len(in)),
	}

	copy(c.audio, in)
	for i := 0; i < len(in)/2-c.delayOffset; i++ {
		c.audio[(i+c.delayOffset)*2+0] += c.audio[i*2+0] * decay
		c.audio[(i+c.delayOffset)*2+1] += c.audio[i*2+1] * decay
	}

	return c
}

func (c *Comb) GetAudio(out []float32) int {
	n := len(out)
	if c.readPos+n > len(c.audio) {
		n = len(c.audio) - c.readPos
	}
	copy(out, c.audio[c.readPos:c.readPos+n])
	c.readPos += n
	return n
}

// CombAdd is a comb filter that can be fed audio data incrementally. It
// does not discard used samples and has no upper bound on memory used.
type CombAdd struct {
	Comb
	writePos int
	decay    float32
}

var _ Reverber = &CombAdd{}

// initialSize is in sample pairs.
func NewCombAdd(initialSize int, decay float32, delayMs, sampleRate int) *CombAdd {
	return &CombAdd{
		Comb: Comb{
			delayOffset: (delayMs * sampleRate) / 1000,
			audio:       make([]float32, 0, initialSize*2),
		},
		decay: decay,
	}
}

// NewCombFixed is NewCombAdd with a name matching the Reverber the
// config layer selects by reverb-quality flag.
func NewCombFixed(initialSize int, decay float32, delayMs, sampleRate int) *CombAdd {
	return NewCombAdd(initialSize, decay, delayMs, sampleRate)
}

// InputSamples feeds the filter with new interleaved stereo sample
// data. Once enough samples have accumulated the filter starts applying
// reverb. The return value is how many more samples must accumulate
// before reverb will be applied; 0 once steady state is reached.
func (c *CombAdd) InputSamples(in []float32) int {
	c.audio = append(c.audio, in...)
	if len(c.audio) > c.delayOffset*2 {
		ns := len(c.audio) - (c.delayOffset*2 + c.writePos)
		for i := 0; i < ns; i++ {
			c.audio[i+c.delayOffset*2+c.writePos] += c.audio[i+c.writePos] * c.decay
		}
		c.writePos += ns
	}
	rem := c.delayOffset*2 - len(c.audio)
	if rem < 0 {
		rem = 0
	}
	return rem
}

// GetAudio puts processed audio data into out, returning how many
// samples were written.
func (c *CombAdd) GetAudio(out []float32) int {
	wanted := len(out)
	have := len(c.audio) - c.readPos
	if wanted > have {
		wanted = have
	}
	if wanted > 0 {
		copy(out, c.audio[c.readPos:c.readPos+wanted])
		c.readPos += wanted
	}
	return wanted
}
