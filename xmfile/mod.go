package xmfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cmarshall-audio/xmplayer"
)

const (
	modRowsPerPattern  = 64
	modBytesPerChannel = 4
)

// loadMOD parses a ProTracker-family MOD file. Grounded on the teacher's
// own MOD loader: same signature-sniffing for channel count, same
// MilkyTracker-derived loop-overshoot correction, same libxmp-derived
// period-to-note conversion.
func loadMOD(data []byte) (*xmplayer.Module, error) {
	buf := bytes.NewReader(data)

	title := make([]byte, 20)
	buf.Read(title)

	type modSample struct {
		length, loopStart, loopLen int
		volume                     int
		fineTune                   int
		name                       string
	}
	samples := make([]modSample, 31)
	for i := range samples {
		hdr := struct {
			Name      [22]byte
			Length    uint16
			FineTune  uint8
			Volume    uint8
			LoopStart uint16
			LoopLen   uint16
		}{}
		if err := binary.Read(buf, binary.BigEndian, &hdr); err != nil {
			return nil, err
		}
		s := modSample{
			name:      strings.TrimRight(string(hdr.Name[:]), "\x00"),
			length:    int(hdr.Length) * 2,
			fineTune:  int(hdr.FineTune&7) - int(hdr.FineTune&8) + 8,
			volume:    int(hdr.Volume),
			loopStart: int(hdr.LoopStart) * 2,
			loopLen:   int(hdr.LoopLen) * 2,
		}
		if s.loopLen < 4 {
			s.loopLen = 0
		}
		if s.loopStart+s.loopLen > s.length {
			dx := s.loopStart + s.loopLen - s.length
			s.loopStart -= dx
			if s.loopStart+s.loopLen > s.length {
				dx = s.loopStart + s.loopLen - s.length
				s.loopLen -= dx
			}
		}
		if s.loopLen < 2 {
			s.loopLen = 0
		}
		samples[i] = s
	}

	orderHdr := struct {
		NumOrders uint8
		_         uint8
		OrderData [128]byte
	}{}
	if err := binary.Read(buf, binary.BigEndian, &orderHdr); err != nil {
		return nil, err
	}
	orders := orderHdr.OrderData[:orderHdr.NumOrders]

	numPatterns := int(orders[0])
	for _, o := range orders {
		if int(o) > numPatterns {
			numPatterns = int(o)
		}
	}
	numPatterns++

	sig := make([]byte, 4)
	if n, err := buf.Read(sig); n != 4 || err != nil {
		return nil, fmt.Errorf("xmfile: short MOD signature: %w", err)
	}
	var channels int
	switch string(sig[2:]) {
	case "K.":
		channels = 4
	case "HN":
		channels = int(sig[0]) - 48
	case "CH":
		channels = (int(sig[0])-48)*10 + (int(sig[1]) - 48)
	default:
		return nil, fmt.Errorf("xmfile: unrecognized MOD signature %q", string(sig))
	}

	patterns := make([]xmplayer.Pattern, numPatterns)
	scratch := make([]byte, modRowsPerPattern*channels*modBytesPerChannel)
	for i := 0; i < numPatterns; i++ {
		slots := make([]xmplayer.PatternSlot, modRowsPerPattern*channels)
		if n, err := buf.Read(scratch); n != len(scratch) || err != nil {
			return nil, fmt.Errorf("xmfile: short MOD pattern %d: %w", i, err)
		}
		for p := 0; p < modRowsPerPattern*channels; p++ {
			slots[p] = noteFromMODBytes(scratch[p*modBytesPerChannel : (p+1)*modBytesPerChannel])
		}
		patterns[i] = xmplayer.Pattern{Rows: modRowsPerPattern, Channels: channels, Slots: slots}
	}

	instruments := make([]xmplayer.Instrument, len(samples))
	for i, s := range samples {
		n := s.length
		if n > buf.Len() {
			n = buf.Len()
		}
		raw := make([]int8, s.length)
		binary.Read(buf, binary.LittleEndian, raw[:n])

		samp := xmplayer.Sample{
			Name:         s.name,
			Data:         pcm8ToFloat(raw[:n]),
			LoopType:     loopType(0, s.loopLen > 0),
			LoopStart:    s.loopStart,
			LoopLength:   s.loopLen,
			Volume:       float32(s.volume) / 64.0,
			Panning:      0.5,
			RelativeNote: 0,
			Finetune:     float32(s.fineTune-8) / 8.0,
		}
		instruments[i] = wrapSampleAsInstrument(s.name, samp)
	}

	orderIdx := make([]int, len(orders))
	for i, o := range orders {
		orderIdx[i] = int(o)
	}

	mod := &xmplayer.Module{
		Title:           strings.TrimRight(string(title), "\x00"),
		FrequencyType:   xmplayer.AmigaFrequencies,
		RestartPosition: 0,
		Channels:        channels,
		PatternOrder:    orderIdx,
		Tempo:           6,
		BPM:             125,
		Instruments:     instruments,
		Patterns:        patterns,
	}
	dumpf("MOD %q: %d channels, %d patterns, %d samples", mod.Title, channels, numPatterns, len(samples))
	return mod, nil
}

func noteFromMODBytes(nb []byte) xmplayer.PatternSlot {
	period := int(nb[0]&0xF)<<8 + int(nb[1])
	note := 0
	if period > 0 {
		note = periodToNote(period) + 1
	}

	slot := xmplayer.PatternSlot{
		Note:        note,
		Instrument:  int(nb[0]&0xF0) + int(nb[2]>>4),
		Effect:      int(nb[2] & 0xF),
		EffectParam: int(nb[3]),
	}
	if slot.Effect == 0xC {
		slot.Volume = 0x10 + slot.EffectParam
	}
	return slot
}

const (
	modPeriodBase = 13696 // Amiga period that periodToNote maps to note 0 (C-0)
	ln2           = 0.693147180559945309417232121458176568
)

// periodToNote converts an Amiga period to this package's note numbering
// (0 == C-0), following the same derivation the teacher's loader lifted
// from libxmp.
func periodToNote(period int) int {
	if period <= 0 {
		return 0
	}
	calc := 12.0 * math.Log(float64(modPeriodBase)/float64(period)) / ln2
	return int(math.Floor(calc + 0.5))
}
