package xmfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cmarshall-audio/xmplayer"
)

// loadXM parses a FastTracker II XM file: the format this engine was
// built for, so pattern cells map onto xmplayer.PatternSlot almost
// field-for-field.
func loadXM(data []byte) (*xmplayer.Module, error) {
	if len(data) < 60 || string(data[:17]) != "Extended Module: " {
		return nil, fmt.Errorf("xmfile: not an XM file")
	}

	buf := bytes.NewReader(data)
	buf.Seek(17, 0)

	name := make([]byte, 20)
	buf.Read(name)
	buf.Seek(1, 1) // 0x1A marker

	tracker := make([]byte, 20)
	buf.Read(tracker)

	var version uint16
	binary.Read(buf, binary.LittleEndian, &version)

	hdr := struct {
		HeaderSize      uint32
		SongLength      uint16
		RestartPosition uint16
		NumChannels     uint16
		NumPatterns     uint16
		NumInstruments  uint16
		Flags           uint16
		DefaultTempo    uint16
		DefaultBPM      uint16
		PatternOrder    [256]byte
	}{}
	if err := binary.Read(buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}

	freqType := xmplayer.AmigaFrequencies
	if hdr.Flags&1 != 0 {
		freqType = xmplayer.LinearFrequencies
	}

	orderIdx := make([]int, hdr.SongLength)
	for i := 0; i < int(hdr.SongLength); i++ {
		orderIdx[i] = int(hdr.PatternOrder[i])
	}

	patterns := make([]xmplayer.Pattern, hdr.NumPatterns)
	for i := 0; i < int(hdr.NumPatterns); i++ {
		p, err := readXMPattern(buf, int(hdr.NumChannels))
		if err != nil {
			return nil, fmt.Errorf("xmfile: pattern %d: %w", i, err)
		}
		patterns[i] = p
	}

	instruments := make([]xmplayer.Instrument, hdr.NumInstruments)
	for i := 0; i < int(hdr.NumInstruments); i++ {
		instr, err := readXMInstrument(buf)
		if err != nil {
			return nil, fmt.Errorf("xmfile: instrument %d: %w", i, err)
		}
		instruments[i] = instr
	}

	mod := &xmplayer.Module{
		Title:           strings.TrimRight(string(name), "\x00"),
		FrequencyType:   freqType,
		RestartPosition: int(hdr.RestartPosition),
		Channels:        int(hdr.NumChannels),
		PatternOrder:    orderIdx,
		Tempo:           int(hdr.DefaultTempo),
		BPM:             int(hdr.DefaultBPM),
		Instruments:     instruments,
		Patterns:        patterns,
	}
	dumpf("XM %q (%s): %d channels, %d patterns, %d instruments", mod.Title, strings.TrimRight(string(tracker), "\x00"), mod.Channels, hdr.NumPatterns, hdr.NumInstruments)
	return mod, nil
}

func readXMPattern(buf *bytes.Reader, channels int) (xmplayer.Pattern, error) {
	var headerLen uint32
	if err := binary.Read(buf, binary.LittleEndian, &headerLen); err != nil {
		return xmplayer.Pattern{}, err
	}

	var packType uint8
	var numRows uint16
	var dataSize uint16
	binary.Read(buf, binary.LittleEndian, &packType)
	binary.Read(buf, binary.LittleEndian, &numRows)
	binary.Read(buf, binary.LittleEndian, &dataSize)

	// Skip any header bytes this reader doesn't know about, per the XM
	// convention that HeaderSize may grow in future format revisions.
	const knownHeaderLen = 4 + 1 + 2 + 2
	if extra := int64(headerLen) - knownHeaderLen; extra > 0 {
		buf.Seek(extra, 1)
	}

	slots := make([]xmplayer.PatternSlot, int(numRows)*channels)

	if dataSize == 0 {
		return xmplayer.Pattern{Rows: int(numRows), Channels: channels, Slots: slots}, nil
	}

	raw := make([]byte, dataSize)
	if _, err := buf.Read(raw); err != nil {
		return xmplayer.Pattern{}, err
	}
	r := bytes.NewReader(raw)

	for cell := 0; cell < int(numRows)*channels; cell++ {
		first, err := r.ReadByte()
		if err != nil {
			return xmplayer.Pattern{}, err
		}

		var slot xmplayer.PatternSlot
		if first&0x80 != 0 {
			if first&0x01 != 0 {
				b, _ := r.ReadByte()
				slot.Note = int(b)
			}
			if first&0x02 != 0 {
				b, _ := r.ReadByte()
				slot.Instrument = int(b)
			}
			if first&0x04 != 0 {
				b, _ := r.ReadByte()
				slot.Volume = int(b)
			}
			if first&0x08 != 0 {
				b, _ := r.ReadByte()
				slot.Effect = int(b)
			}
			if first&0x10 != 0 {
				b, _ := r.ReadByte()
				slot.EffectParam = int(b)
			}
		} else {
			slot.Note = int(first)
			b, _ := r.ReadByte()
			slot.Instrument = int(b)
			b, _ = r.ReadByte()
			slot.Volume = int(b)
			b, _ = r.ReadByte()
			slot.Effect = int(b)
			b, _ = r.ReadByte()
			slot.EffectParam = int(b)
		}

		slots[cell] = slot
	}

	return xmplayer.Pattern{Rows: int(numRows), Channels: channels, Slots: slots}, nil
}

func readXMInstrument(buf *bytes.Reader) (xmplayer.Instrument, error) {
	start, _ := buf.Seek(0, 1)

	var instrSize uint32
	if err := binary.Read(buf, binary.LittleEndian, &instrSize); err != nil {
		return xmplayer.Instrument{}, err
	}

	name := make([]byte, 22)
	buf.Read(name)
	buf.Seek(1, 1) // type, unused

	var numSamples uint16
	binary.Read(buf, binary.LittleEndian, &numSamples)

	instr := xmplayer.Instrument{Name: strings.TrimRight(string(name), "\x00")}

	if numSamples == 0 {
		buf.Seek(start+int64(instrSize), 0)
		return instr, nil
	}

	var sampleHeaderSize uint32
	binary.Read(buf, binary.LittleEndian, &sampleHeaderSize)

	var keymap [96]byte
	binary.Read(buf, binary.LittleEndian, &keymap)

	var volPoints [24][2]uint16
	var panPoints [24][2]uint16
	binary.Read(buf, binary.LittleEndian, &volPoints)
	binary.Read(buf, binary.LittleEndian, &panPoints)

	env := struct {
		NumVolPoints    uint8
		NumPanPoints    uint8
		VolSustain      uint8
		VolLoopStart    uint8
		VolLoopEnd      uint8
		PanSustain      uint8
		PanLoopStart    uint8
		PanLoopEnd      uint8
		VolType         uint8
		PanType         uint8
		VibratoType     uint8
		VibratoSweep    uint8
		VibratoDepth    uint8
		VibratoRate     uint8
		VolumeFadeout   uint16
		_               [22]byte
	}{}
	if err := binary.Read(buf, binary.LittleEndian, &env); err != nil {
		return xmplayer.Instrument{}, err
	}

	instr.VolumeEnvelope = buildXMEnvelope(volPoints[:env.NumVolPoints], env.VolType, env.VolSustain, env.VolLoopStart, env.VolLoopEnd)
	instr.PanningEnvelope = buildXMEnvelope(panPoints[:env.NumPanPoints], env.PanType, env.PanSustain, env.PanLoopStart, env.PanLoopEnd)

	instr.AutoVibrato = xmplayer.AutoVibrato{
		Waveform: xmWaveform(env.VibratoType),
		Sweep:    float32(env.VibratoSweep),
		Depth:    float32(env.VibratoDepth),
		Speed:    float32(env.VibratoRate),
	}
	instr.VolumeFadeout = float32(env.VolumeFadeout) / 32768.0

	for note := 1; note < len(instr.NoteToSample) && note-1 < len(keymap); note++ {
		instr.NoteToSample[note] = int(keymap[note-1]) + 1
	}

	type sampleHdr struct {
		Length       uint32
		LoopStart    uint32
		LoopLength   uint32
		Volume       uint8
		Finetune     int8
		Type         uint8
		Panning      uint8
		RelativeNote int8
		_            uint8
		Name         [22]byte
	}
	hdrs := make([]sampleHdr, numSamples)
	for i := range hdrs {
		if err := binary.Read(buf, binary.LittleEndian, &hdrs[i]); err != nil {
			return xmplayer.Instrument{}, err
		}
	}

	instr.Samples = make([]xmplayer.Sample, numSamples)
	for i, h := range hdrs {
		is16bit := h.Type&0x10 != 0
		length := int(h.Length)
		loopStart := int(h.LoopStart)
		loopLen := int(h.LoopLength)

		var floatData []float32
		if is16bit {
			length /= 2
			loopStart /= 2
			loopLen /= 2
			raw := make([]int16, length)
			binary.Read(buf, binary.LittleEndian, raw)
			deltaDecode16(raw)
			floatData = pcm16ToFloat(raw)
		} else {
			raw := make([]int8, length)
			binary.Read(buf, binary.LittleEndian, raw)
			deltaDecode8(raw)
			floatData = pcm8ToFloat(raw)
		}

		instr.Samples[i] = xmplayer.Sample{
			Name:         strings.TrimRight(string(h.Name[:]), "\x00"),
			Data:         floatData,
			LoopType:     xmLoopType(h.Type),
			LoopStart:    loopStart,
			LoopLength:   loopLen,
			Volume:       float32(h.Volume) / 64.0,
			Panning:      float32(h.Panning) / 255.0,
			RelativeNote: int(h.RelativeNote),
			Finetune:     float32(h.Finetune) / 128.0,
		}
	}

	return instr, nil
}

func xmLoopType(t uint8) xmplayer.LoopType {
	switch t & 0x3 {
	case 1:
		return xmplayer.LoopForward
	case 2:
		return xmplayer.LoopPingPong
	default:
		return xmplayer.LoopNone
	}
}

func xmWaveform(t uint8) xmplayer.WaveformShape {
	switch t & 0x3 {
	case 1:
		return xmplayer.WaveformSquare
	case 2, 3:
		return xmplayer.WaveformRampDown
	default:
		return xmplayer.WaveformSine
	}
}

func buildXMEnvelope(points [][2]uint16, envType, sustain, loopStart, loopEnd uint8) xmplayer.Envelope {
	e := xmplayer.Envelope{
		Enabled:        envType&0x1 != 0,
		SustainEnabled: envType&0x2 != 0,
		SustainPoint:   int(sustain),
		LoopEnabled:    envType&0x4 != 0,
		LoopStart:      int(loopStart),
		LoopEnd:        int(loopEnd),
	}
	e.Nodes = make([]xmplayer.EnvelopeNode, len(points))
	for i, p := range points {
		e.Nodes[i] = xmplayer.EnvelopeNode{Tick: int(p[0]), Value: float32(p[1]) / 64.0}
	}
	return e
}

func deltaDecode8(data []int8) {
	var acc int8
	for i, v := range data {
		acc += v
		data[i] = acc
	}
}

func deltaDecode16(data []int16) {
	var acc int16
	for i, v := range data {
		acc += v
		data[i] = acc
	}
}
