package xmfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cmarshall-audio/xmplayer"
)

var ErrInvalidS3M = errors.New("xmfile: invalid S3M file")

const (
	s3mEffectSetSpeed       = 0x1
	s3mEffectPatternJump    = 0x2
	s3mEffectPatternBreak   = 0x3
	s3mEffectTonePortamento = 0x7
	s3mEffectSpecial        = 0x13
)

// loadS3M parses a ScreamTracker 3 file, grounded on the teacher's S3M
// loader: same header layout, same packed-pattern decode loop, same
// effect-byte remapping into this package's effect space.
func loadS3M(data []byte) (*xmplayer.Module, error) {
	if len(data) < 48 || string(data[44:48]) != "SCRM" {
		return nil, ErrInvalidS3M
	}

	buf := bytes.NewReader(data)
	title := make([]byte, 28)
	buf.Read(title)

	header := struct {
		Pad             byte
		Filetype        byte
		_               uint16
		Length          uint16
		NumInstruments  uint16
		NumPatterns     uint16
		Flags           uint16
		Tracker         uint16
		SampleFormat    uint16
		_               [4]byte
		Volume          uint8
		Speed           uint8
		Tempo           uint8
		MastVolume      uint8
		_               uint8
		Panning         uint8
		_               [8]byte
		_               [2]byte
		ChannelSettings [32]byte
	}{}
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}

	var channels int
	for channels = 0; channels < 32; channels++ {
		if header.ChannelSettings[channels] == 255 {
			break
		}
	}

	orders := make([]byte, header.Length)
	buf.Read(orders)
	orderIdx := make([]int, 0, len(orders))
	for _, pat := range orders {
		if pat == 255 {
			break
		}
		orderIdx = append(orderIdx, int(pat))
	}

	paras := make([]uint16, int(header.NumInstruments)+int(header.NumPatterns))
	if err := binary.Read(buf, binary.LittleEndian, paras); err != nil {
		return nil, err
	}

	instruments := make([]xmplayer.Instrument, header.NumInstruments)
	for i := 0; i < int(header.NumInstruments); i++ {
		if _, err := buf.Seek(int64(paras[i])*16, io.SeekStart); err != nil {
			return nil, err
		}
		instHdr := struct {
			Type         byte
			Filename     [12]byte
			MemSegHi     byte
			MemSegLo     uint16
			SampleLength uint16
			_            uint16
			LoopBegin    uint16
			_            uint16
			LoopEnd      uint16
			_            uint16
			Volume       byte
			_            byte
			Packing      byte
			Flags        byte
			C2Speed      uint16
			_            uint16
			_            [12]byte
			Name         [28]byte
			Scrs         [4]byte
		}{}
		if err := binary.Read(buf, binary.LittleEndian, &instHdr); err != nil {
			return nil, err
		}
		if instHdr.Type > 1 {
			return nil, fmt.Errorf("xmfile: unsupported S3M sample type %d", instHdr.Type)
		}
		if instHdr.Flags&4 == 4 {
			return nil, fmt.Errorf("xmfile: 16-bit S3M samples not supported")
		}

		length := int(instHdr.SampleLength)
		raw := make([]int8, length)
		if length > 0 {
			dataOffset := (uint(instHdr.MemSegHi)<<16 | uint(instHdr.MemSegLo)) * 16
			if _, err := buf.Seek(int64(dataOffset), io.SeekStart); err != nil {
				return nil, err
			}
			if err := binary.Read(buf, binary.LittleEndian, raw); err != nil {
				return nil, err
			}
			for j := range raw {
				raw[j] = int8(byte(raw[j]) ^ 128)
			}
		}

		name := strings.TrimRight(string(instHdr.Name[:]), "\x00")
		loopLen := int(instHdr.LoopEnd) - int(instHdr.LoopBegin)
		samp := xmplayer.Sample{
			Name:       name,
			Data:       pcm8ToFloat(raw),
			LoopType:   loopType(0, loopLen > 0),
			LoopStart:  int(instHdr.LoopBegin),
			LoopLength: loopLen,
			Volume:     float32(instHdr.Volume) / 64.0,
			Panning:    0.5,
		}
		instruments[i] = wrapSampleAsInstrument(name, samp)
	}

	patterns := make([]xmplayer.Pattern, header.NumPatterns)
	for i := 0; i < int(header.NumPatterns); i++ {
		if _, err := buf.Seek(int64(paras[i+int(header.NumInstruments)])*16, io.SeekStart); err != nil {
			return nil, err
		}

		var packedLen int16
		if err := binary.Read(buf, binary.LittleEndian, &packedLen); err != nil {
			return nil, err
		}
		packedLen -= 2

		slots := make([]xmplayer.PatternSlot, 64*channels)

		row := 0
		for packedLen > 0 {
			b, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			packedLen--
			if b == 0 {
				row++
				if row >= 64 {
					break
				}
				continue
			}

			chn := int(b & 31)
			if chn >= channels {
				skip := []int64{0, 2, 1, 3, 2, 4, 3, 5}[b>>5]
				buf.Seek(skip, io.SeekCurrent)
				packedLen -= int16(skip)
				continue
			}

			slot := &slots[row*channels+chn]

			if b&32 == 32 {
				noter, _ := buf.ReadByte()
				intr, _ := buf.ReadByte()
				packedLen -= 2
				if noter < 254 {
					slot.Note = 1 + 12 + 12*int(noter>>4) + int(noter&0xF)
				} else if noter == 254 {
					slot.Note = xmplayer.NoteKeyOff
				}
				slot.Instrument = int(intr)
			}

			if b&64 == 64 {
				vol, _ := buf.ReadByte()
				packedLen--
				slot.Volume = 0x10 + int(vol)
			}

			if b&128 == 128 {
				efct, _ := buf.ReadByte()
				parm, _ := buf.ReadByte()
				packedLen -= 2
				e, p := convertS3MEffect(efct, parm)
				slot.Effect = e
				slot.EffectParam = p
			}
		}

		patterns[i] = xmplayer.Pattern{Rows: 64, Channels: channels, Slots: slots}
	}

	mod := &xmplayer.Module{
		Title:           strings.TrimRight(string(title), "\x00"),
		FrequencyType:   xmplayer.AmigaFrequencies,
		RestartPosition: 0,
		Channels:        channels,
		PatternOrder:    orderIdx,
		Tempo:           int(header.Speed),
		BPM:             int(header.Tempo),
		Instruments:     instruments,
		Patterns:        patterns,
	}
	dumpf("S3M %q: %d channels, %d patterns, %d instruments", mod.Title, channels, header.NumPatterns, header.NumInstruments)
	return mod, nil
}

func convertS3MEffect(efc, parm byte) (effect, param int) {
	effect, param = int(efc), int(parm)

	switch efc {
	case s3mEffectSetSpeed:
		effect = 0xF // effectSetSpeed
	case s3mEffectPatternJump:
		effect = 0xB // effectPositionJump
	case s3mEffectPatternBreak:
		effect = 0xD // effectPatternBreak
	case s3mEffectTonePortamento:
		effect = 0x3 // effectTonePortamento
	case s3mEffectSpecial:
		if parm>>4 == 0xB {
			effect = 0xE // effectExtended
			param = 0x60 | int(parm&0xF) // E6y pattern loop
		}
	}
	return
}
