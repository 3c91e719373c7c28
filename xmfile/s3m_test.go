package xmfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// s3mHeader mirrors the anonymous header struct loadS3M reads, so tests
// can build fixtures with binary.Write instead of hand-packing offsets.
type s3mHeader struct {
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
}

type s3mInstrHeader struct {
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
}

// buildS3M assembles a one-instrument, one-pattern S3M file using 16-byte
// paragraph addressing, the same scheme loadS3M seeks with.
func buildS3M(t *testing.T, packedPattern []byte, pcm []byte) []byte {
	t.Helper()
	var buf bytes.Buffer

	title := make([]byte, 28)
	copy(title, "test song")
	buf.Write(title)

	channels := 4
	var chanSettings [32]byte
	for i := range chanSettings {
		chanSettings[i] = 255
	}
	for i := 0; i < channels; i++ {
		chanSettings[i] = byte(i)
	}

	hdr := s3mHeader{
		Length:          1,
		NumInstruments:  1,
		NumPatterns:     1,
		Speed:           6,
		Tempo:           125,
		ChannelSettings: chanSettings,
	}
	hdr.Filetype = 0x10
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatalf("writing s3m header: %v", err)
	}

	buf.WriteByte(0) // order entry, pattern 0

	// Paragraph table: one instrument pointer, one pattern pointer.
	// Content for each is placed immediately after the table itself, each
	// rounded up to a 16-byte paragraph boundary.
	headerSoFar := 28 + binarySize(hdr) + 1
	parasStart := headerSoFar
	parasLen := 2 * 2 // uint16 each
	instrPara := (parasStart + parasLen + 15) / 16
	instrHdrParas := (binarySize(s3mInstrHeader{}) + 15) / 16
	dataPara := instrPara + instrHdrParas + 1
	patternPara := dataPara + (len(pcm)+15)/16 + 1

	binary.Write(&buf, binary.LittleEndian, uint16(instrPara))
	binary.Write(&buf, binary.LittleEndian, uint16(patternPara))

	buf.Write(make([]byte, instrPara*16-buf.Len()))

	instrHdr := s3mInstrHeader{
		Type:         1,
		SampleLength: uint16(len(pcm)),
		LoopEnd:      0,
		Volume:       64,
		MemSegLo:     uint16(dataPara),
	}
	binary.Write(&buf, binary.LittleEndian, &instrHdr)

	buf.Write(make([]byte, dataPara*16-buf.Len()))
	for _, b := range pcm {
		buf.WriteByte(byte(int8(b)) ^ 128) // store as S3M's unsigned convention
	}

	buf.Write(make([]byte, patternPara*16-buf.Len()))
	var packedLen uint16 = uint16(len(packedPattern) + 2)
	binary.Write(&buf, binary.LittleEndian, packedLen)
	buf.Write(packedPattern)

	out := buf.Bytes()
	copy(out[44:48], "SCRM")
	return out
}

func binarySize(v interface{}) int {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, v)
	return buf.Len()
}

func TestLoadS3MHeaderAndInstrument(t *testing.T) {
	pcm := []byte{10, 20, 30, 40}
	data := buildS3M(t, nil, pcm)

	mod, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if mod.Channels != 4 {
		t.Errorf("expected 4 active channels, got %d", mod.Channels)
	}
	if mod.Tempo != 6 || mod.BPM != 125 {
		t.Errorf("expected Speed/Tempo 6/125, got %d/%d", mod.Tempo, mod.BPM)
	}
	if len(mod.Instruments) != 1 {
		t.Fatalf("expected 1 instrument, got %d", len(mod.Instruments))
	}
	data2 := mod.Instruments[0].Samples[0].Data
	if len(data2) != len(pcm) {
		t.Fatalf("expected %d decoded frames, got %d", len(pcm), len(data2))
	}
	// S3M PCM is stored unsigned; loadS3M XORs it back to signed before
	// the shared pcm8ToFloat conversion.
	want := float32(int8(byte(pcm[0]))) / 128.0
	if data2[0] < want-0.001 || data2[0] > want+0.001 {
		t.Errorf("sample[0] = %v, want ~%v", data2[0], want)
	}
}

func TestLoadS3MPackedPatternNote(t *testing.T) {
	var cell bytes.Buffer
	cell.WriteByte(0 | 32) // channel 0, note+instrument present
	cell.WriteByte(1<<4 + 1)
	cell.WriteByte(1)
	cell.WriteByte(0) // end of row 0
	for i := 1; i < 64; i++ {
		cell.WriteByte(0) // empty rows
	}

	data := buildS3M(t, cell.Bytes(), nil)
	mod, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if len(mod.Patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(mod.Patterns))
	}
	slot := mod.Patterns[0].Slots[0]
	if slot.Note == 0 || slot.Instrument != 1 {
		t.Errorf("expected row 0 channel 0 to carry a note and instrument 1, got %+v", slot)
	}
}
