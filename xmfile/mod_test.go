package xmfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/cmarshall-audio/xmplayer"
)

// buildMOD assembles a minimal 4-channel ProTracker MOD: a title, 31
// sample headers (only the first carries real data), a one-entry order
// table, the "M.K." signature, one pattern, then the sample data itself.
func buildMOD(t *testing.T, pattern []byte, pcm []byte) []byte {
	t.Helper()
	var buf bytes.Buffer

	title := make([]byte, 20)
	copy(title, "test song")
	buf.Write(title)

	type sampleHdr struct {
		Name      [22]byte
		Length    uint16
		FineTune  uint8
		Volume    uint8
		LoopStart uint16
		LoopLen   uint16
	}
	for i := 0; i < 31; i++ {
		h := sampleHdr{}
		if i == 0 {
			h.Length = uint16(len(pcm) / 2)
			h.Volume = 64
		}
		binary.Write(&buf, binary.BigEndian, &h)
	}

	buf.WriteByte(1) // NumOrders
	buf.WriteByte(0) // unused
	orderData := make([]byte, 128)
	buf.Write(orderData)

	buf.WriteString("M.K.")
	buf.Write(pattern)
	buf.Write(pcm)

	return buf.Bytes()
}

// modCell packs one MOD note/instrument/effect cell into its 4-byte wire
// form, the inverse of noteFromMODBytes.
func modCell(period int, instrument, effect, param int) []byte {
	b := make([]byte, 4)
	b[0] = byte((instrument&0xF0)&0xF0) | byte((period>>8)&0xF)
	b[1] = byte(period & 0xFF)
	b[2] = byte((instrument&0xF)<<4) | byte(effect&0xF)
	b[3] = byte(param)
	return b
}

func TestLoadMODHeaderAndPattern(t *testing.T) {
	var pattern bytes.Buffer
	pattern.Write(modCell(856, 1, 0, 0)) // period 856 (ProTracker C-1)
	for i := 1; i < modRowsPerPattern*4; i++ {
		pattern.Write(modCell(0, 0, 0, 0))
	}

	pcm := make([]byte, 8)
	data := buildMOD(t, pattern.Bytes(), pcm)

	mod, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if mod.Channels != 4 {
		t.Errorf("expected 4 channels from M.K. signature, got %d", mod.Channels)
	}
	if mod.FrequencyType != xmplayer.AmigaFrequencies {
		t.Errorf("MOD files should use Amiga frequency tables")
	}
	if len(mod.Patterns) != 1 || mod.Patterns[0].Rows != modRowsPerPattern {
		t.Fatalf("expected 1 pattern of %d rows, got %+v", modRowsPerPattern, mod.Patterns)
	}
	first := mod.Patterns[0].Slots[0]
	if first.Note == 0 || first.Instrument != 1 {
		t.Errorf("expected row 0 cell to carry a note and instrument 1, got %+v", first)
	}
}

func TestPeriodToNoteMonotonic(t *testing.T) {
	// Lower periods (higher pitch) must map to higher note numbers.
	n1 := periodToNote(856)
	n2 := periodToNote(428)
	if n2 <= n1 {
		t.Errorf("halving the period should raise the note number: %d -> %d", n1, n2)
	}
}

func TestLoadMODVolumeColumnFromEffectC(t *testing.T) {
	var pattern bytes.Buffer
	pattern.Write(modCell(856, 1, 0xC, 0x20)) // effect C = set volume
	for i := 1; i < modRowsPerPattern*4; i++ {
		pattern.Write(modCell(0, 0, 0, 0))
	}

	data := buildMOD(t, pattern.Bytes(), nil)
	mod, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	slot := mod.Patterns[0].Slots[0]
	if slot.Volume != 0x10+0x20 {
		t.Errorf("expected volume column set from effect C, got %d", slot.Volume)
	}
}
