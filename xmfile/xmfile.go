// Package xmfile parses tracker module files (XM, with MOD and S3M
// fallback support) into xmplayer.Module values. The playback engine
// itself never touches a byte of file data; this package is the
// supporting infrastructure that gets a real file in front of it.
package xmfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cmarshall-audio/xmplayer"
)

// DumpWriter, when non-nil, receives a line-oriented trace of what the
// loader decoded. Tools like xmdump set this; the loader itself never
// writes to stdout directly.
var DumpWriter interface {
	Write(p []byte) (int, error)
}

func dumpf(format string, args ...interface{}) {
	if DumpWriter == nil {
		return
	}
	fmt.Fprintf(DumpWriter, format+"\n", args...)
}

// LoadFromBytes dispatches to the right parser based on magic bytes
// (XM header text, S3M "SCRM" tag); any other input of at least 1084
// bytes is parsed as MOD.
func LoadFromBytes(data []byte) (*xmplayer.Module, error) {
	switch {
	case len(data) >= 17 && string(data[:17]) == "Extended Module: ":
		return loadXM(data)
	case len(data) >= 48 && string(data[44:48]) == "SCRM":
		return loadS3M(data)
	case len(data) >= 1084:
		return loadMOD(data)
	default:
		return nil, fmt.Errorf("xmfile: unrecognized module format (%d bytes)", len(data))
	}
}

// LoadFromBytesExt picks the parser from the file extension (.xm, .s3m or
// .mod, case-insensitive) without checking the content; any other
// extension falls back to LoadFromBytes.
func LoadFromBytesExt(name string, data []byte) (*xmplayer.Module, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xm":
		return loadXM(data)
	case ".s3m":
		return loadS3M(data)
	case ".mod":
		return loadMOD(data)
	}
	return LoadFromBytes(data)
}

// pcm8ToFloat converts signed 8-bit PCM into the engine's normalized
// float32 sample data.
func pcm8ToFloat(data []int8) []float32 {
	out := make([]float32, len(data))
	for i, s := range data {
		out[i] = float32(s) / 128.0
	}
	return out
}

// pcm16ToFloat converts signed 16-bit PCM (little-endian, already
// decoded into int16) into the engine's normalized float32 sample data.
func pcm16ToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, s := range data {
		out[i] = float32(s) / 32768.0
	}
	return out
}

func loopType(flags int, hasLoop bool) xmplayer.LoopType {
	if !hasLoop {
		return xmplayer.LoopNone
	}
	if flags&2 != 0 { // bit 1: ping-pong
		return xmplayer.LoopPingPong
	}
	return xmplayer.LoopForward
}

// wrapSampleAsInstrument builds the trivial one-sample, no-envelope
// Instrument that MOD and S3M patterns address directly (their pattern
// data names a sample, not a separate instrument).
func wrapSampleAsInstrument(name string, s xmplayer.Sample) xmplayer.Instrument {
	instr := xmplayer.Instrument{
		Name:    name,
		Samples: []xmplayer.Sample{s},
	}
	for n := 1; n < len(instr.NoteToSample); n++ {
		instr.NoteToSample[n] = 1 // sample index 0, 1-indexed
	}
	return instr
}
