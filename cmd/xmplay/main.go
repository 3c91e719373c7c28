// xmplay is an interactive terminal player for XM/MOD/S3M modules.
// Uses portaudio for audio output.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cmarshall-audio/xmplayer"
	"github.com/cmarshall-audio/xmplayer/cmd/internal/config"
	"github.com/cmarshall-audio/xmplayer/xmfile"
)

var (
	flagHz         = flag.Int("hz", 44100, "output hz")
	flagStartOrd   = flag.Int("start", 0, "starting order in the module, clamped to song max")
	flagNoUI       = flag.Bool("noui", false, "disable terminal UI rendering")
	flagReverb     = flag.String("reverb", "light", "reverb amount: none, light, medium, silly")
	flagHistorical = flag.Bool("historical", false, "reproduce FT2 playback quirks")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("xmplay: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing module filename")
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	mod, err := xmfile.LoadFromBytesExt(flag.Arg(0), data)
	if err != nil {
		log.Fatal(err)
	}

	player := xmplayer.NewPlayer(mod, *flagHz, *flagHistorical)
	player.GoTo(min(*flagStartOrd, len(mod.PatternOrder)-1), 0)

	reverb, err := config.ReverbFromFlag(*flagReverb, *flagHz)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(mod.Title)

	play(player, reverb)
}
