// xmwav renders an XM/MOD/S3M module to a WAVE file, headless.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmarshall-audio/xmplayer"
	"github.com/cmarshall-audio/xmplayer/wav"
	"github.com/cmarshall-audio/xmplayer/xmfile"
)

const outputHz = 44100

func main() {
	log.SetFlags(0)
	log.SetPrefix("xmwav: ")

	wavOut := flag.String("wav", "", "output to a WAVE file")
	maxLoops := flag.Int("maxloops", 2, "stop after the song has looped this many times")
	historical := flag.Bool("historical", false, "reproduce FT2 playback quirks")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing module filename")
	}
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}

	modF, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	mod, err := xmfile.LoadFromBytesExt(flag.Arg(0), modF)
	if err != nil {
		log.Fatal(err)
	}

	player := xmplayer.NewPlayer(mod, outputHz, *historical)
	player.SetMaxLoopCount(*maxLoops)

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	defer wavW.Finish()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT)

	audioOut := make([]float32, 2048)

	playing := true
	go func() {
		<-c
		playing = false
	}()

	lastOrder := -1
	for playing && player.IsPlaying() {
		generated := player.GenerateAudio(audioOut)
		if err = wavW.WriteFrame(audioOut[:generated*2]); err != nil {
			log.Fatal(err)
		}

		if state := player.State(); state.Order != lastOrder {
			fmt.Printf("%d/%d\n", state.Order+1, len(mod.PatternOrder))
			lastOrder = state.Order
		}
	}
}
