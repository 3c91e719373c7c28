// xmdump prints the loader's summary of how a module file was parsed:
// title, channel count, pattern count and instrument/sample count.
package main

import (
	"log"
	"os"

	"github.com/cmarshall-audio/xmplayer/xmfile"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("xmdump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing module filename")
	}

	songFName := os.Args[1]
	songF, err := os.ReadFile(songFName)
	if err != nil {
		log.Fatal(err)
	}

	xmfile.DumpWriter = os.Stdout

	if _, err := xmfile.LoadFromBytesExt(songFName, songF); err != nil {
		log.Fatal(err)
	}
}
