// ptcopwav decodes a .ptcop project and renders it to a WAV file.
// Grounded on the teacher's cmd/modwav/main.go (flag-parsed filename,
// drive the renderer in a loop, write frames through the wav package),
// adapted from the teacher's polling render loop to the Sampler's
// IsDoneSampling/Sample contract and arbitrary channel count.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/gopxtone/ptcop"
	"github.com/gopxtone/ptcop/wav"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ptcopwav: ")

	channels := flag.Int("channels", 2, "output channel count (1 or 2)")
	sampleRate := flag.Int("rate", 44100, "output sample rate")
	outPath := flag.String("wav", "", "output WAV file path")
	loop := flag.Bool("loop", false, "loop playback instead of stopping at song end")
	masterVolume := flag.Float64("volume", 1.0, "master volume")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Missing project filename")
	}
	if *outPath == "" {
		log.Fatal("No -wav option provided")
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	project, err := ptcop.Decode(data)
	if err != nil {
		log.Fatal(err)
	}

	sampler := ptcop.NewSampler(project)
	sampler.SetAudioFormat(*channels, *sampleRate)
	sampler.SetMasterVolume(float32(*masterVolume))
	if *loop {
		sampler.SetLoop(true)
	}
	sampler.PrepareSample()

	wavF, err := os.Create(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, *sampleRate, *channels)
	if err != nil {
		log.Fatal(err)
	}
	defer wavW.Finish()

	buf := make([]int16, 2048*(*channels))
	for *loop || !sampler.IsDoneSampling() {
		if err := sampler.Sample(buf); err != nil {
			log.Fatal(err)
		}
		if err := wavW.WriteInterleaved(buf); err != nil {
			log.Fatal(err)
		}
		if *loop && sampler.NowClock() >= sampler.EndClock() {
			break
		}
	}
}
