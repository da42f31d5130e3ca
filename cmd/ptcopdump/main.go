// ptcopdump decodes a .ptcop file and prints its project structure
// (title, counts, master fields) to stdout, along with block-level decode
// traces via SetDumpWriter. Grounded on the teacher's cmd/moddump/main.go.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gopxtone/ptcop"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ptcopdump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing project filename")
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	ptcop.SetDumpWriter(os.Stdout)

	p, err := ptcop.Decode(data)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\nname: %q\n", p.Name)
	fmt.Printf("comment: %q\n", p.Comment)
	fmt.Printf("beat_num=%d beat_tempo=%.2f beat_clock=%d\n", p.BeatNum, p.BeatTempo, p.BeatClock)
	fmt.Printf("num_measures=%d repeat_measure=%d last_measure=%d\n", p.NumMeasures, p.RepeatMeasure, p.LastMeasure)
	fmt.Printf("units=%d woices=%d delays=%d overdrives=%d events=%d\n",
		len(p.Units), len(p.Woices), len(p.Delays), len(p.Overdrives), p.Events.Len())

	for i, u := range p.Units {
		fmt.Printf("  unit[%d]: name=%q muted=%v selected=%v\n", i, u.Name, u.Muted, u.Selected)
	}
	for i, w := range p.Woices {
		fmt.Printf("  woice[%d]: name=%q kind=%v voices=%d\n", i, w.Name, w.Kind, len(w.Voices()))
	}
}
