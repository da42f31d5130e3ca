package ptcop

import (
	"fmt"
	"io"
)

// dumpWriter, when non-nil, receives a line of diagnostic text per block
// decoded by Decode. Grounded on the teacher's SetDumpWriter hook
// (cmd/moddump uses it to print block-level MOD/S3M decode traces).
var dumpWriter io.Writer

// SetDumpWriter directs block-level decode diagnostics to w, or disables
// them when w is nil. Intended for tools like cmd/ptcopdump; never required
// for correct decoding.
func SetDumpWriter(w io.Writer) { dumpWriter = w }

func dumpf(format string, args ...interface{}) {
	if dumpWriter != nil {
		fmt.Fprintf(dumpWriter, format+"\n", args...)
	}
}

// DumpStructure writes a human-readable summary of p's master fields,
// units, woices and event counts to w.
func DumpStructure(w io.Writer, p *Project) {
	fmt.Fprintf(w, "name=%q comment=%q\n", p.Name, p.Comment)
	fmt.Fprintf(w, "beat_num=%d beat_tempo=%.2f beat_clock=%d num_measures=%d\n",
		p.BeatNum, p.BeatTempo, p.BeatClock, p.NumMeasures)
	fmt.Fprintf(w, "units (%d):\n", len(p.Units))
	for i, u := range p.Units {
		fmt.Fprintf(w, "  [%d] name=%q muted=%v\n", i, u.Name, u.Muted)
	}
	fmt.Fprintf(w, "woices (%d):\n", len(p.Woices))
	for i, wo := range p.Woices {
		fmt.Fprintf(w, "  [%d] kind=%d name=%q voices=%d\n", i, wo.Kind, wo.Name, len(wo.Voices()))
	}
	fmt.Fprintf(w, "delays=%d overdrives=%d events=%d\n",
		len(p.Delays), len(p.Overdrives), p.Events.Len())
}
