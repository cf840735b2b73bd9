// Command stabilizer-replay reads back a binary tick log written by
// stabilizer-sim (or the production control loop) and prints a per-tick
// summary, feeding a captured log back through for inspection without any
// network re-transmission — this one just reports.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"lipm-stabilizer-go/telemetry"
)

func main() {
	path := flag.String("in", "", "tick log to replay")
	limit := flag.Int("limit", 0, "max ticks to print (0 = all)")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "--in required")
		os.Exit(1)
	}

	r, err := telemetry.NewReader(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open tick log: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	n := 0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read tick: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("t=%.3f state=%d dcm=%v zmp=%v leftFootRatio=%.3f\n",
			rec.TimestampSec, rec.State, rec.MeasuredDCM, rec.MeasuredZMP, rec.LeftFootRatio)
		n++
		if *limit > 0 && n >= *limit {
			break
		}
	}
	fmt.Printf("replayed %d ticks from %s\n", n, *path)
}
