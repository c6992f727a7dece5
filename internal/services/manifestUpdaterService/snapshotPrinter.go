package manifestupdaterservice

import (
	"fmt"
	"io"

	"github.com/RobsonDevCode/deepguard/internal/models"
	"github.com/fatih/color"
)

// SnapshotPrinter tells the user where a snapshot can be found.
type SnapshotPrinter struct {
	out io.Writer
}

func NewSnapshotPrinter(out io.Writer) *SnapshotPrinter {
	return &SnapshotPrinter{out: out}
}

func (p *SnapshotPrinter) SnapshotTaken(event models.SnapshotEvent) {
	if event.Err != nil {
		fmt.Fprintf(p.out, "%s\n", color.YellowString("Could not capture a snapshot of %s: %v", event.Root, event.Err))
		return
	}

	if event.Result.URI != "" {
		fmt.Fprintf(p.out, "Explore this snapshot at %s\n", event.Result.URI)
	}
}
