package pipeline

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

// Print writes the per-layer table and the destination totals.
func (rep *Report) Print(w io.Writer) {
	infoColor.Fprintln(w, "\n=== Run report ===")

	for i := range rep.Layers {
		r := &rep.Layers[i]
		if r.Failed() {
			errorColor.Fprintf(w, "✗ %s", r.Source)
		} else {
			successColor.Fprintf(w, "✓ %s", r.Source)
		}
		if r.CleanName != "" && r.CleanName != r.Source {
			fmt.Fprintf(w, " -> %s", r.CleanName)
		}
		fmt.Fprintln(w)

		printStage(w, "local", r.LocalWrite)
		printStage(w, "database", r.DBImport)
		printStage(w, "style (local)", r.LocalStyle)
		printStage(w, "style (database)", r.DBStyle)
		printStage(w, "sld file", r.SLDFile)

		if r.Repaired > 0 {
			warnColor.Fprintf(w, "    %d geometries repaired\n", r.Repaired)
		}
		if r.Skipped > 0 {
			warnColor.Fprintf(w, "    %d invalid geometries skipped\n", r.Skipped)
		}
	}

	fmt.Fprintln(w)
	printTotal(w, "Local GeoPackage", rep.LocalOK, rep.LocalFail)
	printTotal(w, "PostGIS", rep.DBOK, rep.DBFail)
	printTotal(w, "Styles", rep.StyleOK, rep.StyleFail)
	printTotal(w, "SLD files", rep.SLDOK, rep.SLDFail)

	if n := rep.FailedLayers(); n > 0 {
		errorColor.Fprintf(w, "\n%d of %d layers had failures\n", n, len(rep.Layers))
	} else {
		successColor.Fprintf(w, "\nAll %d layers processed\n", len(rep.Layers))
	}
}

func printStage(w io.Writer, label string, o Outcome) {
	switch o.Status {
	case StageSuccess:
		fmt.Fprintf(w, "    %-18s ok\n", label)
	case StageFailed:
		errorColor.Fprintf(w, "    %-18s failed: %s\n", label, o.Reason)
	}
}

func printTotal(w io.Writer, label string, ok, fail int) {
	total := ok + fail
	if total == 0 {
		return
	}
	if fail > 0 {
		errorColor.Fprintf(w, "%s: %d/%d ok\n", label, ok, total)
	} else {
		successColor.Fprintf(w, "%s: %d/%d ok\n", label, ok, total)
	}
}
