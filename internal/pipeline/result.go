// Package pipeline runs the per-layer clean-and-export flow and aggregates
// the run report.
package pipeline

import (
	"fmt"

	"github.com/maviz991/gpkgclean/internal/sanitize"
)

// Status classifies the outcome of a single stage for a single layer.
type Status int

const (
	// StageSkipped means the stage was disabled or not reached.
	StageSkipped Status = iota
	// StageSuccess means the stage completed.
	StageSuccess
	// StageFailed means the stage errored; Reason carries the cause.
	StageFailed
)

// Outcome is the result of one stage for one layer.
type Outcome struct {
	Status Status
	Reason string
}

func success() Outcome {
	return Outcome{Status: StageSuccess}
}

func failed(err error) Outcome {
	return Outcome{Status: StageFailed, Reason: err.Error()}
}

// LayerResult records everything that happened to one layer.
type LayerResult struct {
	Index     int    // position in the enumeration, zero-based
	Source    string // original layer name
	CleanName string // sanitized destination table name
	Renames   sanitize.RenameMap

	Features int // features written to the local container
	Repaired int // geometries repaired while copying
	Skipped  int // invalid geometries dropped during the database import

	LocalWrite Outcome
	LocalStyle Outcome
	DBImport   Outcome
	DBStyle    Outcome
	SLDFile    Outcome
}

// Failed reports whether any stage of the layer failed.
func (r *LayerResult) Failed() bool {
	for _, o := range []Outcome{r.LocalWrite, r.LocalStyle, r.DBImport, r.DBStyle, r.SLDFile} {
		if o.Status == StageFailed {
			return true
		}
	}
	return false
}

// Report aggregates the whole run.
type Report struct {
	Layers []LayerResult

	LocalOK   int
	LocalFail int
	DBOK      int
	DBFail    int
	StyleOK   int
	StyleFail int
	SLDOK     int
	SLDFail   int
}

// Add folds one layer result into the counters.
func (rep *Report) Add(r LayerResult) {
	rep.Layers = append(rep.Layers, r)
	count := func(o Outcome, ok, fail *int) {
		switch o.Status {
		case StageSuccess:
			*ok++
		case StageFailed:
			*fail++
		}
	}
	count(r.LocalWrite, &rep.LocalOK, &rep.LocalFail)
	count(r.DBImport, &rep.DBOK, &rep.DBFail)
	count(r.LocalStyle, &rep.StyleOK, &rep.StyleFail)
	count(r.DBStyle, &rep.StyleOK, &rep.StyleFail)
	count(r.SLDFile, &rep.SLDOK, &rep.SLDFail)
}

// FailedLayers returns how many layers had at least one failed stage.
func (rep *Report) FailedLayers() int {
	n := 0
	for i := range rep.Layers {
		if rep.Layers[i].Failed() {
			n++
		}
	}
	return n
}

// Summary is a one-line rendering for logs.
func (rep *Report) Summary() string {
	return fmt.Sprintf("%d layers, %d with failures (local %d/%d, database %d/%d, styles %d/%d, sld %d/%d)",
		len(rep.Layers), rep.FailedLayers(),
		rep.LocalOK, rep.LocalOK+rep.LocalFail,
		rep.DBOK, rep.DBOK+rep.DBFail,
		rep.StyleOK, rep.StyleOK+rep.StyleFail,
		rep.SLDOK, rep.SLDOK+rep.SLDFail)
}
