// gpkgclean - batch cleaner and exporter for GeoPackage layers
//
// Sanitizes layer and field names inside a GeoPackage, repairs broken
// geometries, writes a cleaned copy, imports the layers into PostGIS and
// replicates the QGIS styles to every destination.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/maviz991/gpkgclean/internal/cli"
)

// Version information (set via ldflags at build time)
// These variables are intentionally unused in code but set via ldflags
var (
	version   = "dev"     //nolint:unused // Set via ldflags
	buildTime = "unknown" //nolint:unused // Set via ldflags
)

func main() {
	if err := cli.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		_, _ = errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
