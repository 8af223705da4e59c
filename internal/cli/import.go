package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/maviz991/gpkgclean/internal/config"
	"github.com/maviz991/gpkgclean/internal/pipeline"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Repair geometries and import layers straight into PostGIS",
	Long: `Imports every vector layer of a GeoPackage into PostGIS without writing a
local copy. Table names carry the layer's sequence number (prefix_01_name),
so a failed run can be retried for just the missing numbers with --layers.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringP("input", "i", "", "Input GeoPackage file")
	importCmd.Flags().IntSlice("layers", nil, "Only import these layer indices (zero-based retry list)")
	importCmd.Flags().Bool("fix-geometries", true, "Close unclosed polygon rings before importing")
	addNamingFlags(importCmd)
	addConnectionFlags(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	cfg.WriteLocalGPKG = false
	cfg.WriteLocalStyles = false
	cfg.UploadStyles = false
	cfg.NumberTables = true
	cfg.FixGeometries = true

	cfg.InputGPKG, _ = cmd.Flags().GetString("input")
	if cmd.Flags().Changed("layers") {
		cfg.LayerFilter, _ = cmd.Flags().GetIntSlice("layers")
	}
	if cmd.Flags().Changed("fix-geometries") {
		cfg.FixGeometries, _ = cmd.Flags().GetBool("fix-geometries")
	}
	applyNamingFlags(cmd, &cfg)
	applyConnectionFlags(cmd, &cfg)

	if err := cfg.ResolveEnums(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	report, err := pipeline.New(cfg, os.Stdout).Run()
	if err != nil {
		return err
	}
	if n := report.FailedLayers(); n > 0 {
		warnColor.Printf("Finished with failures: %s\n", report.Summary())
	} else {
		successColor.Printf("✓ %s\n", report.Summary())
	}
	return nil
}
