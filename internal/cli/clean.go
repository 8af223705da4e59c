package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/maviz991/gpkgclean/internal/config"
	"github.com/maviz991/gpkgclean/internal/pipeline"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean layer names and export to every enabled destination",
	Long: `Enumerates the vector layers of a GeoPackage, sanitizes table and field
names, then writes a cleaned local GeoPackage, imports into PostGIS and
replicates the styles, one layer at a time. Each stage can be switched off.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringP("input", "i", "", "Input GeoPackage file")
	cleanCmd.Flags().StringP("output", "o", "", "Output GeoPackage path (default: alongside the input)")
	cleanCmd.Flags().String("output-prefix", "limpo_", "Filename prefix for the generated GeoPackage")
	cleanCmd.Flags().String("config", "", "YAML run-config file; flags override its values")
	cleanCmd.Flags().IntSlice("layers", nil, "Only process these layer indices (zero-based)")
	cleanCmd.Flags().Bool("no-local", false, "Skip writing the cleaned local GeoPackage")
	cleanCmd.Flags().Bool("no-local-styles", false, "Skip the local style registry")
	cleanCmd.Flags().Bool("no-upload", false, "Skip the PostGIS import")
	cleanCmd.Flags().Bool("no-upload-styles", false, "Skip the PostGIS style registry")
	cleanCmd.Flags().Bool("sld", false, "Also write one .sld file per layer")
	cleanCmd.Flags().String("sld-folder", "", "Folder for the .sld files (default: <output dir>/SLD)")
	cleanCmd.Flags().Bool("fix-geometries", false, "Close unclosed polygon rings while copying")
	cleanCmd.Flags().String("on-duplicate", "suffix", "Colliding sanitized table names: 'suffix' or 'error'")
	addNamingFlags(cleanCmd)
	addConnectionFlags(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
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

// buildConfig assembles the run configuration: YAML file first when given,
// then every changed flag on top.
func buildConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if cmd.Flags().Changed("input") {
		cfg.InputGPKG, _ = cmd.Flags().GetString("input")
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputGPKG, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("output-prefix") {
		cfg.OutputPrefix, _ = cmd.Flags().GetString("output-prefix")
	}
	if cmd.Flags().Changed("layers") {
		cfg.LayerFilter, _ = cmd.Flags().GetIntSlice("layers")
	}
	if cmd.Flags().Changed("no-local") {
		v, _ := cmd.Flags().GetBool("no-local")
		cfg.WriteLocalGPKG = !v
	}
	if cmd.Flags().Changed("no-local-styles") {
		v, _ := cmd.Flags().GetBool("no-local-styles")
		cfg.WriteLocalStyles = !v
	}
	if cmd.Flags().Changed("no-upload") {
		v, _ := cmd.Flags().GetBool("no-upload")
		cfg.UploadToPostGIS = !v
	}
	if cmd.Flags().Changed("no-upload-styles") {
		v, _ := cmd.Flags().GetBool("no-upload-styles")
		cfg.UploadStyles = !v
	}
	if cmd.Flags().Changed("sld") {
		cfg.WriteSLDFiles, _ = cmd.Flags().GetBool("sld")
	}
	if cmd.Flags().Changed("sld-folder") {
		cfg.SLDFolder, _ = cmd.Flags().GetString("sld-folder")
	}
	if cmd.Flags().Changed("fix-geometries") {
		cfg.FixGeometries, _ = cmd.Flags().GetBool("fix-geometries")
	}
	if cmd.Flags().Changed("on-duplicate") {
		cfg.OnDuplicateS, _ = cmd.Flags().GetString("on-duplicate")
	}
	applyNamingFlags(cmd, &cfg)
	applyConnectionFlags(cmd, &cfg)

	if err := cfg.ResolveEnums(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
