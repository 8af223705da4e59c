// Package cli provides the command-line interface for gpkgclean.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maviz991/gpkgclean/internal/config"
)

var (
	// Colors for output
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

var rootCmd = &cobra.Command{
	Use:   "gpkgclean",
	Short: "Clean GeoPackage layer names and export to PostGIS",
	Long: `gpkgclean - batch cleaner and exporter for GeoPackage layers

Sanitizes layer and field names (accents stripped, snake_case or camelCase,
optional prefix), repairs broken geometries, writes a cleaned GeoPackage,
imports the layers into PostGIS and carries the QGIS styles along, with
field references inside the QML/SLD payloads rewritten to the new names.`,
	Example: `  # Full flow: clean, write local copy, upload to PostGIS with styles
  gpkgclean clean -i mapa.gpkg -c Planejamento -p dpdu_

  # Only produce the cleaned local GeoPackage
  gpkgclean clean -i mapa.gpkg --no-upload --no-upload-styles

  # Repair and import straight into PostGIS with numbered table names
  gpkgclean import -i mapa.gpkg -c Planejamento -p dpdu_

  # See what is inside a container
  gpkgclean list -i mapa.gpkg`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(renameFieldsCmd)
	rootCmd.AddCommand(exportSLDCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// addNamingFlags registers the flags shared by every command that sanitizes
// names.
func addNamingFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("prefix", "p", "", "Prefix prepended to sanitized table names")
	cmd.Flags().String("convention", "snake", "Naming convention: 'snake' or 'camel'")
	cmd.Flags().Int("truncate", 63, "Maximum identifier length")
}

// addConnectionFlags registers the flags shared by every command that talks
// to PostGIS.
func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("connection", "c", "", "Saved connection name")
	cmd.Flags().String("connections-file", "", "Path of the saved-connections file")
	cmd.Flags().String("schema", "public", "Destination schema")
	cmd.Flags().String("geometry-column", "geom", "Destination geometry column name")
	cmd.Flags().Bool("overwrite", true, "Drop and recreate existing destination tables")
	cmd.Flags().Bool("create-index", true, "Create a spatial index on each imported table")
	cmd.Flags().Int("invalid", 1, "Invalid geometry policy: 0=keep, 1=skip, 2=abort")
}

// applyNamingFlags copies the changed naming flags onto cfg.
func applyNamingFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("prefix") {
		cfg.TablePrefix, _ = cmd.Flags().GetString("prefix")
	}
	if cmd.Flags().Changed("convention") {
		cfg.ConventionStr, _ = cmd.Flags().GetString("convention")
	}
	if cmd.Flags().Changed("truncate") {
		cfg.TruncateLimit, _ = cmd.Flags().GetInt("truncate")
	}
}

// applyConnectionFlags copies the changed connection flags onto cfg.
func applyConnectionFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("connection") {
		cfg.ConnectionName, _ = cmd.Flags().GetString("connection")
	}
	if cmd.Flags().Changed("connections-file") {
		cfg.ConnectionsFn, _ = cmd.Flags().GetString("connections-file")
	}
	if cmd.Flags().Changed("schema") {
		cfg.Schema, _ = cmd.Flags().GetString("schema")
	}
	if cmd.Flags().Changed("geometry-column") {
		cfg.GeometryColumn, _ = cmd.Flags().GetString("geometry-column")
	}
	if cmd.Flags().Changed("overwrite") {
		cfg.Overwrite, _ = cmd.Flags().GetBool("overwrite")
	}
	if cmd.Flags().Changed("create-index") {
		cfg.CreateIndex, _ = cmd.Flags().GetBool("create-index")
	}
	if cmd.Flags().Changed("invalid") {
		cfg.InvalidInt, _ = cmd.Flags().GetInt("invalid")
	}
}
