package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maviz991/gpkgclean/internal/config"
	"github.com/maviz991/gpkgclean/internal/gpkg"
	"github.com/maviz991/gpkgclean/internal/sanitize"
	"github.com/maviz991/gpkgclean/internal/style"
)

var exportSLDCmd = &cobra.Command{
	Use:   "export-sld",
	Short: "Write one .sld file per layer to a folder",
	Long: `Exports the SLD style of every layer to a folder, with the field
references inside the documents rewritten to the sanitized names. Layers
without a registered style get a minimal default for their geometry type.`,
	RunE: runExportSLD,
}

func init() {
	exportSLDCmd.Flags().StringP("input", "i", "", "Input GeoPackage file")
	exportSLDCmd.MarkFlagRequired("input")
	exportSLDCmd.Flags().String("folder", "", "Destination folder (default: <input dir>/SLD)")
	exportSLDCmd.Flags().Bool("numbered", false, "Name files prefix_NN_layer.sld instead of layer.sld")
	addNamingFlags(exportSLDCmd)
}

func runExportSLD(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	folder, _ := cmd.Flags().GetString("folder")
	numbered, _ := cmd.Flags().GetBool("numbered")
	prefix, _ := cmd.Flags().GetString("prefix")
	convStr, _ := cmd.Flags().GetString("convention")
	truncate, _ := cmd.Flags().GetInt("truncate")

	conv, err := config.ParseConvention(convStr)
	if err != nil {
		return err
	}
	if folder == "" {
		folder = filepath.Join(filepath.Dir(input), "SLD")
	}

	src, err := gpkg.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	layers, err := src.Layers()
	if err != nil {
		return err
	}

	written := 0
	for i, layer := range layers {
		clean := sanitize.Identifier(layer.Name, sanitize.Options{Convention: conv, MaxLen: truncate})
		layer.CleanName = clean
		renames := sanitize.FieldRenames(layer.FieldNames(), conv, truncate)

		payload, err := style.Export(src, layer, renames)
		if err != nil {
			errorColor.Printf("✗ %s: %v\n", layer.Name, err)
			continue
		}

		fileName := style.SLDFileName("", 0, clean)
		if numbered {
			fileName = style.SLDFileName(strings.TrimSuffix(prefix, "_"), i+1, clean)
		}
		if _, err := style.WriteSLDFile(folder, fileName, payload.SLD); err != nil {
			errorColor.Printf("✗ %s: %v\n", layer.Name, err)
			continue
		}
		infoColor.Printf("%s -> %s\n", layer.Name, fileName)
		written++
	}
	successColor.Printf("✓ Wrote %d of %d SLD files to %s\n", written, len(layers), folder)
	return nil
}
