package cli

import (
	"github.com/spf13/cobra"

	"github.com/maviz991/gpkgclean/internal/config"
	"github.com/maviz991/gpkgclean/internal/gpkg"
	"github.com/maviz991/gpkgclean/internal/sanitize"
)

var renameFieldsCmd = &cobra.Command{
	Use:   "rename-fields",
	Short: "Sanitize attribute field names in place",
	Long: `Rewrites the attribute field names of every layer inside the GeoPackage
itself, without copying. Duplicates after sanitization get numeric suffixes
in a single pass.`,
	RunE: runRenameFields,
}

func init() {
	renameFieldsCmd.Flags().StringP("input", "i", "", "GeoPackage file to modify")
	renameFieldsCmd.MarkFlagRequired("input")
	renameFieldsCmd.Flags().String("convention", "snake", "Naming convention: 'snake' or 'camel'")
	renameFieldsCmd.Flags().Int("truncate", 63, "Maximum identifier length")
}

func runRenameFields(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	convStr, _ := cmd.Flags().GetString("convention")
	truncate, _ := cmd.Flags().GetInt("truncate")

	conv, err := config.ParseConvention(convStr)
	if err != nil {
		return err
	}

	c, err := gpkg.Open(input)
	if err != nil {
		return err
	}
	defer c.Close()

	layers, err := c.Layers()
	if err != nil {
		return err
	}

	total := 0
	for _, layer := range layers {
		renames := sanitize.FieldRenames(layer.FieldNames(), conv, truncate)
		changed := renames.Changed()
		if len(changed) == 0 {
			infoColor.Printf("%s: nothing to rename\n", layer.Name)
			continue
		}
		n, err := c.RenameFields(layer.Name, renames)
		if err != nil {
			errorColor.Printf("✗ %s: %v\n", layer.Name, err)
			continue
		}
		for _, r := range changed[:n] {
			infoColor.Printf("%s: %s -> %s\n", layer.Name, r.From, r.To)
		}
		total += n
	}
	successColor.Printf("✓ Renamed %d fields in %d layers\n", total, len(layers))
	return nil
}
