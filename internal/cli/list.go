package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maviz991/gpkgclean/internal/gpkg"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the vector layers of a GeoPackage",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringP("input", "i", "", "Input GeoPackage file")
	listCmd.MarkFlagRequired("input")
}

func runList(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	src, err := gpkg.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	descriptors, err := src.SublayerDescriptors()
	if err != nil {
		return err
	}
	if len(descriptors) == 0 {
		warnColor.Println("No vector layers found")
		return nil
	}

	infoColor.Printf("Layers in %s:\n", input)
	for _, d := range descriptors {
		parts := strings.Split(d, gpkg.SublayerSeparator)
		if len(parts) < 4 {
			fmt.Printf("  %s\n", gpkg.ParseSublayerName(d))
			continue
		}
		fmt.Printf("  %s. %s (%s features, %s)\n", parts[0], parts[1], parts[2], parts[3])
	}
	return nil
}
