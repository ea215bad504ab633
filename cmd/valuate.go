package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/avm-cli/internal/model"
)

var valuateFlags struct {
	propertyType string
	area         string
	size         float64
	bedrooms     string
	status       string
	floor        int
	view         string
	age          int
	project      string
	minESG       int
	minFlip      int
}

var valuateCmd = &cobra.Command{
	Use:   "valuate",
	Short: "Estimate the market value of a unit",
	Example: `  avm valuate --type Unit --area "Dubai Marina" --size 100 --bedrooms "2 B/R"
  avm valuate --type Villa --area "Arabian Ranches" --size 320 --age 8 --view "Golf Course"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.Valuate(cmd.Context(), valuationRequest(cmd.Flags()))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// valuationRequest builds the request from flags. Optional numbers are set
// only when the flag was passed.
func valuationRequest(fs *pflag.FlagSet) model.ValuationRequest {
	f := valuateFlags
	req := model.ValuationRequest{
		PropertyType:      f.propertyType,
		Area:              f.area,
		Size:              f.size,
		Bedrooms:          f.bedrooms,
		DevelopmentStatus: f.status,
		ViewType:          f.view,
		ProjectName:       f.project,
	}
	if fs.Changed("floor") {
		req.FloorLevel = &f.floor
	}
	if fs.Changed("age") {
		req.PropertyAge = &f.age
	}
	if fs.Changed("esg-min") {
		req.MinESGScore = &f.minESG
	}
	if fs.Changed("flip-min") {
		req.MinFlipScore = &f.minFlip
	}
	return req
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := valuateCmd.Flags()
	f.StringVar(&valuateFlags.propertyType, "type", "", "property type (Unit, Villa, Building, Land)")
	f.StringVar(&valuateFlags.area, "area", "", "area name")
	f.Float64Var(&valuateFlags.size, "size", 0, "floor area in square meters")
	f.StringVar(&valuateFlags.bedrooms, "bedrooms", "", "bedroom label, e.g. \"2 B/R\" or Studio")
	f.StringVar(&valuateFlags.status, "status", "", "development status (Ready, Off-Plan)")
	f.IntVar(&valuateFlags.floor, "floor", 0, "floor level")
	f.StringVar(&valuateFlags.view, "view", "", "view type, e.g. Sea or Burj Khalifa")
	f.IntVar(&valuateFlags.age, "age", 0, "building age in years")
	f.StringVar(&valuateFlags.project, "project", "", "project name (default: project of the closest comparable)")
	f.IntVar(&valuateFlags.minESG, "esg-min", 0, "minimum ESG score of comparables")
	f.IntVar(&valuateFlags.minFlip, "flip-min", 0, "minimum flip score of comparables")
	rootCmd.AddCommand(valuateCmd)
}
