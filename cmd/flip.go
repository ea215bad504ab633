package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/avm-cli/internal/model"
)

var flipReq model.FlipRequest

var flipCmd = &cobra.Command{
	Use:   "flip",
	Short: "Score the resale potential of a unit",
	Example: `  avm flip --type Villa --area "Arabian Ranches" --size 300`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.ScoreFlip(cmd.Context(), flipReq)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	f := flipCmd.Flags()
	f.StringVar(&flipReq.PropertyType, "type", "", "property type")
	f.StringVar(&flipReq.Area, "area", "", "area name")
	f.Float64Var(&flipReq.Size, "size", 0, "floor area in square meters")
	f.StringVar(&flipReq.Bedrooms, "bedrooms", "", "bedroom label")
	rootCmd.AddCommand(flipCmd)
}
