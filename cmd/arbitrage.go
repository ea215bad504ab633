package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/avm-cli/internal/model"
)

var arbitrageReq model.ArbitrageRequest

var arbitrageCmd = &cobra.Command{
	Use:   "arbitrage",
	Short: "Score buying at an asking price to rent out",
	Example: `  avm arbitrage --type Unit --area "JVC" --size 60 --price 700000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.ScoreArbitrage(cmd.Context(), arbitrageReq)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	f := arbitrageCmd.Flags()
	f.StringVar(&arbitrageReq.PropertyType, "type", "", "property type")
	f.StringVar(&arbitrageReq.Area, "area", "", "area name")
	f.Float64Var(&arbitrageReq.Size, "size", 0, "floor area in square meters")
	f.Float64Var(&arbitrageReq.AskingPrice, "price", 0, "asking price")
	rootCmd.AddCommand(arbitrageCmd)
}
