package cmd

import (
	"encoding/json"
	"os"

	"nftlend/internal/simulate"

	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "replay a scenario on an in memory pool",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext(cmd, "simulate")

		data, err := os.ReadFile(args[0])
		if err != nil {
			cmd.PrintErrln("read scenario:", err)
			return
		}

		scenario, err := simulate.Parse(data)
		if err != nil {
			cmd.PrintErrln("parse scenario:", err)
			return
		}

		runner, err := simulate.New(simulate.Setup{
			Pool:             cfg.Pool.Config,
			Assets:           cfg.Assets,
			Auctions:         cfg.Auctions,
			AssetPrices:      cfg.Oracle.Assets,
			CollectionPrices: cfg.Oracle.Collections,
		})
		if err != nil {
			cmd.PrintErrln("setup:", err)
			return
		}

		results, err := runner.Run(ctx, scenario)
		for _, result := range results {
			printJSON(cmd, result)
		}

		if err != nil {
			cmd.PrintErrln("scenario failed:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func printJSON(cmd *cobra.Command, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		cmd.PrintErrln(err)
		return
	}

	cmd.Println(string(data))
}
