package cmd

import (
	"nftlend/worker/scanner"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "scan borrowers and export their risk state",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := signal.WithContext(commandContext(cmd, "worker"))
		log := logger.FromContext(ctx)

		database := provideDatabase()
		defer database.Close()

		properties := providePropertyStore(database)
		p := providePool(ctx, database, properties)

		job := scanner.New(p, properties, cfg.Scanner)
		if once, _ := cmd.Flags().GetBool("once"); once {
			report, err := job.Scan(ctx)
			if err != nil {
				log.WithError(err).Errorln("scan")
				return
			}

			printJSON(cmd, report)
			return
		}

		_ = job.Start()
		log.Infoln("scanner started", cfg.Scanner.Spec)

		<-ctx.Done()
		_ = job.Stop()
		log.Infoln("scanner stopped")
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().Bool("once", false, "scan once and print the report")
}
