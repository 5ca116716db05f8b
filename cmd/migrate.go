package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soundbay/config"
	"soundbay/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and exit",
	Long:  `Connect to the configured database, run the idempotent schema setup, and exit. The server runs the same setup at startup; this command exists for provisioning a database ahead of time.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		conn, err := db.Connect(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := db.InitDB(conn, cfg.DBDriver); err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize schema: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Database schema initialized.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
