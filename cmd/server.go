package cmd

import (
	"github.com/spf13/cobra"

	"soundbay/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Soundbay HTTP server",
	Long:  `Start the HTTP server: registration, login, song upload, listing and rating, plus static serving of uploaded files.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
