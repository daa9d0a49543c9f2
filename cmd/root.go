package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "doc",
	Short: "citation aware document tool",
	Example: `doc serve
doc context set -t <token> -u http://localhost:4001
doc create -t <title>
doc get -d <doc-id>
doc list
doc update -d <doc-id> -t <title> -c <content>
doc edit -d <doc-id> -a <text> -s <citation-id>
doc checkpoint list -d <doc-id>
doc restore -d <doc-id> -k <checkpoint-id> -y
doc export -d <doc-id> -f txt
doc citation search -q <query>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(contextCommand)
	rootCmd.AddCommand(createDocCmd())
	rootCmd.AddCommand(getDocCmd())
	rootCmd.AddCommand(listDocCmd())
	rootCmd.AddCommand(updateDocCmd())
	rootCmd.AddCommand(editDocCmd())
	rootCmd.AddCommand(exportDocCmd())
	rootCmd.AddCommand(restoreDocCmd())
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(citationCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
