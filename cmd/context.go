package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/client"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "document"
	configDir      = "./.tmp"
	defaultBaseURL = "http://localhost:4001"
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// Context is the server and credentials the commands talk to.
type Context struct {
	Token   string `json:"token" mapstructure:"token"`
	BaseURL string `json:"base_url" mapstructure:"base_url"`
}

// saves the context info to ./.tmp/document.yml
func setContextCommand() *cobra.Command {
	var token string
	var baseURL string
	command := &cobra.Command{
		Use:     "set",
		Short:   "set context",
		Example: "doc context set -t <token> -u http://localhost:4001",
		Run: func(cmd *cobra.Command, args []string) {
			if token == "" {
				color.Red(`missing: --token`)
				return
			}
			if baseURL == "" {
				baseURL = defaultBaseURL
			}

			if err := writeContext(Context{Token: token, BaseURL: baseURL}); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context saved")
		},
	}

	command.Flags().StringVarP(&token, "token", "t", "", "token")
	command.Flags().StringVarP(&baseURL, "url", "u", defaultBaseURL, "server base url")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := readContext()
			printField("Server", ctx.BaseURL)
			printField("Token", maskToken(ctx.Token))
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			if err := writeContext(Context{BaseURL: defaultBaseURL}); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context reset")
		},
	}

	return command
}

func writeContext(ctx Context) error {
	if err := ensureContextFile(); err != nil {
		return err
	}

	viper.SetConfigName(configFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("yml")
	viper.Set("context", map[string]string{
		"token":    ctx.Token,
		"base_url": ctx.BaseURL,
	})

	return viper.WriteConfig()
}

func readContext() Context {
	ctx := Context{BaseURL: defaultBaseURL}

	if err := ensureContextFile(); err != nil {
		fmt.Println("error creating config file: ", err)
		return ctx
	}

	viper.SetConfigName(configFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("error reading config file: ", err)
	}

	if err := viper.UnmarshalKey("context", &ctx); err != nil {
		fmt.Println("error unmarshalling config file: ", err)
	}
	if ctx.BaseURL == "" {
		ctx.BaseURL = defaultBaseURL
	}

	return ctx
}

// create the file if it doesn't exist
func ensureContextFile() error {
	path := filepath.Join(configDir, configFileName+".yml")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	return file.Close()
}

// newClient returns a REST client for the saved context and a context for
// one command invocation.
func newClient() (*client.Client, context.Context) {
	cfg := readContext()
	c := client.NewClient(cfg.BaseURL, client.WithToken(cfg.Token))
	return c, context.Background()
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
