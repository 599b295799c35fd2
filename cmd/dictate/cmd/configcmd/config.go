package configcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"take-my-dictation/cmd/dictate/cmd/cli"
	"take-my-dictation/internal/config"
)

var (
	providerType string
	force        bool
)

// Cmd groups the config subcommands
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Create, show and validate the pipeline config file",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Write a config file with the default settings

- Secrets are written as ${VAR} references and resolved at load time
- An existing file is kept unless --force is given`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cli.Options.ConfigPath
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.SavePipelineFile(config.DefaultPipelineFileFor(providerType), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := cli.LoadConfig()
		if err != nil {
			return err
		}
		if file.Recognizer.APIKey != "" {
			file.Recognizer.APIKey = maskSecret(file.Recognizer.APIKey)
		}
		out, err := yaml.Marshal(file)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config file without transcribing anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadPipelineFile(cli.Options.ConfigPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", cli.Options.ConfigPath)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&providerType, "provider", "p", "openai", "recognizer to configure (openai or whisper_server)")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	Cmd.AddCommand(initCmd, showCmd, validateCmd)
}

// maskSecret keeps the first and last four characters of a key.
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
