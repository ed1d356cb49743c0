package cli

import (
	"fmt"
	"reflect"

	"github.com/binhbb2204/bookhub/cli/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage configuration",
	Long:        `View and modify BookHub CLI configuration.`,
	Annotations: map[string]string{annotationStandalone: "true"},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("Configuration not initialized")
			outln("Run: bookhub init")
			return err
		}

		outln("Current Configuration:")
		outln("----------------------")

		v := reflect.ValueOf(*cfg)
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			section := v.Field(i)
			outf("[%s]\n", t.Field(i).Tag.Get("yaml"))
			for j := 0; j < section.NumField(); j++ {
				tag := section.Type().Field(j).Tag.Get("yaml")
				if tag == "" {
					tag = section.Type().Field(j).Name
				}
				outf("  %s: %v\n", tag, section.Field(j).Interface())
			}
			outln()
		}
		if cfg.BaseURL() != cfg.API.BaseURL {
			outf("BOOKHUB_API_URL overrides api.base_url: %s\n", cfg.BaseURL())
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value. Key should be in format 'section.key'.

Keys: api.base_url, api.timeout_seconds, storage.backend, storage.path,
display.page_size, display.sequenced, logging.level, logging.json, logging.path`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		cfg, err := config.Load()
		if err != nil {
			printError("Configuration not initialized")
			return err
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		printSuccess(fmt.Sprintf("Updated %s to %s", key, value))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
