package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/config"
)

// KeyDBPath is the config key for the session database location.
const KeyDBPath = "db_path"

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change merge defaults",
	Long: `Show or change the defaults stored in the global config file.

Usage:
  refmerge config                          # Show effective options
  refmerge config get fuzzy_matching       # Get one value
  refmerge config set auto_sort off        # Change a default
  refmerge config set db_path ~/refs.db    # Move the session database

Keys:
  preserve_ids               Keep original top-level ids on updated records
  renumber_internal          Rewrite internal cross-reference ids
  include_unmatched_updates  Add unmatched updated records to the output
  fuzzy_matching             Pair records by content as well as by label
  auto_sort                  Interleave new records alphabetically
  ampersand_normalization    Write "and" in labels as &amp;
  db_path                    Session database location`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective options and paths",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one effective option",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store a default in the global config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

// ConfigResponse is the response for config show.
type ConfigResponse struct {
	ConfigPath string         `json:"config_path"`
	DBPath     string         `json:"db_path"`
	Options    config.Options `json:"options"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	opts, err := config.EffectiveOptions()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	resp := ConfigResponse{ConfigPath: config.GlobalConfigPath(), DBPath: config.DBPath(), Options: opts}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}
	fmt.Printf("config file: %s\n", resp.ConfigPath)
	fmt.Printf("db_path:     %s\n\n", resp.DBPath)
	for _, key := range config.OptionKeys {
		v, _ := opts.Get(key)
		fmt.Printf("%-26s %t\n", key, v)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if key == KeyDBPath {
		printValue(key, config.DBPath())
		return nil
	}

	opts, err := config.EffectiveOptions()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	v, err := opts.Get(key)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	printValue(key, fmt.Sprint(v))
	return nil
}

func printValue(key, value string) {
	if humanOutput {
		fmt.Println(value)
	} else {
		outputJSON(map[string]string{key: value})
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	updated := *cfg

	if key == KeyDBPath {
		updated.DBPath = config.ExpandTilde(value)
	} else {
		opts := config.DefaultOptions()
		if cfg.Defaults != nil {
			opts = *cfg.Defaults
		}
		if err := opts.Set(key, value); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		updated.Defaults = &opts
		v, _ := opts.Get(key)
		value = fmt.Sprint(v)
	}

	if err := config.SaveGlobalConfig(&updated); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}
