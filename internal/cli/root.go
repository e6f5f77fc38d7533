package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/model"
)

const version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "semsolver",
	Short: "Semsolver - crossword clue solver over a public knowledge graph",
	Long: `Semsolver answers short crossword clues such as "Capital of France [5]".

It recognises the entities a clue mentions in DBpedia, walks their
neighbourhood through a small domain ontology, keeps the candidates whose
letter counts fit the answer structure and ranks them by graph distance.
Answers are remembered in a local knowledge base for later runs.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Options{Debug: verbose})
		if used := viper.ConfigFileUsed(); used != "" {
			logging.Debug("using config file", "path", used)
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Semsolver.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("semsolver " + version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.semsolver/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("endpoint", "", "SPARQL endpoint URL")
	rootCmd.PersistentFlags().String("kb", "", "knowledge base file")
	rootCmd.PersistentFlags().String("ontology", "", "domain ontology file")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("endpoint.url", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("knowledge_base.path", rootCmd.PersistentFlags().Lookup("kb"))
	_ = viper.BindPFlag("ontology.path", rootCmd.PersistentFlags().Lookup("ontology"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".semsolver"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SEMSOLVER_*, with "." in
	// nested keys written as "_"
	viper.SetEnvPrefix("SEMSOLVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}

// setDefaults registers every config key so environment variables can
// override nested values.
func setDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	flatten("", tree, func(key string, value any) {
		viper.SetDefault(key, value)
	})
}

func flatten(prefix string, tree map[string]any, set func(string, any)) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, set)
			continue
		}
		set(key, v)
	}
}

// loadConfig builds the effective configuration: flags, then environment,
// then config file, then defaults.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
