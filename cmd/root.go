package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "application-agent"
)

type Config struct {
	Profile  string          `mapstructure:"profile"`
	Provider string          `mapstructure:"provider"`
	Browser  *BrowserConfig  `mapstructure:"browser"`
	Fill     *FillConfig     `mapstructure:"fill"`
	Gemini   *GeminiConfig   `mapstructure:"gemini"`
	DeepSeek *DeepSeekConfig `mapstructure:"deepseek"`
}

type BrowserConfig struct {
	Headless   bool   `mapstructure:"headless"`
	ControlURL string `mapstructure:"control-url"`
}

type FillConfig struct {
	TypeDelayMs       int      `mapstructure:"type-delay-ms"`
	RescanWindowMs    int      `mapstructure:"rescan-window-ms"`
	MinConfidence     float64  `mapstructure:"min-confidence"`
	ExcludeCategories []string `mapstructure:"exclude-categories"`
	SkipPrefilled     bool     `mapstructure:"skip-prefilled"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type DeepSeekConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "application-agent detects job application forms and fills them from a stored profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("deepseek.api-key-file", "DEEPSEEK_API_KEY_FILE"); err != nil {
		log.Fatalf("binding DEEPSEEK_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is application-agent.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// The config file is optional: flags and env cover the minimal run.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	return config, nil
}
