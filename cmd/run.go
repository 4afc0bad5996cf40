package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sanketmuchhala/ApplicationAgent/internal/agent"
	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom/browser"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom/snapshot"
	"github.com/sanketmuchhala/ApplicationAgent/internal/fill"
	"github.com/sanketmuchhala/ApplicationAgent/internal/logger"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match/deepseek"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match/gemini"
	"github.com/sanketmuchhala/ApplicationAgent/internal/profile"
	"github.com/sanketmuchhala/ApplicationAgent/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes  = "Yes"
	PromptNo   = "No"
	PromptSkip = "Skip this form"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect application forms on a page and fill them from the profile",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("url", "u", "", "page url to open in a browser")
	runCmd.Flags().String("html", "", "local html file to analyze instead of a live page")
	runCmd.Flags().StringP("profile", "p", "", "profile yaml file")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before filling")
	runCmd.Flags().Bool("preview", false, "walk the fill without writing any value")

	viper.BindPFlag("profile", runCmd.Flags().Lookup("profile"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the application-agent", zap.String("version", version))

	profilePath := strings.TrimSpace(viper.GetString("profile"))
	if profilePath == "" {
		profilePath = config.Profile
	}
	if profilePath == "" {
		logger.Fatal("profile file is required", zap.String("hint", "pass --profile or set 'profile' in the configuration file"))
	}

	rec, err := profile.Load(profilePath)
	if err != nil {
		logger.Fatal("loading profile", zap.Error(err))
	}

	doc, cleanup, err := openDocument(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("opening document", zap.Error(err))
	}
	defer cleanup()

	provider, err := newProvider(ctx, config, logger)
	if err != nil {
		logger.Fatal("building matching provider", zap.Error(err))
	}

	a := newAgent(cmd, doc, provider, rec, config, logger)
	defer a.Stop()

	if page, ok := doc.(*browser.Page); ok {
		if err := page.ObserveMutations(a.NotifyMutation); err != nil {
			logger.Warn("mutation observer not installed", zap.Error(err))
		}
	}

	result := a.Scan()
	logger.Info("page scanned",
		zap.Int("context_confidence", result.ContextConfidence),
		zap.Int("forms", len(result.Forms)),
		zap.Int("fields", result.TotalFields()),
	)

	if len(result.Forms) == 0 {
		logger.Info("exiting", zap.String("reason", "no application forms detected"))
		return
	}

	for _, form := range result.Forms {
		if err := handleForm(ctx, cmd, a, form, config, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func newAgent(cmd *cobra.Command, doc dom.Document, provider match.Provider, rec *profile.Record, config *Config, l *zap.Logger) *agent.Agent {
	var execOpts []fill.ExecutorOption
	if config.Fill != nil && config.Fill.TypeDelayMs > 0 {
		execOpts = append(execOpts, fill.WithTypeDelay(time.Duration(config.Fill.TypeDelayMs)*time.Millisecond))
	}
	if cmd.Flag("preview").Value.String() == "true" {
		execOpts = append(execOpts, fill.WithPreview(true))
	}
	execOpts = append(execOpts, fill.WithProgress(func(fieldID string, state fill.State) {
		l.Debug("fill progress", zap.String("field_id", fieldID), zap.String("state", string(state)))
	}))

	opts := []agent.Option{agent.WithExecutor(fill.NewExecutor(l, execOpts...))}
	if config.Fill != nil && config.Fill.RescanWindowMs > 0 {
		opts = append(opts, agent.WithRescanInterval(time.Duration(config.Fill.RescanWindowMs)*time.Millisecond))
	}

	return agent.New(doc, provider, rec, l, opts...)
}

func handleForm(ctx context.Context, cmd *cobra.Command, a *agent.Agent, form *detect.Form, config *Config, logger *zap.Logger) error {
	logger.Info("detected form",
		zap.String("form_id", form.ID),
		zap.String("kind", string(form.Kind)),
		zap.Float64("confidence", form.Confidence),
		zap.Int("fields", len(form.Fields)),
	)

	bindings, err := a.Match(ctx, form.ID, nil)
	if err != nil {
		return fmt.Errorf("matching form %s: %w", form.ID, err)
	}

	bindings, err = match.RunFilters(logger, bindingFilters(form, config), bindings)
	if err != nil {
		return fmt.Errorf("filtering bindings for form %s: %w", form.ID, err)
	}
	if len(bindings) == 0 {
		logger.Info("skipping form", zap.String("form_id", form.ID), zap.String("reason", "no fields matched"))
		return nil
	}

	printPreview(form, bindings)

	if cmd.Flag("auto-approve").Value.String() == "false" {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Fill %d field(s) of %s?", len(bindings), form.ID),
			Items: []string{PromptYes, PromptSkip, PromptNo},
		}
		_, action, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		switch action {
		case PromptSkip:
			return nil
		case PromptNo:
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return errExit
		}
	}

	result, err := a.Fill(ctx, form.ID, bindings)
	if err != nil {
		return fmt.Errorf("filling form %s: %w", form.ID, err)
	}

	logger.Info("form filled",
		zap.String("form_id", form.ID),
		zap.Int("filled", result.FilledCount),
		zap.Int("total", result.TotalFields),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.Duration),
	)
	for _, fe := range result.Errors {
		logger.Warn("field not filled", zap.String("field_id", fe.FieldID), zap.String("error", fe.Message))
	}
	return nil
}

// bindingFilters assembles the configured pre-fill filters for a form.
func bindingFilters(form *detect.Form, config *Config) []match.Filter {
	if config.Fill == nil {
		return nil
	}

	var filters []match.Filter
	if len(config.Fill.ExcludeCategories) > 0 {
		filters = append(filters, match.NewExcludedCategories(config.Fill.ExcludeCategories))
	}
	if config.Fill.SkipPrefilled {
		filters = append(filters, match.NewSkipPrefilled(form.Fields))
	}
	if config.Fill.MinConfidence > 0 {
		filters = append(filters, match.NewMinConfidence(config.Fill.MinConfidence))
	}

	return filters
}

func printPreview(form *detect.Form, bindings []match.Binding) {
	fmt.Printf("\n%s (confidence %.0f):\n", form.ID, form.Confidence)
	for _, b := range bindings {
		label := b.Label
		if label == "" {
			label = b.FieldID
		}
		fmt.Printf("  %-30s %-12s -> %s (%.0f%%)\n", label, "["+string(b.Category)+"]", b.Value, b.Confidence)
	}
	fmt.Println()
}

// openDocument resolves the document source: a live browser page when --url
// is set, a parsed snapshot when --html is set.
func openDocument(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (dom.Document, func(), error) {
	pageURL := cmd.Flag("url").Value.String()
	htmlPath := cmd.Flag("html").Value.String()

	switch {
	case pageURL != "" && htmlPath != "":
		return nil, nil, errors.New("--url and --html are mutually exclusive")

	case htmlPath != "":
		markup, err := os.ReadFile(htmlPath)
		if err != nil {
			return nil, nil, fmt.Errorf("reading html file: %w", err)
		}
		doc, err := snapshot.ParseString(string(markup), "file://"+htmlPath)
		if err != nil {
			return nil, nil, err
		}
		return doc, func() {}, nil

	case pageURL != "":
		cfg := browser.Config{Headless: false}
		if config.Browser != nil {
			cfg.Headless = config.Browser.Headless
			cfg.ControlURL = config.Browser.ControlURL
		}
		b, err := browser.Launch(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		page, err := b.Open(ctx, pageURL)
		if err != nil {
			b.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := b.Close(); err != nil {
				logger.Warn("closing browser", zap.Error(err))
			}
		}
		return page, cleanup, nil

	default:
		return nil, nil, errors.New("either --url or --html is required")
	}
}

// newProvider builds the matching provider selected by configuration. The
// heuristic matcher is the default; remote providers need a credential.
func newProvider(ctx context.Context, config *Config, l *zap.Logger) (match.Provider, error) {
	name := strings.TrimSpace(strings.ToLower(config.Provider))

	switch name {
	case "", match.HeuristicID:
		return match.NewHeuristic(l), nil

	case gemini.ProviderID:
		if config.Gemini == nil {
			return nil, errors.New("gemini configuration is required when provider is gemini")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: config.Gemini.APIKey,
			File:  config.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}
		pl := logger.WithCommonFields(l, gemini.ProviderID, config.Gemini.Model)
		return gemini.New(ctx, apiKey, config.Gemini.Model, pl)

	case deepseek.ProviderID:
		if config.DeepSeek == nil {
			return nil, errors.New("deepseek configuration is required when provider is deepseek")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "deepseek api key",
			Value: config.DeepSeek.APIKey,
			File:  config.DeepSeek.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set deepseek.api-key-file or DEEPSEEK_API_KEY_FILE)", err)
		}
		pl := logger.WithCommonFields(l, deepseek.ProviderID, config.DeepSeek.Model)
		return deepseek.New(apiKey, pl,
			deepseek.WithModel(config.DeepSeek.Model),
			deepseek.WithBaseURL(config.DeepSeek.BaseURL),
		)

	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}
