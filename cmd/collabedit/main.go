// Command collabedit is a terminal collaborative editor with AI
// transforms, an assistant sidebar, and a web search agent.
package main

import (
	"fmt"
	"os"

	"collabedit/cmd/collabedit/ui"
	"collabedit/internal/agent"
	"collabedit/internal/ai"
	"collabedit/internal/chat"
	"collabedit/internal/config"
	"collabedit/internal/config/settings"
	"collabedit/internal/document"
	"collabedit/internal/logging"
	"collabedit/internal/selection"
	"collabedit/internal/transform"
	"collabedit/internal/webfetch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const welcomeContent = `Welcome to Live Collaborative Editor

This is a powerful editor with AI integration. Try selecting some text to see the floating toolbar!

You can:
- Select text and use AI to edit it
- Chat with AI in the sidebar
- Preview changes before applying them
- Use web search with AI agents

Start editing and explore the features!`

var (
	verbose    bool
	demoMode   bool
	crawl      bool
	configPath string
	apiKey     string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "collabedit",
	Short: "AI-augmented collaborative text editor for the terminal",
	Long: `collabedit is a terminal editor with AI integration.

Select text to transform it (shorten, lengthen, fix grammar, tabulate,
improve), chat with the assistant in the sidebar, or search the web and
insert summaries into the document.

Runs in demo mode with canned responses when no Gemini API key is
configured.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEditor()
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Store the Gemini API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		store, err := settings.Open(cfg.Storage.SettingsPath)
		if err != nil {
			return fmt.Errorf("open settings store: %w", err)
		}
		defer store.Close()
		if err := store.SetCredential(args[0]); err != nil {
			return err
		}
		fmt.Println("API key saved.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file path")
	rootCmd.Flags().BoolVar(&demoMode, "demo", false, "Force demo mode with canned AI responses")
	rootCmd.Flags().BoolVar(&crawl, "crawl", false, "Fetch real page content for agent crawls (needs Chrome)")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")

	rootCmd.AddCommand(setKeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runEditor() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Logging.Debug && !verbose {
		logger, err = logging.New(true)
		if err != nil {
			return err
		}
	}

	store, err := settings.Open(cfg.Storage.SettingsPath)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer store.Close()

	// Credential precedence: flag, stored key, config/env.
	credential := apiKey
	if credential == "" {
		if stored, err := store.Credential(); err == nil && stored != "" {
			credential = stored
		}
	}
	if credential == "" {
		credential = cfg.Gemini.APIKey
	}

	gateway := ai.NewGateway(ai.Config{
		Credential:        credential,
		DemoMode:          demoMode || cfg.DemoMode,
		BaseURL:           cfg.Gemini.BaseURL,
		Model:             cfg.Gemini.Model,
		SearchURLTemplate: cfg.Search.URLTemplate,
		Timeout:           cfg.GeminiTimeout(),
	}, store, logger)

	doc := document.NewBuffer(welcomeContent)
	tracker := selection.NewTracker(doc, logger)
	tracker.Attach()
	controller := transform.NewController(gateway, doc, logger)
	router := chat.NewRouter(gateway, logger)

	var fetcher agent.PageFetcher
	if crawl {
		f := webfetch.NewFetcher(logger)
		defer f.Close()
		fetcher = f
	}
	panel := agent.NewPanel(gateway, doc, fetcher, logger)

	// Pick up demo mode edits without a restart.
	watcher, err := config.NewWatcher(configPath, func(next config.Config) {
		gateway.SetDemoMode(demoMode || next.DemoMode)
	}, logger)
	if err == nil {
		if startErr := watcher.Start(); startErr == nil {
			defer watcher.Stop()
		} else {
			logger.Debug("config watcher not started", zap.Error(startErr))
		}
	}

	model := ui.NewModel(ui.Deps{
		Doc:        doc,
		Tracker:    tracker,
		Controller: controller,
		Router:     router,
		Panel:      panel,
		Gateway:    gateway,
		Styles:     ui.NewStyles(ui.ThemeByName(cfg.Theme)),
		Logger:     logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui error: %w", err)
	}
	return nil
}
