package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nachoal/bolt-agent-go/agent"
	"github.com/nachoal/bolt-agent-go/config"
	"github.com/nachoal/bolt-agent-go/history"
	"github.com/nachoal/bolt-agent-go/internal/logging"
	"github.com/nachoal/bolt-agent-go/llm"
	"github.com/nachoal/bolt-agent-go/llm/gemini"
	"github.com/nachoal/bolt-agent-go/llm/ollama"
	"github.com/nachoal/bolt-agent-go/render"
	"github.com/nachoal/bolt-agent-go/tui"
	"github.com/nachoal/bolt-agent-go/tui/styles"
)

const (
	version = "0.1.0"

	// pickSession is the --resume value used when no session ID is given
	pickSession = "?"
)

var (
	// Flags
	continueConv bool
	resume       string
	attachPath   string
	rawOutput    bool

	// Root command
	rootCmd = &cobra.Command{
		Use:           "bolt",
		Short:         "Chat with Bolt, a multimodal assistant",
		Long:          "Bolt - a chat assistant for travel, tech, entertainment, documents and images",
		Version:       version,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Ask command for one-shot questions
	askCmd = &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask a single question without entering the TUI",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	// Sessions command
	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "List saved conversations",
		RunE:  listSessions,
	}

	// Config command shows the persisted defaults
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show the saved defaults",
		Args:  cobra.NoArgs,
		RunE:  showConfig,
	}

	// Set subcommand persists --provider, --model and --theme
	configSetCmd = &cobra.Command{
		Use:     "set",
		Short:   "Save --provider, --model and --theme as defaults",
		Example: "  bolt config set --provider ollama --model llava --theme nord",
		Args:    cobra.NoArgs,
		RunE:    setConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("provider", "", "Model provider (gemini, ollama)")
	rootCmd.PersistentFlags().String("model", "", "Model to use")
	rootCmd.PersistentFlags().String("theme", "", "Color theme ("+strings.Join(styles.ThemeNames(), ", ")+")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	// TUI-specific flags
	rootCmd.Flags().BoolVarP(&continueConv, "continue", "c", false, "Continue last conversation")
	rootCmd.Flags().StringVarP(&resume, "resume", "r", "", "Resume a session by ID, or pick one if no ID is given")
	rootCmd.Flags().Lookup("resume").NoOptDefVal = pickSession
	rootCmd.Flags().StringVarP(&attachPath, "attach", "a", "", "Put a document or image in context before chatting")

	askCmd.Flags().StringVarP(&attachPath, "attach", "a", "", "Put a document or image in context before asking")
	askCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print the model's text as it streams, annotations included")

	// Add subcommands
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only report a .env that exists but cannot be parsed
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n%s\n", cfgErr, cfgErr.Hint())
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every command needs once configuration is resolved
type app struct {
	settings *config.Settings
	logger   *zap.Logger
	history  *history.Manager
	theme    styles.Theme
}

func setup(cmd *cobra.Command, console bool) (*app, error) {
	configManager, err := config.NewManager("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if err := configManager.BindFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	settings, err := configManager.Settings()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		File:    settings.LogFile,
		Debug:   settings.Debug,
		Console: console && settings.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	historyManager, err := history.NewManager(settings.HistoryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create history manager: %w", err)
	}

	logger.Info("starting",
		zap.String("command", cmd.Name()),
		zap.String("provider", settings.Provider),
		zap.String("model", settings.Model),
	)

	return &app{
		settings: settings,
		logger:   logger,
		history:  historyManager,
		theme:    styles.GetTheme(settings.Theme),
	}, nil
}

func (rt *app) newSession(ctx context.Context) (*agent.Session, *agent.HistoryArchiver, llm.Client, error) {
	client, err := createLLMClient(ctx, rt.settings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create %s client: %w", rt.settings.Provider, err)
	}

	archiver := agent.NewHistoryArchiver(rt.history, rt.settings.Provider, rt.settings.Model)
	session := agent.New(client,
		agent.WithPersona(agent.DefaultPersona(rt.settings.BotName)),
		agent.WithLogger(rt.logger),
		agent.WithArchiver(archiver),
	)

	if attachPath != "" {
		if _, err := session.AttachFile(attachPath); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to attach %s: %w", attachPath, err)
		}
	}

	return session, archiver, client, nil
}

func (rt *app) presenter() *render.Terminal {
	return render.NewTerminal(rt.settings.BotName,
		render.NewHTTPImageLoader(nil),
		render.WithStyle(rt.theme.Markdown),
	)
}

func runTUI(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session, archiver, client, err := rt.newSession(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	st := styles.NewStyles(rt.theme)
	presenter := rt.presenter()

	previous, err := rt.previousSession(st)
	if err != nil {
		return err
	}

	tui.PrintHeader(os.Stdout, st, rt.settings.BotName, rt.settings.Provider, rt.settings.Model, rt.settings.Debug)

	if previous != nil {
		turns := agent.FromHistory(previous.Turns)
		if err := session.Restore(turns); err != nil {
			return fmt.Errorf("failed to restore session: %w", err)
		}
		archiver.Continue(previous)
		rt.logger.Info("session restored", zap.String("session", previous.ID), zap.Int("turns", len(turns)))
		tui.ReplayTranscript(ctx, os.Stdout, turns, presenter, st, rt.settings.BotName)
	}

	if a := session.Attachment(); a != nil {
		fmt.Println(st.CommandMessage.Render("Context: " + a.Filename()))
		fmt.Println()
	}

	p := tea.NewProgram(tui.NewChat(session, tui.Options{
		Provider:  rt.settings.Provider,
		Model:     rt.settings.Model,
		Presenter: presenter,
		Styles:    st,
		Logger:    rt.logger,
	}))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if s := archiver.Session(); s != nil && len(s.Turns) > 0 {
		fmt.Printf("Conversation saved. Continue it with: bolt --resume %s\n", s.ID)
	}
	return nil
}

// previousSession resolves --continue and --resume. It returns nil when a
// fresh conversation should start.
func (rt *app) previousSession(st *styles.Styles) (*history.Session, error) {
	switch {
	case continueConv:
		s, err := rt.history.LastSession()
		if errors.Is(err, history.ErrNoSessions) {
			fmt.Println(st.Notice.Render("No previous conversation found. Starting a new one."))
			return nil, nil
		}
		return s, err

	case resume == pickSession:
		sessions, err := rt.history.ListSessions()
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		picker := tui.NewSessionPicker(sessions, st)
		if _, err := tea.NewProgram(picker).Run(); err != nil {
			return nil, fmt.Errorf("error running session picker: %w", err)
		}
		if picker.SelectedSessionID == "" {
			return nil, nil
		}
		return rt.history.LoadSession(picker.SelectedSessionID)

	case resume != "":
		return rt.history.LoadSession(resume)
	}
	return nil, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session, _, client, err := rt.newSession(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	var onChunk func(string)
	if rawOutput {
		onChunk = func(chunk string) { fmt.Print(chunk) }
	}

	reply, err := session.Ask(ctx, strings.Join(args, " "), onChunk)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if rawOutput {
		fmt.Println()
		return nil
	}
	fmt.Println(rt.presenter().Render(ctx, reply.Plan))
	return nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	sessions, err := rt.history.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No saved conversations yet.")
		return nil
	}

	fmt.Printf("Saved conversations (%s):\n", rt.history.Dir())
	for _, s := range sessions {
		fmt.Printf("  %s  %s\n", s.ID, tui.FormatSessionInfo(s))
	}
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	configManager, err := config.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	cfg := configManager.Config()
	fmt.Printf("Config directory: %s\n", configManager.Dir())
	fmt.Printf("  provider: %s\n", valueOr(cfg.DefaultProvider, "(not set)"))
	fmt.Printf("  model:    %s\n", valueOr(cfg.DefaultModel, "(not set)"))
	fmt.Printf("  theme:    %s\n", valueOr(cfg.Theme, "(not set)"))
	return nil
}

func setConfig(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("provider") && !flags.Changed("model") && !flags.Changed("theme") {
		return fmt.Errorf("nothing to save: pass --provider, --model or --theme")
	}

	configManager, err := config.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}
	cfg := configManager.Config()

	if flags.Changed("provider") || flags.Changed("model") {
		provider, _ := flags.GetString("provider")
		model, _ := flags.GetString("model")
		if !flags.Changed("provider") {
			provider = cfg.DefaultProvider
		}
		provider = strings.ToLower(provider)
		if provider != "" && !config.IsProvider(provider) {
			return &config.ConfigError{Key: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
		}
		if !flags.Changed("model") && provider != cfg.DefaultProvider {
			// Drop a model saved for a different provider
			model = ""
		} else if !flags.Changed("model") {
			model = cfg.DefaultModel
		}
		if err := configManager.SetDefaults(provider, model); err != nil {
			return err
		}
	}

	if flags.Changed("theme") {
		theme, _ := flags.GetString("theme")
		if styles.GetTheme(theme).Name != theme {
			return fmt.Errorf("unknown theme %q (available: %s)", theme, strings.Join(styles.ThemeNames(), ", "))
		}
		if err := configManager.SetTheme(theme); err != nil {
			return err
		}
	}

	return showConfig(cmd, args)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func createLLMClient(ctx context.Context, settings *config.Settings) (llm.Client, error) {
	var opts []llm.ClientOption
	if settings.Timeout > 0 {
		opts = append(opts, llm.WithTimeout(settings.Timeout))
	}

	switch settings.Provider {
	case "gemini":
		return gemini.NewClient(ctx, append(opts,
			llm.WithAPIKey(settings.APIKey),
			llm.WithModel(settings.Model),
		)...)

	case "ollama":
		return ollama.NewClient(ctx, append(opts,
			llm.WithBaseURL(settings.OllamaURL),
			llm.WithModel(settings.Model),
			llm.WithMaxRetries(settings.MaxRetries),
			llm.WithHeaders(map[string]string{"User-Agent": "bolt/" + version}),
		)...)

	default:
		return nil, &config.ConfigError{Key: "provider", Reason: fmt.Sprintf("unknown provider %q", settings.Provider)}
	}
}
