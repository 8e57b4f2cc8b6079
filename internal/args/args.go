package args

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/markis/bizcoach/internal/config"
	"github.com/spf13/cobra"
)

const (
	CommandServe    = "serve"
	CommandAsk      = "ask"
	CommandPractice = "practice"
	CommandScenes   = "scenes"
)

// Arguments represents the command-line arguments structure.
type Arguments struct {
	Command      string
	Prompts      []string
	Schema       string
	Model        string
	Provider     string
	Scene        string
	URL          string
	User         string
	Addr         string
	UsePlainText bool
}

// Utterance joins the positional and piped input into one message.
func (a Arguments) Utterance() string {
	return strings.TrimSpace(strings.Join(a.Prompts, "\n"))
}

// Apply writes the flag values over cfg and validates the result.
func (a Arguments) Apply(cfg *config.Config) error {
	if a.Schema != "" {
		cfg.Schema = a.Schema
	}
	if a.Model != "" {
		cfg.Model = a.Model
	}
	if a.Provider != "" {
		cfg.Provider = a.Provider
	}
	if a.Scene != "" {
		cfg.Client.Scene = a.Scene
	}
	if a.URL != "" {
		cfg.Client.URL = a.URL
	}
	if a.User != "" {
		cfg.Client.UserID = a.User
	}
	if a.Addr != "" {
		cfg.Server.Addr = a.Addr
	}
	if a.UsePlainText {
		cfg.Render.Format = "plain"
	}
	return cfg.Validate()
}

// readStdin returns piped input, if any.
var readStdin = func() (string, bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return "", false, nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max buffer
	var buf strings.Builder
	for scanner.Scan() {
		buf.WriteString(scanner.Text())
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(buf.String()), true, nil
}

// ParseArgs parses argv into Arguments. An utterance given without a command is
// treated as "ask". When only help was printed the returned Command is empty.
func ParseArgs(ctx context.Context, cfg config.Config, argv []string) (Arguments, error) {
	args := Arguments{}

	ask := func(cmdArgs []string) error {
		args.Command = CommandAsk
		args.Prompts = append(args.Prompts, cmdArgs...)
		piped, ok, err := readStdin()
		if err != nil {
			return err
		}
		if ok && piped != "" {
			args.Prompts = append(args.Prompts, piped)
		}
		if args.Utterance() == "" {
			return errors.New("no utterance provided")
		}
		return nil
	}

	rootCmd := &cobra.Command{
		Use:   "bizcoach [command] [flags] [utterance]",
		Short: "Business English coaching chat",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			if len(cmdArgs) == 0 {
				return cmd.Help()
			}
			return ask(cmdArgs)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&args.Schema, "schema", cfg.Schema, "Section schema: a (refactored/note/next) or b (next/translation/refactored/analysis)")
	flags.StringVar(&args.Model, "model", cfg.Model, "The model to use")
	flags.StringVar(&args.Provider, "provider", cfg.Provider, "Model provider: gemini, openai or scripted")
	flags.BoolVar(&args.UsePlainText, "plain", shouldUsePlainText(cfg), "Disable colours and markdown rendering")

	serveCmd := &cobra.Command{
		Use:   CommandServe,
		Short: "Run the coaching server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args.Command = CommandServe
			return nil
		},
	}
	serveCmd.Flags().StringVar(&args.Addr, "addr", cfg.Server.Addr, "Listen address")

	askCmd := &cobra.Command{
		Use:   CommandAsk + " [utterance]",
		Short: "Get coaching on a single utterance",
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			return ask(cmdArgs)
		},
	}

	practiceCmd := &cobra.Command{
		Use:   CommandPractice,
		Short: "Role-play a scene turn by turn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args.Command = CommandPractice
			return nil
		},
	}

	scenesCmd := &cobra.Command{
		Use:   CommandScenes,
		Short: "List the available scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args.Command = CommandScenes
			return nil
		},
	}

	for _, cmd := range []*cobra.Command{askCmd, practiceCmd} {
		cmd.Flags().StringVar(&args.Scene, "scene", cfg.Client.Scene, "Scene to practise")
		cmd.Flags().StringVar(&args.URL, "url", cfg.Client.URL, "Coaching server URL")
		cmd.Flags().StringVar(&args.User, "user", cfg.Client.UserID, "User id sent to the server")
	}
	rootCmd.AddCommand(serveCmd, askCmd, practiceCmd, scenesCmd)

	if argv == nil {
		argv = []string{} // cobra falls back to os.Args on nil
	}
	rootCmd.SetArgs(argv)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return Arguments{}, err
	}
	return args, nil
}

// shouldUsePlainText determines if plain text output should be used based on environment and terminal settings.
func shouldUsePlainText(cfg config.Config) bool {
	// Check if the rendering format is set to plain
	if cfg.Render.Format == "plain" {
		return true
	}

	// Check if output is being redirected
	if fileInfo, _ := os.Stdout.Stat(); fileInfo != nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			return true
		}
	}

	// Check for NO_COLOR environment variable
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}

	// Check for TERM=dumb
	if term := os.Getenv("TERM"); term == "dumb" {
		return true
	}

	return false
}
