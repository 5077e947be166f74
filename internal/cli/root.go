package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harun/oracle/pkg/detach"
	"github.com/harun/oracle/pkg/provider"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

// globalOptions are flags shared by every command, plus the app built from
// them before any command runs.
type globalOptions struct {
	home       string
	configPath string
	logLevel   string

	factory provider.Factory
	// spawn is the base launcher config for detached runs; the executable
	// defaults to the running binary.
	spawn detach.Config
	app   *app
}

// closeApp releases the app. It runs after the command whether or not it
// failed, since cobra skips post-run hooks on error.
func (g *globalOptions) closeApp() error {
	if g.app == nil {
		return nil
	}
	return g.app.Close()
}

// NewRootCmd builds the oracle command tree with the SDK backed providers.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{factory: provider.DefaultFactory})
}

func newRootCmd(g *globalOptions) *cobra.Command {
	run := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "oracle",
		Short: "Oracle - one-shot questions to strong models with file context",
		Long: `Oracle sends a prompt plus attached files to one or more models and keeps
every run as a session on disk. Runs detach by default so they survive the
terminal closing; reattach with "oracle session <id>".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			g.app = a
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, g, run)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&g.home, "home", "", "oracle home directory (default is $ORACLE_HOME_DIR or $HOME/.oracle)")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default is <home>/config.json)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	run.bind(rootCmd)

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	rootCmd.AddCommand(newSessionCmd(g))
	rootCmd.AddCommand(newStatusCmd(g))

	return rootCmd
}

// Execute runs the command tree. Interrupts cancel the command context so
// attached pollers and inline runs stop promptly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := &globalOptions{factory: provider.DefaultFactory}
	cmd := newRootCmd(g)
	if err := executeTree(ctx, g, cmd); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "✖ %v\n", err)
		return err
	}
	return nil
}

// executeTree runs cmd and then closes the app built for it.
func executeTree(ctx context.Context, g *globalOptions, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if cerr := g.closeApp(); err == nil {
		err = cerr
	}
	return err
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
