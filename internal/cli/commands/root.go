package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forgeevents/eventcatalog/internal/cli/config"
	"github.com/forgeevents/eventcatalog/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "eventcatalog",
		Short: "Publish event metadata into a versioned catalog",
		Long: color.CyanString(`eventcatalog - versioned event catalog

Reads the class declarations of a release, picks out the event types,
and publishes their metadata into a catalog store. Each release gets a
staging set rebuilt on every run and a production view that is only
replaced by promotion.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "config file (default: eventcatalog.yml in this or a parent directory)")
	flags.StringVar(&g.logLevel, "log-level", "", "override log.level")
	flags.BoolVar(&g.noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCompletionCommand())
	rootCmd.AddCommand(NewPublishCommand(g))
	rootCmd.AddCommand(NewVersionsCommand(g))
	rootCmd.AddCommand(NewShowCommand(g))
	rootCmd.AddCommand(NewPatchCommand(g))
	rootCmd.AddCommand(NewServeCommand(g))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the eventcatalog version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "eventcatalog version: ")
			cmd.Println(Version)

			titleColor.Fprint(out, "Git commit: ")
			cmd.Println(GitCommit)

			titleColor.Fprint(out, "Build date: ")
			cmd.Println(BuildDate)

			titleColor.Fprint(out, "Go version: ")
			cmd.Println(goVer)
		},
	}
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context; a publish interrupted this way stops before promotion.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errReported):
		// Details were already printed by the command
	case config.IsConfigurationError(err):
		fmt.Fprint(rootCmd.ErrOrStderr(), ui.ConfigError(err.Error(), color.NoColor))
	default:
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}
