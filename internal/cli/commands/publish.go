package commands

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/forgeevents/eventcatalog/internal/ast"
	"github.com/forgeevents/eventcatalog/internal/cli/config"
	"github.com/forgeevents/eventcatalog/internal/cli/ui"
	"github.com/forgeevents/eventcatalog/internal/pipeline"
)

// confirm asks a yes/no question. Tests replace it.
var confirm = func(message string) (bool, error) {
	ok := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

type publishOptions struct {
	declarations   string
	descriptor     string
	descriptorJSON string
	force          bool
	yes            bool
	metricsFile    string
}

// NewPublishCommand creates the publish command
func NewPublishCommand(g *globalOptions) *cobra.Command {
	opts := &publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the events of a release into the catalog",
		Long: `Publish reads the class declarations of a release, stages one record per
event type, and promotes the staging set to the production view.

A release that already has a production view is only replaced with --force
(or force_republish in the config file).`,
		Example: `  # Publish a release described by a descriptor file
  eventcatalog publish --declarations classes.json --descriptor forge.json

  # Inline descriptor
  eventcatalog publish --declarations classes.yaml \
    --descriptor-json '{"mcversion":"1.12.2","forgeversion":"14.23.5.2768"}'

  # Replace an existing production view without prompting
  eventcatalog publish --declarations classes.json --descriptor forge.json --force --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.declarations, "declarations", "d", "", "class declarations file (.json or .yaml)")
	cmd.Flags().StringVar(&opts.descriptor, "descriptor", "", "release descriptor file")
	cmd.Flags().StringVar(&opts.descriptorJSON, "descriptor-json", "", "release descriptor as inline JSON")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "replace an existing production view")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt for --force")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics to this file in Prometheus text format")
	_ = cmd.MarkFlagRequired("declarations")
	cmd.MarkFlagsMutuallyExclusive("descriptor", "descriptor-json")
	cmd.MarkFlagsOneRequired("descriptor", "descriptor-json")

	return cmd
}

func runPublish(cmd *cobra.Command, g *globalOptions, opts *publishOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.close()

	var desc *config.Descriptor
	if opts.descriptorJSON != "" {
		desc, err = config.ParseDescriptor([]byte(opts.descriptorJSON))
	} else {
		desc, err = config.LoadDescriptor(opts.descriptor)
	}
	if err != nil {
		return err
	}

	prog, err := ast.LoadFile(opts.declarations)
	if err != nil {
		return err
	}

	force := opts.force || e.cfg.ForceRepublish
	if force && !opts.yes {
		ok, err := confirm(fmt.Sprintf("Replace the production view of %s if it exists?", desc.Release))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Publish cancelled")
			return nil
		}
	}

	locker, closeLocker, err := e.locker()
	if err != nil {
		return err
	}
	defer closeLocker()

	if err := e.open(ctx); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	p := pipeline.New(e.store, pipeline.Options{
		Markers:     e.cfg.Classifier.Markers,
		Annotations: e.cfg.Classifier.Annotations(),
		Locker:      locker,
		Metrics:     pipeline.NewMetrics(registry),
		Logger:      e.logger,
	})

	rel := pipeline.Release{
		ID:           desc.Release,
		ForgeVersion: desc.ForgeVersion,
		Routing:      desc.Routing,
		RawEventBus:  desc.RawEventBus,
	}

	report, runErr := p.Run(ctx, prog, rel, force)
	if report != nil {
		ui.RenderReport(out, report, g.noColor)
	}

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, registry); err != nil {
			e.logger.Sugar().Warnf("failed to write metrics file %s: %v", opts.metricsFile, err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("publish %s: %w", desc, runErr)
	}
	return nil
}
