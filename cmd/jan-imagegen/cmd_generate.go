package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/domain/generation"
)

type generateOptions struct {
	prompts     []string
	aspectRatio string
	refine      bool
	quiet       bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate images and add them to the gallery",
		Long: `Submit one or more prompts and wait for each image. Several --prompt values
run concurrently unless generation.allow_concurrent is false.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(root, func(cmd *cobra.Command, args []string, app *App) error {
			return runGenerate(cmd, args, app, opts)
		}),
	}

	cmd.Flags().StringArrayVarP(&opts.prompts, "prompt", "p", nil, "Prompt to generate (repeatable)")
	cmd.Flags().StringVarP(&opts.aspectRatio, "aspect-ratio", "a", "", "Aspect ratio: "+strings.Join(gallery.AspectRatios, ", "))
	cmd.Flags().BoolVar(&opts.refine, "refine", false, "Ask the backend to refine the prompt")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print progress")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, app *App, opts *generateOptions) error {
	prompts := append(append([]string(nil), args...), opts.prompts...)
	if len(prompts) == 0 {
		return fmt.Errorf("%s", generation.MsgEmptyPrompt)
	}

	ratio := opts.aspectRatio
	if ratio == "" {
		ratio = app.Config.Generation.DefaultAspectRatio
	}
	if !gallery.IsSupportedAspectRatio(ratio) {
		return fmt.Errorf("unsupported aspect ratio %q (supported: %s)", ratio, strings.Join(gallery.AspectRatios, ", "))
	}
	refine := app.Config.Generation.UsePromptRefiner
	if cmd.Flags().Changed("refine") {
		refine = opts.refine
	}

	reqs := make([]generation.Request, len(prompts))
	for i, p := range prompts {
		reqs[i] = generation.Request{Prompt: p, AspectRatio: ratio, UsePromptRefiner: refine}
	}

	gen := app.Generator
	if !opts.quiet {
		gen = generation.NewGenerator(app.Client, app.Gallery, app.Tracker, generatorOptions(app, progress(cmd.ErrOrStderr()))...)
	}

	outcomes := gen.RunBatch(cmd.Context(), reqs)
	return reportOutcomes(cmd.OutOrStdout(), cmd.ErrOrStderr(), outcomes)
}

// progress prints one line per state change.
func progress(w io.Writer) generation.Listener {
	return generation.ListenerFunc(func(_ context.Context, t generation.Transition) {
		switch t.To {
		case generation.StateSubmitting:
			fmt.Fprintf(w, "[%s] submitting %q\n", short(t.RequestID), t.Request.Prompt)
		case generation.StatePolling:
			fmt.Fprintf(w, "[%s] waiting for the image...\n", short(t.RequestID))
		}
	})
}

func reportOutcomes(out, errOut io.Writer, outcomes []generation.Outcome) error {
	failed := 0
	for _, o := range outcomes {
		if o.State == generation.StateSucceeded {
			fmt.Fprintln(out, o.Record.ImageURL)
			continue
		}
		failed++
		msg := o.Message
		if msg == "" {
			msg = string(o.State)
		}
		fmt.Fprintf(errOut, "[%s] %s\n", short(o.RequestID), msg)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d generations did not complete", failed, len(outcomes))
	}
	return nil
}

func short(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
