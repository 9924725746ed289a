package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
)

func newGalleryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Inspect and manage generated images",
		Long:  `List, inspect, download and delete images in the local gallery. Indexes count from 0, newest first.`,
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List gallery images, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(root, func(cmd *cobra.Command, _ []string, app *App) error {
			return runGalleryList(cmd, app, asJSON)
		}),
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored records as JSON")

	showCmd := &cobra.Command{
		Use:   "show <index>",
		Short: "Show the details of one image",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(root, func(cmd *cobra.Command, args []string, app *App) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			view, err := app.Gallery.Detail(cmd.Context(), index)
			if err != nil {
				return err
			}
			printDetail(cmd, view)
			return nil
		}),
	}

	removeCmd := &cobra.Command{
		Use:     "remove <index>",
		Aliases: []string{"rm"},
		Short:   "Delete one image from the backend and the gallery",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(root, func(cmd *cobra.Command, args []string, app *App) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if err := app.Gallery.Remove(cmd.Context(), index); err != nil {
				app.printAlerts(cmd.ErrOrStderr())
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed image %d\n", index)
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every image from the backend and the gallery",
		Args:  cobra.NoArgs,
		RunE: withApp(root, func(cmd *cobra.Command, _ []string, app *App) error {
			if err := app.Gallery.Clear(cmd.Context()); err != nil {
				app.printAlerts(cmd.ErrOrStderr())
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Gallery cleared")
			return nil
		}),
	}

	var output string
	downloadCmd := &cobra.Command{
		Use:   "download <index>",
		Short: "Download the full-size image",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(root, func(cmd *cobra.Command, args []string, app *App) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return runGalleryDownload(cmd, app, index, output)
		}),
	}
	downloadCmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default: image_<timestamp>.png)")

	cmd.AddCommand(listCmd, showCmd, removeCmd, clearCmd, downloadCmd)
	return cmd
}

func runGalleryList(cmd *cobra.Command, app *App, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		records, err := app.Gallery.List(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	view, err := app.Gallery.Render(cmd.Context())
	if err != nil {
		return err
	}
	if view.Count == 0 {
		fmt.Fprintln(out, "Gallery is empty")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tASPECT RATIO\tIMAGE")
	for t := range view.Thumbnails {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", t.Index, t.AspectRatio, t.ImageURL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d image(s)\n", view.Count)
	return nil
}

func printDetail(cmd *cobra.Command, v gallery.DetailView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Image:          %s\n", v.ImageURL)
	if v.ShowPrompt {
		fmt.Fprintf(out, "Prompt:         %s\n", v.Prompt)
	}
	if v.ShowRefinedPrompt {
		fmt.Fprintf(out, "Refined prompt: %s\n", v.RefinedPrompt)
	}
	if v.ShowDescription {
		fmt.Fprintf(out, "Description:    %s\n", v.Description)
	}
	if v.ShowAspectRatio {
		fmt.Fprintf(out, "Aspect Ratio:   %s\n", v.AspectRatio)
	}
	fmt.Fprintf(out, "Download:       %s\n", v.DownloadURL)
}

func runGalleryDownload(cmd *cobra.Command, app *App, index int, output string) error {
	ctx := cmd.Context()
	view, err := app.Gallery.Detail(ctx, index)
	if err != nil {
		return err
	}
	img, err := app.Client.FetchImage(ctx, view.DownloadURL)
	if err != nil {
		return err
	}
	if output == "" {
		output = img.FileName(view.DownloadName)
	}
	if err := os.WriteFile(output, img.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %d bytes)\n", output, img.ContentType, len(img.Data))
	return nil
}

func parseIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid image index %q", raw)
	}
	return index, nil
}
