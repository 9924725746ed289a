package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	loadEnvFiles()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile  string
	apiURL      string
	storage     string
	storagePath string
	pollingMode string
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "jan-imagegen",
		Short: "Generate images from text prompts and manage the local gallery",
		Long: `jan-imagegen submits prompts to an image-generation backend, polls the
resulting tasks, and keeps finished images in a local gallery.

Examples:
  # Generate one image
  jan-imagegen generate --prompt "a lighthouse at dusk" --aspect-ratio 16:9

  # Browse the gallery
  jan-imagegen gallery list
  jan-imagegen gallery show 0

  # Start the local web UI
  jan-imagegen serve`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Config file (default: user config dir)")
	flags.StringVar(&opts.apiURL, "api-url", "", "Backend base URL")
	flags.StringVar(&opts.storage, "storage", "", "Storage backend: file, memory or redis")
	flags.StringVar(&opts.storagePath, "storage-path", "", "File store location")
	flags.StringVar(&opts.pollingMode, "polling-mode", "", "Polling policy: retry or simple")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")

	root.AddCommand(
		newGenerateCmd(opts),
		newGalleryCmd(opts),
		newThemeCmd(opts),
		newJobsCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
