package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pgagates/gatesite/internal/boot"
	"github.com/pgagates/gatesite/internal/config"
	"github.com/pgagates/gatesite/internal/ledger"
	"github.com/pgagates/gatesite/internal/logger"
)

type uploadOptions struct {
	key      string
	alt      string
	caption  string
	tags     []string
	location string
	featured bool
}

// newUploadCmd uploads a single image from disk straight to the configured
// store, bypassing the HTTP admin API. Useful for seeding the gallery.
func newUploadCmd() *cobra.Command {
	opts := uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload <image-file>",
		Short: "Upload one gallery image and update the metadata index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.key, "key", "", "asset key (defaults to the normalized file name)")
	cmd.Flags().StringVar(&opts.alt, "alt", "", "alt text (required)")
	cmd.Flags().StringVar(&opts.caption, "caption", "", "caption shown under the image")
	cmd.Flags().StringSliceVar(&opts.tags, "tags", nil, "comma-separated tags")
	cmd.Flags().StringVar(&opts.location, "location", "", "project location, e.g. \"Denver, CO\"")
	cmd.Flags().BoolVar(&opts.featured, "featured", false, "feature the image on the home page")
	return cmd
}

func runUpload(cmd *cobra.Command, file string, opts uploadOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	runtimeConfig, err := boot.ProvideRuntimeConfig(cfg)
	if err != nil {
		return err
	}

	blobStore, err := provideStore(logger.L, cfg, runtimeConfig)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	key := opts.key
	if key == "" {
		key = filepath.Base(file)
	}
	key = ledger.NormalizeKey(key)
	if ledger.ExtensionForKey(key) == "" {
		if ext := ledger.ExtensionForType(contentType); ext != "" {
			key += ext
		}
	}

	result, err := ledger.NewService(logger.L, blobStore).PutAsset(cmd.Context(), key, content, contentType, ledger.Entry{
		Alt:      opts.alt,
		Caption:  opts.caption,
		Tags:     opts.tags,
		Location: opts.location,
		Featured: opts.featured,
	})
	if err != nil {
		return err
	}

	fmt.Printf("uploaded %s (revision %s)\n", result.Path, result.Revision)
	return nil
}
