package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/pagefetch/browser"
	"github.com/use-agent/pagefetch/cleaner"
	"github.com/use-agent/pagefetch/fetcher"
	"github.com/use-agent/pagefetch/models"
)

type fetchFlags struct {
	format     string
	timeout    time.Duration
	maxRetries int
	asJSON     bool
}

func newFetchCmd() *cobra.Command {
	var fl fetchFlags
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch one page and print its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args[0], fl)
		},
	}
	cmd.Flags().StringVarP(&fl.format, "format", "f", "text", "output format: text, html or markdown")
	cmd.Flags().DurationVar(&fl.timeout, "timeout", 0, "per navigation timeout (default from PAGEFETCH_NAV_TIMEOUT)")
	cmd.Flags().IntVar(&fl.maxRetries, "max-retries", -1, "navigation retries (default from PAGEFETCH_MAX_RETRIES)")
	cmd.Flags().BoolVar(&fl.asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func runFetch(cmd *cobra.Command, target string, fl fetchFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kind, err := models.ParseOutputKind(fl.format)
	if err != nil {
		return err
	}
	retries := fl.maxRetries
	if retries < 0 {
		retries = cfg.Fetch.DefaultMaxRetries
	}

	engine, err := browser.Launch(cfg.Browser)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
	}()

	f, err := fetcher.New(cfg, fetcher.Deps{
		Engine:    engine,
		Extractor: cleaner.NewExtractor(cfg.Heuristics, cfg.Extraction.MinContentLength),
	})
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := f.FetchContent(cmd.Context(), models.FetchRequest{
		URL:        target,
		Output:     kind,
		Timeout:    fl.timeout,
		MaxRetries: retries,
	})
	if err != nil {
		return err
	}

	if fl.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Content)
	return err
}
