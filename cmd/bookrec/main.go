// Package main provides the bookrec command line: serve the HTTP API, build
// and persist a model, or run single queries against it.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/temcen/bookrec/internal/app"
	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/internal/index"
)

const Version = "2.0.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	catalog    string
}

func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.LoadFile(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.catalog != "" {
		cfg.Catalog.Path = g.catalog
	}
	return cfg, nil
}

// withCore runs fn against a freshly wired engine. CLI runs register metrics
// on a private registry since nothing scrapes them.
func (g *globalFlags) withCore(fn func(core *app.Core, logger *logrus.Logger) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := app.SetupLogger(cfg)
	logger.SetOutput(os.Stderr)

	core, err := app.NewCore(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release resources")
		}
	}()

	return fn(core, logger)
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "bookrec",
		Short: "Book recommendation engine",
		Long: `bookrec recommends books from a static catalog using genre keywords,
content similarity over engineered features, and review sentiment.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.catalog, "catalog", "", "Catalog file, overrides catalog.path")

	cmd.AddCommand(
		serveCmd(flags),
		trainCmd(flags),
		similarCmd(flags),
		sentimentCmd(flags),
		popularCmd(flags),
		genreCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "bookrec version %s\n", Version)
			},
		},
	)

	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return app.Run(cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port, overrides server.port")
	return cmd
}

func trainCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Build the model from the catalog and persist the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withCore(func(core *app.Core, logger *logrus.Logger) error {
				info, err := core.Engine.Retrain()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), info)
			})
		},
	}
}

func similarCmd(flags *globalFlags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "similar <title>",
		Short: "List books similar to a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return flags.withCore(func(core *app.Core, logger *logrus.Logger) error {
				books, err := core.Engine.SimilarByTitle(title, count)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), books)
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", index.DefaultResults, "Number of similar books")
	return cmd
}

func sentimentCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment <text>",
		Short: "Score the sentiment of a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return flags.withCore(func(core *app.Core, logger *logrus.Logger) error {
				return printJSON(cmd.OutOrStdout(), core.Engine.AnalyzeSentiment(text))
			})
		},
	}
}

func popularCmd(flags *globalFlags) *cobra.Command {
	filter := index.DefaultFilter()
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List highly rated books matching a filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withCore(func(core *app.Core, logger *logrus.Logger) error {
				books, err := core.Engine.PopularByFilter(filter)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), books)
			})
		},
	}
	cmd.Flags().StringVar(&filter.RatingCategory, "category", "", "Rating category (very_low, low, medium, high, very_high)")
	cmd.Flags().StringVar(&filter.Language, "language", "", "Language code, e.g. eng")
	cmd.Flags().IntVar(&filter.MinRatings, "min-ratings", filter.MinRatings, "Minimum ratings count")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", filter.Limit, "Maximum results")
	return cmd
}

func genreCmd(flags *globalFlags) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "genre <name>",
		Short: "Recommend titles for a genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withCore(func(core *app.Core, logger *logrus.Logger) error {
				titles, err := core.Engine.RecommendByGenre(args[0], count, 3.5, 100)
				if err != nil {
					return err
				}
				if len(titles) == 0 {
					logger.WithField("available", core.Engine.AvailableGenres()).Warn("No books found for genre")
				}
				return printJSON(cmd.OutOrStdout(), titles)
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 6, "Number of titles")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
