package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pbaille/portfolio/internal/api"
	"github.com/pbaille/portfolio/internal/catalog"
	"github.com/pbaille/portfolio/internal/config"
	"github.com/pbaille/portfolio/internal/domain"
	"github.com/pbaille/portfolio/internal/facet"
	"github.com/pbaille/portfolio/internal/logging"
	"github.com/pbaille/portfolio/internal/printer"
	"github.com/pbaille/portfolio/internal/session"
)

func init() {
	_ = godotenv.Load()
}

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// reportedError marks errors already printed by the printer package
type reportedError struct{ error }

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "Portfolio project catalog with tag filtering",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err = logging.New(cfg.Log, verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(importsCmd())
	rootCmd.AddCommand(servicesCmd())

	return rootCmd
}

// explain prints catalog errors in a readable form
func explain(err error) error {
	switch {
	case errors.Is(err, catalog.ErrSourceUnavailable):
		return reportedError{printer.Error("Catalog unavailable", err.Error(), []string{
			fmt.Sprintf("Check the %q catalog source settings", cfg.Catalog.Source),
			"Run again with --verbose for details",
		})}
	case errors.Is(err, catalog.ErrNotFound):
		return reportedError{printer.Error("Project not found", err.Error(), []string{
			"Run 'portfolio list' to see available slugs",
		})}
	case errors.Is(err, catalog.ErrDuplicateSlug):
		return reportedError{printer.Error("Invalid catalog", err.Error(), []string{
			"Every project needs a unique slug",
		})}
	default:
		return err
	}
}

// loadCatalog opens the configured source and loads it once
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	src, err := openSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	cat, err := src.Load(ctx)
	if err != nil {
		return nil, explain(err)
	}
	return cat, nil
}

// openSession loads the catalog into a session and applies tags
func openSession(ctx context.Context, tags []string) (*session.Session, error) {
	src, err := openSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sess := session.New(src, logger)
	if err := sess.Load(ctx); err != nil {
		return nil, explain(err)
	}

	sel, err := sess.Select(tags...)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if !sel.Has(t) {
			printer.Warning("Skipping tag %q: no project has it together with %s\n", t, describe(sel))
		}
	}
	return sess, nil
}

func describe(sel facet.Selection) string {
	if sel.Len() == 0 {
		return "the catalog"
	}
	return "[" + sel.String() + "]"
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr != "" {
				cfg.Server.Addr = addr
			}

			src, err := openSource(cfg, logger)
			if err != nil {
				return err
			}
			defer src.Close()

			if _, err := src.Load(ctx); err != nil {
				logger.Warn("Catalog not loadable at startup", zap.Error(err))
			}

			return api.New(src, cfg.Server, logger).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides config)")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		tags     []string
		featured bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, optionally filtered by tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			if featured {
				cat, err := loadCatalog(cmd.Context())
				if err != nil {
					return err
				}
				items := featuredProjects(cat, tags, limit)
				printer.Heading("Featured projects (%d)\n", len(items))
				printProjects(items)
				return nil
			}

			sess, err := openSession(cmd.Context(), tags)
			if err != nil {
				return err
			}
			defer sess.Close()

			view, err := sess.View(limit)
			if err != nil {
				return err
			}

			printer.Heading("Projects (%d of %d)\n", len(view.Items), view.Total)
			printProjects(view.Items)

			selected := sess.Selection()
			disabled := make(map[string]bool, len(view.Disabled))
			for _, t := range view.Disabled {
				disabled[t] = true
			}
			rendered := make([]string, len(view.Tags))
			for i, t := range view.Tags {
				rendered[i] = printer.Tag(t, view.ProspectiveCounts[t], selected.Has(t), disabled[t])
			}
			printer.Heading("\nTags\n")
			printer.Info("  %s\n", strings.Join(rendered, "  "))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "filter by tag (repeatable)")
	cmd.Flags().BoolVar(&featured, "featured", false, "only featured projects")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max projects to show (0 = all)")
	return cmd
}

// featuredProjects returns the featured projects carrying every tag,
// capped at limit when positive
func featuredProjects(cat *catalog.Catalog, tags []string, limit int) []domain.Project {
	items := facet.Filter(cat.Featured(), facet.NewSelection(tags...))
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func printProjects(items []domain.Project) {
	if len(items) == 0 {
		printer.Info("  No projects.\n")
		return
	}
	for _, p := range items {
		star := " "
		if p.Featured {
			star = "*"
		}
		printer.Info("%s %-28s %s\n", star, p.Slug, catalog.Excerpt(p.Description, 60))
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [slug]",
		Short: "Show project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			p, err := cat.GetBySlug(args[0])
			if err != nil {
				return explain(err)
			}

			printer.Heading("%s\n", p.Name)
			printer.Info("Slug:    %s\n", p.Slug)
			for _, m := range p.Meta() {
				printer.Info("%-8s %s\n", m.Label+":", m.Value)
			}
			if p.ExternalURL != "" {
				printer.Info("URL:     %s\n", p.ExternalURL)
			}
			if len(p.Tags) > 0 {
				printer.Info("Tags:    %s\n", strings.Join(p.Tags, ", "))
			}
			if cover := p.Cover(); cover != "" {
				printer.Info("Cover:   %s (%d images)\n", cover, len(p.Images))
			}
			if text := catalog.PlainText(p.Description); text != "" {
				printer.Info("\n%s\n", text)
			}

			if next, err := cat.Next(p.Slug); err == nil && next.Slug != p.Slug {
				printer.Info("\nNext:    %s\n", next.Slug)
			}
			return nil
		},
	}
}

func tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all tags with project counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			items, tags := cat.GetAll()
			if len(tags) == 0 {
				printer.Info("No tags yet.\n")
				return nil
			}

			f := facet.ComputeFacets(items, tags, facet.Clear())
			for _, t := range tags {
				printer.Info("  %-20s %d\n", t, f.TagCounts[t])
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "search [prefix]",
		Short: "Suggest tags starting with prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), tags)
			if err != nil {
				return err
			}
			defer sess.Close()

			suggestions, err := sess.Suggest(args[0])
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				printer.Info("No matching tags.\n")
				return nil
			}

			view, err := sess.View(0)
			if err != nil {
				return err
			}
			for _, t := range suggestions {
				printer.Info("  %-20s %d\n", t, view.ProspectiveCounts[t])
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "already selected tag (repeatable)")
	return cmd
}

func importCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a YAML or JSON catalog file into the sqlite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cat, err := catalog.FileSource{Path: args[0]}.Load(ctx)
			if err != nil {
				return explain(err)
			}

			s, err := openStore(storePath(dbPath))
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.Import(ctx, cat, args[0])
			if err != nil {
				return err
			}
			printer.Success("Imported %d projects and %d services (run %s)\n", rec.Projects, rec.Services, rec.ID[:8])

			if cfg.Cache.RedisURL != "" {
				src, err := openSource(cfg, logger)
				if err != nil {
					return err
				}
				defer src.Close()
				if err := src.cache.Invalidate(ctx); err != nil {
					printer.Warning("Cached catalog not cleared: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default: catalog.path for sqlite, else ~/.portfolio/portfolio.db)")
	return cmd
}

func importsCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List recent catalog imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(storePath(dbPath))
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListImports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				printer.Info("No imports yet.\n")
				return nil
			}
			for _, r := range records {
				printer.Info("%s  %s  %d projects, %d services  %s\n",
					r.ID[:8], r.ImportedAt.Format("2006-01-02 15:04:05"), r.Projects, r.Services, r.Source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "max imports to show")
	return cmd
}

// storePath picks the sqlite file import commands work on
func storePath(flag string) string {
	if flag != "" {
		return flag
	}
	if cfg.Catalog.Source == config.SourceSQLite {
		return cfg.Catalog.Path
	}
	return defaultDBPath()
}

func servicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List offered services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			services := cat.Services()
			if len(services) == 0 {
				printer.Info("No services.\n")
				return nil
			}
			for _, s := range services {
				printer.Heading("%s\n", s.Name)
				printer.Info("  %s\n", catalog.Excerpt(s.Description, 80))
				if len(s.Technologies) > 0 {
					printer.Info("  Technologies: %s\n", strings.Join(s.Technologies, ", "))
				}
			}
			return nil
		},
	}
}
