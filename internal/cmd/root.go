package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/skimread/skim/internal/config"
	"github.com/skimread/skim/internal/feed"
	"github.com/skimread/skim/internal/log"
	"github.com/skimread/skim/internal/scroll"
	"github.com/skimread/skim/internal/source/rest"
	"github.com/skimread/skim/internal/tui"
	"github.com/skimread/skim/internal/version"
)

// defaultSeedCount is how many demo entries an empty sqlite feed gets before
// the browser opens, so there is something to scroll.
const defaultSeedCount = 500

var rootCmd = &cobra.Command{
	Use:   "skim",
	Short: "Browse unbounded feeds through a bounded window",
	Long: `Skim is a terminal feed browser. It scrolls a logically unbounded,
paginated source while keeping only a bounded window of items in memory,
fetching more as you approach either edge and discarding what falls too far
behind.`,
	Example: `
# Browse the local demo feed
skim

# Browse a REST endpoint that speaks limit/offset
SKIM_SOURCE_URL=https://example.com/items skim

# Use a custom page size
skim --page-size 50
  `,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.Setup(cfg.DataDir(), cfg.Options.Debug)

		src, err := buildSource(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		model, err := tui.New(cfg, src, cfg.SourceIdentity())
		if err != nil {
			return err
		}
		slog.Info("Starting feed browser", "source", cfg.Source.Kind, "page_size", cfg.PageSize)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run program: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Working directory")
	rootCmd.Flags().Int("page-size", 0, "Items per fetch (window holds twice this)")
	rootCmd.Flags().String("url", "", "REST source endpoint (limit/offset pagination)")
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if n, _ := cmd.Flags().GetInt("page-size"); n != 0 {
		cfg.PageSize = n
		if cfg.PageSize <= 0 {
			return nil, fmt.Errorf("%w, got %d", config.ErrInvalidPageSize, cfg.PageSize)
		}
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.Source = config.Source{Kind: config.SourceREST, URL: url}
	}
	return cfg, nil
}

func buildSource(ctx context.Context, cfg *config.Config) (scroll.Source[feed.Item], error) {
	switch cfg.Source.Kind {
	case config.SourceREST:
		return rest.New(cfg.Source.URL), nil
	case config.SourceSQLite:
		db, err := feed.Connect(ctx, cfg.DataDir())
		if err != nil {
			return nil, err
		}
		svc := feed.NewService(db)
		count, err := svc.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			slog.Info("Seeding empty demo feed", "count", defaultSeedCount)
			if _, err := svc.Seed(ctx, defaultSeedCount); err != nil {
				return nil, err
			}
		}
		return feed.Source(svc), nil
	default:
		return nil, fmt.Errorf("unknown source kind: %q", cfg.Source.Kind)
	}
}
