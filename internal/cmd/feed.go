package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skimread/skim/internal/feed"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Manage the local demo feed",
	Long:  `Seed and inspect the sqlite-backed demo feed that skim browses by default.`,
}

var seedCmd = &cobra.Command{
	Use:   "seed [count]",
	Short: "Append generated entries to the demo feed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count := defaultSeedCount
		if len(args) == 1 {
			var err error
			count, err = strconv.Atoi(args[0])
			if err != nil || count <= 0 {
				return fmt.Errorf("count must be a positive integer, got %q", args[0])
			}
		}

		svc, err := createFeedService(cmd)
		if err != nil {
			return err
		}
		total, err := svc.Seed(cmd.Context(), count)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d entries, feed now holds %d.\n", count, total)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show demo feed statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		svc, err := createFeedService(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		total, err := svc.Count(cmd.Context())
		if err != nil {
			return err
		}

		stats := feedStats{
			Items:     total,
			PageSize:  cfg.PageSize,
			WindowCap: 2 * cfg.PageSize,
			DataDir:   cfg.DataDir(),
		}
		return printStats(stats, format)
	},
}

type feedStats struct {
	Items     int64  `json:"items" yaml:"items"`
	PageSize  int    `json:"page_size" yaml:"page_size"`
	WindowCap int    `json:"window_cap" yaml:"window_cap"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(seedCmd)
	feedCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
}

func createFeedService(cmd *cobra.Command) (feed.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	db, err := feed.Connect(cmd.Context(), cfg.DataDir())
	if err != nil {
		return nil, err
	}
	return feed.NewService(db), nil
}

func printStats(stats feedStats, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(stats)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		fmt.Print(string(data))
	case "text":
		fmt.Printf("Items:       %d\n", stats.Items)
		fmt.Printf("Page size:   %d\n", stats.PageSize)
		fmt.Printf("Window cap:  %d\n", stats.WindowCap)
		fmt.Printf("Data dir:    %s\n", stats.DataDir)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}
