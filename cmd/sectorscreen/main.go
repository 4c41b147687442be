// Sector Screen — sector and industry stock screener
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/investia/sectorscreen/api"
	"github.com/investia/sectorscreen/internal/config"
	"github.com/investia/sectorscreen/internal/datasource"
	"github.com/investia/sectorscreen/internal/ingest"
	"github.com/investia/sectorscreen/internal/report"
	"github.com/investia/sectorscreen/internal/screener"
	"github.com/investia/sectorscreen/pkg/models"
	"github.com/investia/sectorscreen/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sectorscreen",
	Short: "Sector Screen — sector and industry stock screener",
	Long: `Sector Screen
Browse market sectors and industries, pull the companies in each industry
with their financial ratios, filter and rank them, and export the result
as a plain or color-graded spreadsheet.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sectorsCmd)
	rootCmd.AddCommand(industriesCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(serveCmd)
}

// newScreener builds the production pipeline from config.
func newScreener() (*screener.Screener, datasource.DataSource) {
	src := datasource.NewYahoo()
	return screener.New(src), src
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Sector Screen %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		src := datasource.NewYahoo()

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  Sector Screen — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:      %s (%s)\n", version, commit)
		fmt.Printf("  Data Source:  %s\n", src.Name())
		fmt.Printf("  Sectors:      %d\n", len(src.Sectors()))
		fmt.Println()
		fmt.Println("  Configuration:")
		fmt.Printf("    API Server:     %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Default Method: %s\n", cfg.Screener.DefaultMethod)
		fmt.Printf("    Default Top N:  %d\n", cfg.Screener.DefaultTopN)
		fmt.Printf("    Export Dir:     %s\n", cfg.Export.Directory)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Sectors Command ---

var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "List all market sectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		src := datasource.NewYahoo()
		sectors := src.Sectors()

		names := make([]string, 0, len(sectors))
		for name := range sectors {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("📂 Sectors (%d)\n", len(names))
		for _, name := range names {
			fmt.Printf("  %-25s %s\n", name, sectors[name])
		}
		return nil
	},
}

// --- Industries Command ---

var industriesCmd = &cobra.Command{
	Use:   "industries [sector-key]",
	Short: "List the industries of a sector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scr, _ := newScreener()
		industries := scr.Catalog().Industries(cmd.Context(), args[0])
		if len(industries) == 0 {
			fmt.Printf("⚠️  No industries found for sector %q\n", args[0])
			return nil
		}

		names := make([]string, 0, len(industries))
		for name := range industries {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("📂 %s — industries (%d)\n", args[0], len(names))
		for _, name := range names {
			fmt.Printf("  %-40s %s\n", name, industries[name])
		}
		return nil
	},
}

// --- Screen Command ---

var screenCmd = &cobra.Command{
	Use:   "screen [sector-key]",
	Short: "Screen the companies of a sector's industries",
	Long: `Screen the companies of one or more industries in a sector.

With --industries the screen is limited to the given industry keys;
without it every industry in the sector is included.

Examples:
  sectorscreen screen technology
  sectorscreen screen technology --industries semiconductors,software-infrastructure
  sectorscreen screen energy --method growth --top 10 --out energy.xlsx --styled`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sectorKey := args[0]
		keysFlag, _ := cmd.Flags().GetString("industries")
		methodFlag, _ := cmd.Flags().GetString("method")
		minCap, _ := cmd.Flags().GetFloat64("min-cap")
		maxCap, _ := cmd.Flags().GetFloat64("max-cap")
		topN, _ := cmd.Flags().GetInt("top")
		ratingsFlag, _ := cmd.Flags().GetString("ratings")
		out, _ := cmd.Flags().GetString("out")
		styled, _ := cmd.Flags().GetBool("styled")

		if methodFlag == "" {
			methodFlag = cfg.Screener.DefaultMethod
		}
		if !cmd.Flags().Changed("top") {
			topN = cfg.Screener.DefaultTopN
		}
		method, err := models.ParseRankMethod(methodFlag)
		if err != nil {
			return err
		}

		scr, _ := newScreener()
		industries, err := selectIndustries(cmd, scr, sectorKey, keysFlag)
		if err != nil {
			return err
		}

		fmt.Printf("🔍 Screening %d industries in %s...\n", len(industries), sectorKey)
		table := scr.Combine(cmd.Context(), industries, method)

		filters := screener.Filters{TopN: topN}
		if cmd.Flags().Changed("min-cap") {
			filters.CapMin = &minCap
		}
		if cmd.Flags().Changed("max-cap") {
			filters.CapMax = &maxCap
		}
		if ratingsFlag != "" {
			filters.Ratings = parseRatings(ratingsFlag)
		}
		table = filters.Apply(table)

		if out != "" {
			return writeExport(table, out, styled)
		}
		printTable(table)
		return nil
	},
}

func init() {
	screenCmd.Flags().String("industries", "", "comma-separated industry keys (default: all in the sector)")
	screenCmd.Flags().String("method", "", "ranking method: top, growth, performance")
	screenCmd.Flags().Float64("min-cap", 0, "minimum market cap in millions USD")
	screenCmd.Flags().Float64("max-cap", 0, "maximum market cap in millions USD")
	screenCmd.Flags().Int("top", 0, "keep only the N largest companies (0 disables; unset uses the config default)")
	screenCmd.Flags().String("ratings", "", "comma-separated analyst ratings to keep (e.g. Buy,Strong Buy)")
	screenCmd.Flags().String("out", "", "write the result to this xlsx file instead of printing")
	screenCmd.Flags().Bool("styled", false, "apply the color gradient to the exported file")
}

// parseRatings splits a comma-separated rating list, trimming whitespace
// around each entry and dropping empty ones.
func parseRatings(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// selectIndustries resolves the --industries flag (or the whole sector) to
// name/key pairs.
func selectIndustries(cmd *cobra.Command, scr *screener.Screener, sectorKey, keysFlag string) ([]models.Industry, error) {
	available := scr.Catalog().Industries(cmd.Context(), sectorKey)
	if len(available) == 0 {
		return nil, fmt.Errorf("no industries found for sector %q", sectorKey)
	}

	keyToName := make(map[string]string, len(available))
	for name, key := range available {
		keyToName[key] = name
	}

	if keysFlag == "" || strings.EqualFold(keysFlag, "all") {
		industries := make([]models.Industry, 0, len(available))
		for key, name := range keyToName {
			industries = append(industries, models.Industry{Name: name, Key: key})
		}
		sort.Slice(industries, func(i, j int) bool { return industries[i].Name < industries[j].Name })
		return industries, nil
	}

	var industries []models.Industry
	for _, key := range strings.Split(keysFlag, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		name, ok := keyToName[key]
		if !ok {
			return nil, fmt.Errorf("unknown industry key %q in sector %q", key, sectorKey)
		}
		industries = append(industries, models.Industry{Name: name, Key: key})
	}
	if len(industries) == 0 {
		return nil, fmt.Errorf("no industries selected")
	}
	return industries, nil
}

// --- Import Command ---

var importCmd = &cobra.Command{
	Use:   "import [file.xlsx]",
	Short: "Screen a custom ticker list from a spreadsheet",
	Long: `Read an uploaded spreadsheet containing one ticker per row, resolve the
company names, and build the same ratio table the screen command produces.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		rows, err := ingest.ParseTickerFile(f)
		if err != nil {
			return err
		}
		tickers, err := ingest.ValidateTickers(rows)
		if err != nil {
			return err
		}
		fmt.Printf("📄 %d tickers loaded from %s\n", len(tickers), filepath.Base(args[0]))

		scr, src := newScreener()
		pending := ingest.BuildRows(tickers, func(ticker string) (string, error) {
			return src.CompanyName(cmd.Context(), ticker)
		})
		table := scr.Enricher().Enrich(cmd.Context(), pending)

		if mergePath, _ := cmd.Flags().GetString("merge"); mergePath != "" {
			base, err := readExport(mergePath)
			if err != nil {
				return err
			}
			table = base.Append(table)
		}

		out, _ := cmd.Flags().GetString("out")
		styled, _ := cmd.Flags().GetBool("styled")
		if out != "" {
			return writeExport(table, out, styled)
		}
		printTable(table)
		return nil
	},
}

func init() {
	importCmd.Flags().String("merge", "", "append the result to the rows of this previously exported xlsx file")
	importCmd.Flags().String("out", "", "write the result to this xlsx file instead of printing")
	importCmd.Flags().Bool("styled", false, "apply the color gradient to the exported file")
}

// readExport loads a previously exported table from disk.
func readExport(path string) (screener.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := report.ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return table, nil
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [ticker]",
	Short: "Show recent headlines for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		limit, _ := cmd.Flags().GetInt("limit")

		news := datasource.NewNews()
		items, err := news.TickerNews(cmd.Context(), ticker, limit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Printf("📰 No recent headlines for %s\n", ticker)
			return nil
		}

		fmt.Printf("📰 %s — %d headlines\n", ticker, len(items))
		for _, it := range items {
			if it.Published != "" {
				fmt.Printf("  [%s] %s\n      %s\n", it.Published, it.Title, it.Link)
			} else {
				fmt.Printf("  %s\n      %s\n", it.Title, it.Link)
			}
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 10, "maximum number of headlines")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		src := datasource.NewYahoo()
		srv := api.NewServer(cfg, src, datasource.NewNews())

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting Sector Screen API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Output helpers ---

// writeExport saves the table to an xlsx file, resolving relative paths
// against the configured export directory.
func writeExport(table screener.Table, out string, styled bool) error {
	if !filepath.IsAbs(out) && cfg.Export.Directory != "" {
		out = filepath.Join(cfg.Export.Directory, out)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	if styled {
		err = report.WriteStyledXLSX(f, table)
	} else {
		err = report.WriteXLSX(f, table)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("💾 Saved %d companies to %s\n", len(table), out)
	return nil
}

// printTable prints a compact terminal view of the screening result.
func printTable(table screener.Table) {
	if len(table) == 0 {
		fmt.Println("⚠️  No companies matched")
		return
	}

	fmt.Printf("%-28s %-8s %14s %14s %8s %8s %-10s\n",
		"Name", "Ticker", "Mkt Cap (M)", "Revenue (M)", "P/E", "Gross%", "Rating")
	for _, rec := range table {
		name := rec.Name
		if len(name) > 27 {
			name = name[:27]
		}
		fmt.Printf("%-28s %-8s %14s %14s %8s %8s %-10s\n",
			name, rec.Ticker,
			utils.FormatOptional(rec.MarketCap),
			utils.FormatOptional(rec.Revenue),
			utils.FormatOptional(rec.PE),
			utils.FormatOptional(rec.GrossMargin),
			rec.Rating)
	}
	fmt.Printf("\n%d companies\n", len(table))
}
