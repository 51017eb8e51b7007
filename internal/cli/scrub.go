package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkallberg/scrub/internal/archive"
	"github.com/pkallberg/scrub/internal/config"
	"github.com/pkallberg/scrub/internal/filter"
	"github.com/pkallberg/scrub/internal/platform"
	"github.com/pkallberg/scrub/internal/report"
	"github.com/pkallberg/scrub/internal/scrub"
	"github.com/pkallberg/scrub/internal/store"
	"github.com/spf13/cobra"
)

var (
	scrubDryRun    bool
	scrubNoDryRun  bool
	scrubPlatforms string
	scrubMaxPosts  int
	scrubStartDate string
	scrubEndDate   string
	scrubKeyword   string
	scrubPostIDs   string
	scrubFormat    string
	scrubYes       bool
	noColor        bool
)

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&scrubDryRun, "dry-run", false, "preview without deleting (default)")
	flags.BoolVar(&scrubNoDryRun, "no-dry-run", false, "actually delete posts")
	flags.StringVar(&scrubPlatforms, "platforms", "", "comma-separated platforms (default: all configured)")
	flags.IntVar(&scrubMaxPosts, "max-posts", 0, "max posts to delete per platform")
	flags.StringVar(&scrubStartDate, "start-date", "", "start of range (today, N_days_ago, RFC 3339, YYYY-MM-DD)")
	flags.StringVar(&scrubEndDate, "end-date", "", "end of range")
	flags.StringVar(&scrubKeyword, "keyword", "", "only posts containing this keyword")
	flags.StringVar(&scrubPostIDs, "post-ids", "", "comma-separated explicit post IDs")
	flags.StringVar(&scrubFormat, "format", "", "output format: terminal, json")
	flags.BoolVar(&scrubYes, "yes", false, "skip the confirmation prompt")
	flags.BoolVar(&noColor, "no-color", false, "disable ANSI colors")
	rootCmd.SilenceUsage = true
}

func scrubAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScrubFlags(cmd, cfg)

	log := newLogger(cfg.LogLevel)

	start, end, err := cfg.Window(nowFunc())
	if err != nil {
		return err
	}

	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no platforms configured; set credentials or run 'scrub init'")
	}

	dryRun := cfg.Scrub.DryRun
	if !dryRun && !scrubYes {
		candidatesDesc := fmt.Sprintf("posts from %s between %s and %s",
			strings.Join(platformNames(adapters), ", "),
			start.Format("2006-01-02"), end.Format("2006-01-02"))
		if !confirm(fmt.Sprintf("Permanently delete %s?", candidatesDesc)) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var archiver *archive.Archiver
	if cfg.Scrub.ArchiveBeforeDelete {
		archiver = archive.New(cfg.Scrub.ArchivePath)
	}

	runner := &scrub.Runner{
		Adapters: adapters,
		Criteria: filter.Criteria{
			Start:    start,
			End:      end,
			Keyword:  cfg.Scrub.Keyword,
			PostIDs:  cfg.Scrub.PostIDs,
			Mode:     filter.Mode(cfg.Scrub.FilterMode),
			Order:    filter.Order(cfg.Scrub.Order),
			MaxPosts: cfg.Scrub.MaxPosts,
		},
		Archiver: archiver,
		Retry:    platform.DefaultRetryPolicy(),
		DryRun:   dryRun,
		Log:      log,
	}

	rep := runner.Run(cmd.Context())

	if err := saveHistory(cmd, cfg, rep); err != nil {
		log.Warn("could not record run history", "error", err)
	}

	var formatter report.Formatter
	switch scrubFormat {
	case "json":
		formatter = report.NewJSON()
	case "terminal", "":
		formatter = report.NewTerminal(!noColor)
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", scrubFormat)
	}
	if err := formatter.Format(os.Stdout, rep); err != nil {
		return err
	}

	if rep.Failed() {
		return fmt.Errorf("one or more platforms reported failures")
	}
	return nil
}

// applyScrubFlags overlays explicitly-set flags onto the loaded config.
func applyScrubFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.Scrub.DryRun = scrubDryRun
	}
	if flags.Changed("no-dry-run") && scrubNoDryRun {
		cfg.Scrub.DryRun = false
	}
	if flags.Changed("platforms") {
		cfg.Platforms = splitFlagList(scrubPlatforms)
	}
	if flags.Changed("max-posts") {
		cfg.Scrub.MaxPosts = scrubMaxPosts
	}
	if flags.Changed("start-date") {
		cfg.Scrub.StartDate = scrubStartDate
	}
	if flags.Changed("end-date") {
		cfg.Scrub.EndDate = scrubEndDate
	}
	if flags.Changed("keyword") {
		cfg.Scrub.Keyword = scrubKeyword
	}
	if flags.Changed("post-ids") {
		cfg.Scrub.PostIDs = splitFlagList(scrubPostIDs)
	}
}

// buildAdapters constructs one adapter per enabled platform.
func buildAdapters(cfg *config.Config) ([]platform.Adapter, error) {
	var adapters []platform.Adapter
	for _, name := range cfg.EnabledPlatforms() {
		switch name {
		case platform.Bluesky:
			adapters = append(adapters, platform.NewBluesky(cfg.Bluesky.Handle, cfg.Bluesky.Password, cfg.Bluesky.Host))
		case platform.Mastodon:
			adapters = append(adapters, platform.NewMastodon(cfg.Mastodon.APIBaseURL, cfg.Mastodon.AccessToken))
		case platform.Twitter:
			adapters = append(adapters, platform.NewTwitter(
				cfg.Twitter.APIKey, cfg.Twitter.APISecret,
				cfg.Twitter.AccessToken, cfg.Twitter.AccessTokenSecret))
		default:
			return nil, fmt.Errorf("unknown platform %q", name)
		}
	}
	return adapters, nil
}

func saveHistory(cmd *cobra.Command, cfg *config.Config, rep *scrub.Report) error {
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	candidates, deleted, skipped, failed := rep.Totals()
	run := store.Run{
		ID:         rep.RunID,
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		DryRun:     rep.DryRun,
		Platforms:  rep.PlatformNames(),
		Candidates: candidates,
		Deleted:    deleted,
		Skipped:    skipped,
		Failed:     failed,
	}

	var results []store.Result
	for _, pr := range rep.Platforms {
		for _, res := range pr.Results {
			results = append(results, store.Result{
				RunID:       rep.RunID,
				Platform:    res.Platform,
				PostID:      res.PostID,
				Outcome:     res.Outcome,
				Error:       res.Error,
				Archived:    res.Archived,
				ArchivePath: res.ArchivePath,
			})
		}
	}

	return db.SaveRun(cmd.Context(), run, results)
}

func platformNames(adapters []platform.Adapter) []string {
	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	return names
}

func confirm(message string) bool {
	fmt.Printf("%s [y/N]: ", message)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func splitFlagList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
