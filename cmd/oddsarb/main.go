// Command oddsarb runs the odds-comparison pipeline's main loop: ingest
// every configured source's per-country files, group matching
// fixtures, analyze each group for either arbitrage or +EV
// opportunities, apply the arb-only confirmation gate or the +EV-only
// lifecycle tracker, dedup and sort, then write per-country JSON
// output and clean up stale files.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fahdbohli/oddsarb/internal/arbitrage"
	"github.com/fahdbohli/oddsarb/internal/config"
	"github.com/fahdbohli/oddsarb/internal/confirmation"
	"github.com/fahdbohli/oddsarb/internal/dedup"
	"github.com/fahdbohli/oddsarb/internal/ev"
	"github.com/fahdbohli/oddsarb/internal/grouper"
	"github.com/fahdbohli/oddsarb/internal/ingest"
	"github.com/fahdbohli/oddsarb/internal/investigation"
	"github.com/fahdbohli/oddsarb/internal/lifecycle"
	"github.com/fahdbohli/oddsarb/internal/matchcache"
	"github.com/fahdbohli/oddsarb/internal/matching"
	"github.com/fahdbohli/oddsarb/internal/model"
	"github.com/fahdbohli/oddsarb/internal/outputs"
	"github.com/fahdbohli/oddsarb/internal/telemetry"
	"github.com/fahdbohli/oddsarb/internal/textnorm"
)

func main() {
	mode := flag.String("mode", "prematch", "prematch | live")
	sport := flag.String("sport", "football", "sport settings directory under settings/")
	check := flag.String("check", "arb", "arb | ev")
	loop := flag.Bool("loop", false, "keep running, sleeping between cycles")
	delay := flag.Int("delay", 0, "seconds between cycles when -loop; 0 uses thresholds.yaml's loop_delay_seconds")
	showOnlyConfirmed := flag.Bool("show-only-confirmed", true, "withhold arbitrage opportunities until every contributing source confirms (ignored for -check ev)")
	flag.Parse()

	env := config.LoadEnv()
	thresholds, err := config.LoadThresholds(env.ThresholdsPath)
	if err != nil {
		os.Exit(fatal("load thresholds: %v", err))
	}
	telemetry.Init(telemetry.ParseLogLevel(thresholds.LogLevel))

	p, err := loadPipeline(env, thresholds, *sport, *mode, *check)
	if err != nil {
		os.Exit(fatal("load pipeline config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cacheDir := thresholds.CacheDir
	if env.CacheRoot != "" {
		cacheDir = env.CacheRoot
	}
	outputDir := p.outputDir
	if outputDir == "" {
		outputDir = thresholds.OutputDir
	}
	if env.OutputRoot != "" {
		outputDir = env.OutputRoot
	}
	cacheDir = filepath.Join(cacheDir, *sport, *mode, *check)
	outputDir = filepath.Join(outputDir, *check)
	writer := outputs.New(outputDir)

	var archive *investigation.Archive
	if thresholds.InvestigationArchivePath != "" {
		archive, err = investigation.Open(thresholds.InvestigationArchivePath, thresholds.InvestigationArchiveMaxBytes)
		if err != nil {
			telemetry.Warnf("investigation archive disabled: %v", err)
			archive = nil
		} else {
			defer archive.Close()
		}
	}

	gate := confirmation.Load(*showOnlyConfirmed,
		filepath.Join(cacheDir, "unconfirmed_opportunities.json"),
		filepath.Join(cacheDir, "confirmation_activity.json"))

	lifecycleCfg := lifecycle.Config{
		Enabled:                 p.ev.Method != "" && thresholds.InvestigationTimeoutMinutes > 0,
		AppearanceInvestigation: true,
		DoubleCheck:             true,
		InvestigationTimeout:    time.Duration(thresholds.InvestigationTimeoutMinutes) * time.Minute,
		LogRoot:                 filepath.Join(cacheDir, "investigations"),
		Mode:                    *mode,
		TargetSource:            p.ev.TargetSource,
		Sport:                   *sport,
		EVConfig:                p.ev,
		Archive:                 archive,
	}
	manager := lifecycle.Load(
		filepath.Join(cacheDir, "active.json"),
		filepath.Join(cacheDir, "purgatory.json"),
		filepath.Join(cacheDir, "pending.json"),
		filepath.Join(cacheDir, "lifecycle_activity.json"),
	)

	lastUpdated := map[string]time.Time{}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		runCycle(ctx, p, *check, gate, manager, lifecycleCfg, lastUpdated, writer)
		telemetry.Infof("cycle complete in %s", time.Since(start))

		if err := gate.Save(
			filepath.Join(cacheDir, "unconfirmed_opportunities.json"),
			filepath.Join(cacheDir, "confirmation_activity.json"),
		); err != nil {
			telemetry.Warnf("save confirmation caches: %v", err)
		}
		if err := manager.Save(
			filepath.Join(cacheDir, "active.json"),
			filepath.Join(cacheDir, "purgatory.json"),
			filepath.Join(cacheDir, "pending.json"),
			filepath.Join(cacheDir, "lifecycle_activity.json"),
		); err != nil {
			telemetry.Warnf("save lifecycle caches: %v", err)
		}

		if !*loop {
			return
		}
		sleepFor := time.Duration(thresholds.LoopDelaySeconds) * time.Second
		if *delay > 0 {
			sleepFor = time.Duration(*delay) * time.Second
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepFor):
		}
	}
}

// runCycle reads every source's country files once, groups fixtures,
// analyzes for the configured opportunity kind, and writes output.
func runCycle(
	ctx context.Context,
	p *pipeline,
	check string,
	gate *confirmation.Gate,
	manager *lifecycle.Manager,
	lifecycleCfg lifecycle.Config,
	lastUpdated map[string]time.Time,
	writer *outputs.Writer,
) {
	countries, err := p.reader.Countries()
	if err != nil {
		telemetry.Errorf("list countries: %v", err)
		return
	}

	resultsByCountry := map[string][]*model.GroupObject{}
	currentArbUIDs := map[string]struct{}{}

	for _, country := range countries {
		bySource := p.reader.ReadCountry(ctx, country)
		if len(bySource) == 0 {
			continue
		}

		recordsBySource := make(map[string][]*model.Record, len(bySource))
		for source, batch := range bySource {
			recordsBySource[source] = batch.Records
			if !batch.UpdatedAt.IsZero() {
				lastUpdated[source] = batch.UpdatedAt
			}
		}

		groups := p.grouper.FindAllMatchingMatches(recordsBySource)
		if len(groups) == 0 {
			continue
		}

		var countryGroups []*model.GroupObject
		groupsByID := make(map[string]*model.Group, len(groups))
		now := time.Now()

		for _, g := range groups {
			groupsByID[g.ID] = g
			gobj := newGroupObject(g)

			switch check {
			case "ev":
				opps := ev.AnalyzeOpportunities(g, p.ev)
				if len(opps) == 0 {
					continue
				}
				gobj.EVOpportunities = opps
				countryGroups = append(countryGroups, gobj)
			default:
				opp := arbitrage.AnalyzeOptimalArbitrage(g.Records, p.arb)
				if opp == nil {
					continue
				}
				opp.GroupID = g.ID
				currentArbUIDs[opp.UniqueID] = struct{}{}
				confirmed := gate.Process([]*model.ArbitrageOpportunity{opp}, lastUpdated, now)
				if len(confirmed) == 0 {
					continue
				}
				gobj.ArbOpportunities = confirmed
				countryGroups = append(countryGroups, gobj)
			}
		}

		if check == "ev" {
			current := map[string]*model.EVOpportunity{}
			for _, g := range countryGroups {
				for _, o := range g.EVOpportunities {
					current[o.UniqueID] = o
				}
			}
			manager.RunCycle(current, groupsByID, lifecycleCfg, now)
		}

		// Bucket each group under its own resolved country (spec §4.4),
		// not the source directory it happened to be read from — member
		// records can disagree with the directory's own country label.
		for _, gobj := range countryGroups {
			resultsByCountry[gobj.Country] = append(resultsByCountry[gobj.Country], gobj)
		}
	}

	if check == "ev" {
		for country, groups := range resultsByCountry {
			resultsByCountry[country] = dedup.EV(groups)
		}
	} else {
		gate.Prune(currentArbUIDs)
		for country, groups := range resultsByCountry {
			resultsByCountry[country] = dedup.Arbitrage(groups)
		}
	}

	generated, err := writer.Write(resultsByCountry)
	if err != nil {
		telemetry.Errorf("write outputs: %v", err)
		return
	}
	if err := writer.Cleanup(generated); err != nil {
		telemetry.Warnf("cleanup stale outputs: %v", err)
	}
}

// newGroupObject derives the output envelope's fixture fields from the
// group's first member; every member was already judged to describe
// the same fixture, so any one record's date/time/teams will do. The
// country label follows spec §4.4's rule (shortest valid, non-null
// country among the group), not the source directory the group
// happened to be read from.
func newGroupObject(g *model.Group) *model.GroupObject {
	first := g.Records[0]
	return &model.GroupObject{
		GroupID:    g.ID,
		HomeTeam:   first.HomeTeam,
		AwayTeam:   first.AwayTeam,
		Date:       first.Date,
		Time:       first.Time,
		Country:    arbitrage.BestCountry(g.Records),
		AllSources: g.Sources(),
	}
}

func fatal(format string, args ...any) int {
	telemetry.Errorf(format, args...)
	return 1
}

// pipeline bundles every per-(sport,mode) component runCycle needs.
type pipeline struct {
	reader    *ingest.Reader
	grouper   *grouper.Grouper
	arb       arbitrage.Config
	ev        ev.Config
	outputDir string
}

func loadPipeline(env *config.Env, thresholds *config.Thresholds, sport, mode, check string) (*pipeline, error) {
	dir := config.SportDir(env.SettingsDir, sport)

	settings, err := config.LoadSettings(filepath.Join(dir, "settings.json"))
	if err != nil {
		return nil, err
	}
	modeSettings, err := settings.ForSportMode(sport, mode)
	if err != nil {
		return nil, err
	}
	helper, err := config.LoadMatchingHelper(filepath.Join(dir, "matching_helper.json"))
	if err != nil {
		return nil, err
	}
	sets, err := config.LoadMarketSets(filepath.Join(dir, "market_sets.json"))
	if err != nil {
		return nil, err
	}
	urlFile, err := config.LoadURLBuilder(filepath.Join(dir, "url_builder.json"))
	if err != nil {
		return nil, err
	}

	norm := textnorm.New(helper.TextNormConfig())
	matcher := matching.New(norm, helper.MatchingConfig(thresholds.FuzzyThreshold))
	cache := matchcache.New(matcher)
	g := grouper.New(norm, cache, helper.ImportantTerms, modeSettings.GrouperConfig())

	urls := urlFile.Registry(sport, mode, telemetry.Warnf)

	rps, burst := modeSettings.RatePerSecond, modeSettings.RateBurst
	if rps <= 0 {
		rps = 2.0
	}
	if burst <= 0 {
		burst = 4
	}
	reader := ingest.NewReader(modeSettings.SourceDirs(), rps, burst)

	p := &pipeline{
		reader:    reader,
		grouper:   g,
		arb:       arbitrage.Config{MarketSets: sets, URLs: urls},
		outputDir: modeSettings.OutputDir,
	}

	if check == "ev" {
		evFile, err := config.LoadEVFile(filepath.Join(dir, "ev.json"))
		if err != nil {
			return nil, err
		}
		p.ev = evFile.EVConfig(sets, urls)
	}

	return p, nil
}
