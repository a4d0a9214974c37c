package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finstat-harvester/internal/cache"
	"github.com/sells-group/finstat-harvester/internal/harvest"
	"github.com/sells-group/finstat-harvester/internal/model"
	"github.com/sells-group/finstat-harvester/internal/registry"
	"github.com/sells-group/finstat-harvester/internal/sink"
	"github.com/sells-group/finstat-harvester/internal/store"
	"github.com/sells-group/finstat-harvester/pkg/taxisportal"
)

var harvestLimit int

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest statements for every registered entity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Portal.SessionToken == "" {
			return eris.New("harvest: portal.session_token is required (refresh it from a logged-in browser session)")
		}

		entities, err := registry.LoadEntities(cfg.Harvest.RegistryPath)
		if err != nil {
			return err
		}
		if harvestLimit > 0 && len(entities) > harvestLimit {
			entities = entities[:harvestLimit]
		}

		portal := taxisportal.NewClient(cfg.Portal.SessionToken,
			taxisportal.WithBaseURL(cfg.Portal.BaseURL),
			taxisportal.WithVariant(taxisportal.Variant(cfg.Portal.Variant)),
			taxisportal.WithPageSize(cfg.Portal.PageSize),
			taxisportal.WithHTTPClient(newPortalHTTPClient(cfg.Portal.TimeoutSecs)),
		)

		out, err := sink.OpenCSV(cfg.Harvest.OutputPath)
		if err != nil {
			return err
		}
		defer out.Close() //nolint:errcheck

		runs := initStore(ctx)
		if runs != nil {
			defer runs.Close() //nolint:errcheck
		}

		h := harvest.New(entities, portal, cache.New(cfg.Harvest.CacheDir), out, runs, harvest.Options{
			Throttle:    time.Duration(cfg.Harvest.ThrottleMs) * time.Millisecond,
			Concurrency: cfg.Harvest.Concurrency,
		})

		summary, err := h.Run(ctx)
		if summary != nil {
			formatSummary(summary)
		}
		if err != nil {
			return eris.Wrap(err, "harvest")
		}
		return nil
	},
}

func init() {
	harvestCmd.Flags().IntVar(&harvestLimit, "limit", 0, "max number of entities to process (0 = all)")
	rootCmd.AddCommand(harvestCmd)
}

// newPortalHTTPClient builds the portal HTTP client with the configured
// timeout.
func newPortalHTTPClient(timeoutSecs int) *http.Client {
	if timeoutSecs <= 0 {
		timeoutSecs = 60
	}
	return &http.Client{
		Timeout: time.Duration(timeoutSecs) * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// initStore opens the run-history store. Run recording is best-effort: a
// store failure is logged and the harvest proceeds without history.
func initStore(ctx context.Context) store.Store {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		zap.L().Warn("run history disabled, store unavailable", zap.Error(err))
		return nil
	}
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run history disabled, migration failed", zap.Error(err))
		_ = st.Close()
		return nil
	}
	return st
}

// formatSummary prints the run summary as an aligned table.
func formatSummary(s *model.HarvestSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Entities processed:\t%d\n", s.EntitiesProcessed)
	_, _ = fmt.Fprintf(w, "Entities skipped:\t%d\n", s.EntitiesSkipped)
	_, _ = fmt.Fprintf(w, "Statements ok:\t%d\n", s.StatementsOK)
	_, _ = fmt.Fprintf(w, "Statements skipped:\t%d\n", s.StatementsSkipped)
	_, _ = fmt.Fprintf(w, "Cache hits:\t%d\n", s.CacheHits)
	_, _ = fmt.Fprintf(w, "Remote fetches:\t%d\n", s.RemoteFetches)
	_, _ = fmt.Fprintf(w, "Extraction misses:\t%d\n", s.ExtractionMisses)
	_, _ = fmt.Fprintf(w, "Rows written:\t%d\n", s.RowsWritten)
	_ = w.Flush()
}
