package rollup

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/naptholomew/tempest-attendance/pkg/wcl"
	"go.uber.org/zap"
)

// Pipeline is the attendance roll-up: reports in, sorted per-member rows out.
// It is stateless; Run is a one-shot transform and re-running it with
// unchanged inputs is idempotent.
type Pipeline struct {
	Logger   *zap.Logger
	Resolver *Resolver

	// Location and RaidDays drive both the night bucketing and the weekday
	// filter. They must agree, so they live together here.
	Location *time.Location
	RaidDays []time.Weekday

	// Workers bounds concurrent per-report presence resolution.
	Workers int
}

// Run executes the full roll-up over the given window. Any upstream failure
// aborts the run with no partial result.
func (p *Pipeline) Run(ctx context.Context, windowStart, windowEnd time.Time, in Inputs) (*Snapshot, error) {
	buckets := p.bucketNights(in)

	nights := make([]string, 0, len(buckets))
	for key := range buckets {
		nights = append(nights, key)
	}
	sort.Strings(nights)

	presentRaw, err := p.resolveNights(ctx, buckets)
	if err != nil {
		return nil, err
	}

	// Alias-normalize before override lookup and aggregation; overrides and
	// output rows are keyed by canonical name.
	presentCanonical := make(map[string]map[string]struct{}, len(presentRaw))
	for key, raw := range presentRaw {
		canon := make(map[string]struct{}, len(raw))
		for name := range raw {
			canon[Canonical(name, in.Aliases)] = struct{}{}
		}
		presentCanonical[key] = canon
	}

	applied := make(map[string]map[string]float64, len(nights))
	for _, key := range nights {
		applied[key] = applyOverrides(presentCanonical[key], in.Overrides[key])
	}

	rows, perPlayer := p.aggregate(nights, presentCanonical, applied)

	excluded := make([]ExcludedDate, 0, len(in.Excluded))
	for key, reason := range in.Excluded {
		excluded = append(excluded, ExcludedDate{DateKey: key, Reason: reason})
	}
	sort.Slice(excluded, func(i, j int) bool { return excluded[i].DateKey < excluded[j].DateKey })

	return &Snapshot{
		GeneratedAt:    time.Now().UTC(),
		WindowStart:    windowStart.UTC(),
		WindowEnd:      windowEnd.UTC(),
		Nights:         nights,
		Rows:           rows,
		PerPlayerDates: perPlayer,
		Excluded:       excluded,
	}, nil
}

// Canonical maps a raw name through the alias table, defaulting to identity.
func Canonical(name string, aliases map[string]string) string {
	if canon, ok := aliases[name]; ok && canon != "" {
		return canon
	}
	return name
}

// bucketNights groups reports by local calendar date, dropping non-raid
// weekdays and excluded dates. The surviving keys are the night inventory.
func (p *Pipeline) bucketNights(in Inputs) map[string][]wcl.Report {
	buckets := make(map[string][]wcl.Report)
	for _, rep := range in.Reports {
		start := rep.Start()
		if !IsRaidNight(start, p.Location, p.RaidDays) {
			continue
		}
		key := DateKey(start, p.Location)
		if _, excluded := in.Excluded[key]; excluded {
			continue
		}
		buckets[key] = append(buckets[key], rep)
	}
	return buckets
}

// resolveNights fans presence resolution out across reports and assembles the
// per-night raw unions. Arrival order is irrelevant; every result lands in
// the bucket of the night its report belongs to.
func (p *Pipeline) resolveNights(ctx context.Context, buckets map[string][]wcl.Report) (map[string]map[string]struct{}, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = 4
	}
	pool := pond.NewPool(workers)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var mu sync.Mutex
	present := make(map[string]map[string]struct{}, len(buckets))
	for key := range buckets {
		present[key] = make(map[string]struct{})
	}

	for key, reps := range buckets {
		for _, rep := range reps {
			key, rep := key, rep
			group.SubmitErr(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				names, err := p.Resolver.Resolve(groupCtx, rep)
				if err != nil {
					p.Logger.Warn("presence resolution failed",
						zap.String("report", rep.Code),
						zap.String("night", key),
						zap.Error(err))
					return err
				}
				mu.Lock()
				for name := range names {
					present[key][name] = struct{}{}
				}
				mu.Unlock()
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return present, nil
}

// applyOverrides computes the applied attendance value for every member with
// any signal on the night: resolved presence or an override entry. An
// override replaces resolved presence unconditionally, in both directions.
func applyOverrides(present map[string]struct{}, overrides map[string]float64) map[string]float64 {
	applied := make(map[string]float64, len(present)+len(overrides))
	for name := range present {
		applied[name] = 1
	}
	for name, v := range overrides {
		applied[name] = v
	}
	return applied
}

// aggregate folds per-night applied values into per-member rows. The
// denominator is uniform: every member is measured against the full night
// inventory. lastSeen tracks genuine observed presence only; override-only
// credit never advances it.
func (p *Pipeline) aggregate(nights []string, present map[string]map[string]struct{}, applied map[string]map[string]float64) ([]Row, map[string][]string) {
	possible := len(nights)

	universe := make(map[string]struct{})
	for _, night := range applied {
		for name := range night {
			universe[name] = struct{}{}
		}
	}

	attended := make(map[string]float64, len(universe))
	lastSeen := make(map[string]string, len(universe))
	perPlayer := make(map[string][]string)

	for _, key := range nights {
		for name := range universe {
			attended[name] += applied[key][name]
		}
		for name := range present[key] {
			// nights is ascending, so the last hit wins.
			lastSeen[name] = key
			perPlayer[name] = append(perPlayer[name], key)
		}
	}

	rows := make([]Row, 0, len(universe))
	for name := range universe {
		pct := 0
		if possible > 0 {
			pct = int(math.Round(attended[name] / float64(possible) * 100))
		}
		rows = append(rows, Row{
			Name:     name,
			Attended: math.Round(attended[name]*100) / 100,
			Possible: possible,
			Pct:      pct,
			LastSeen: lastSeen[name],
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Pct != rows[j].Pct {
			return rows[i].Pct > rows[j].Pct
		}
		if rows[i].Attended != rows[j].Attended {
			return rows[i].Attended > rows[j].Attended
		}
		return rows[i].Name < rows[j].Name
	})

	return rows, perPlayer
}
