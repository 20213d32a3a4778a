package rollup

import (
	"context"
	"strings"

	"github.com/naptholomew/tempest-attendance/pkg/wcl"
)

// Source is the slice of the log-service client the resolver needs.
// *wcl.Client satisfies it; tests substitute fakes.
type Source interface {
	Fights(ctx context.Context, code string) ([]wcl.Fight, error)
	Table(ctx context.Context, code, view string, fightIDs []int) ([]wcl.TableEntry, error)
}

// Resolver turns one report into the set of raw member names observed in its
// qualifying fights.
type Resolver struct {
	Source Source

	// Allowed is the member classification allow-list. Entries with an empty
	// type tag are presumed members regardless.
	Allowed map[string]struct{}

	// Denied is the exact-name deny-list of known non-member actors.
	Denied map[string]struct{}
}

// NewResolver builds a Resolver from list-form config.
func NewResolver(src Source, allowedTypes, denyNames []string) *Resolver {
	r := &Resolver{
		Source:  src,
		Allowed: make(map[string]struct{}, len(allowedTypes)),
		Denied:  make(map[string]struct{}, len(denyNames)),
	}
	for _, t := range allowedTypes {
		r.Allowed[t] = struct{}{}
	}
	for _, n := range denyNames {
		r.Denied[n] = struct{}{}
	}
	return r
}

type tableResult struct {
	entries []wcl.TableEntry
	err     error
}

// Resolve fetches the qualifying fights of a report and unions the names seen
// in its damage-done and healing tables. A report with no qualifying fights
// contributes no presence; that is not an error. The two table fetches have
// no ordering dependency and are issued concurrently.
func (r *Resolver) Resolve(ctx context.Context, report wcl.Report) (map[string]struct{}, error) {
	fights, err := r.Source.Fights(ctx, report.Code)
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, f := range fights {
		if f.Qualifying() {
			ids = append(ids, f.ID)
		}
	}
	if len(ids) == 0 {
		return map[string]struct{}{}, nil
	}

	results := make(chan tableResult, 2)
	for _, view := range []string{wcl.TableDamageDone, wcl.TableHealing} {
		go func(view string) {
			entries, err := r.Source.Table(ctx, report.Code, view, ids)
			results <- tableResult{entries, err}
		}(view)
	}

	present := make(map[string]struct{})
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err != nil {
			return nil, res.err
		}
		for _, e := range res.entries {
			if name, ok := r.admit(e); ok {
				present[name] = struct{}{}
			}
		}
	}
	return present, nil
}

// admit applies trimming, the deny-list, and the classification allow-list.
func (r *Resolver) admit(e wcl.TableEntry) (string, bool) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return "", false
	}
	if _, denied := r.Denied[name]; denied {
		return "", false
	}
	// Empty type: schema unknown, presume member.
	if e.Type != "" && len(r.Allowed) > 0 {
		if _, ok := r.Allowed[e.Type]; !ok {
			return "", false
		}
	}
	return name, true
}
