// Command validate checks a food catalog before it is deployed: it must parse,
// every food needs a usable unit weight and domestic origin, and with
// -geocode every distinct domestic origin must resolve through Nominatim.
//
// Usage:
//
//	go run ./cmd/validate -catalog data/catalog.json
//	go run ./cmd/validate -catalog data/catalog.json -geocode
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/carbon-food-print/internal/adapter/catalog"
	"github.com/couchcryptid/carbon-food-print/internal/adapter/nominatim"
	"github.com/couchcryptid/carbon-food-print/internal/domain"
	"github.com/couchcryptid/carbon-food-print/internal/observability"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	// Nominatim's usage policy allows one request per second.
	geocodeInterval = time.Second
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	source := flag.String("catalog", "data/catalog.json", "catalog file path or http(s) URL")
	geocode := flag.Bool("geocode", false, "resolve every domestic origin through Nominatim")
	nominatimURL := flag.String("nominatim-url", defaultNominatimURL, "Nominatim search endpoint")
	userAgent := flag.String("user-agent", "carbon-food-print-validate/1.0", "User-Agent sent to Nominatim")
	flag.Parse()

	opts := options{
		source:       *source,
		geocode:      *geocode,
		nominatimURL: *nominatimURL,
		userAgent:    *userAgent,
	}
	os.Exit(run(context.Background(), opts, os.Stdout))
}

type options struct {
	source       string
	geocode      bool
	nominatimURL string
	userAgent    string
	geocoder     domain.Geocoder // overrides the Nominatim client when set
	interval     time.Duration
}

func run(ctx context.Context, opts options, out io.Writer) int {
	fmt.Fprintln(out, "=== Food Catalog Validation ===")
	fmt.Fprintln(out)

	cat, err := catalog.NewLoader(opts.source, 30*time.Second).Load(ctx)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{validateEntries(cat)}
	if opts.geocode {
		geocoder := opts.geocoder
		if geocoder == nil {
			geocoder = nominatim.NewClient(opts.nominatimURL, opts.userAgent, 10*time.Second,
				observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
		}
		interval := opts.interval
		if opts.geocoder == nil && interval == 0 {
			interval = geocodeInterval
		}
		phases = append(phases, validateOrigins(ctx, cat, geocoder, interval))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Foods: %d, distinct domestic origins: %d\n", len(cat), len(domesticOrigins(cat)))

	for _, p := range phases {
		for _, w := range p.warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Entries ──

func validateEntries(cat domain.Catalog) *phase {
	p := &phase{name: "Phase 1: Catalog entries"}

	names := map[string]string{}
	for _, food := range cat.Entries() {
		if food.AverageUnitWeightKg < 0 {
			p.errorf("%s: negative avg_weight_kg %g", food.ID, food.AverageUnitWeightKg)
		} else if food.AverageUnitWeightKg == 0 {
			p.warnf("%s: no avg_weight_kg, quantities are treated as kg", food.ID)
		}
		if food.ID != strings.ToLower(strings.TrimSpace(food.ID)) {
			p.warnf("%s: id is not lower-case", food.ID)
		}
		key := strings.ToLower(food.DisplayName)
		if other, dup := names[key]; dup {
			p.errorf("%s: display name %q already used by %s", food.ID, food.DisplayName, other)
		} else {
			names[key] = food.ID
		}
	}
	return p
}

// ── Phase 2: Domestic origins ──

func validateOrigins(ctx context.Context, cat domain.Catalog, geocoder domain.Geocoder, interval time.Duration) *phase {
	p := &phase{name: "Phase 2: Domestic origins (geocoding)"}

	for i, origin := range domesticOrigins(cat) {
		if i > 0 && interval > 0 {
			time.Sleep(interval)
		}
		if _, err := geocoder.Resolve(ctx, origin); err != nil {
			p.errorf("domestic origin %q: %v", origin, err)
		}
	}
	return p
}

func domesticOrigins(cat domain.Catalog) []string {
	seen := map[string]struct{}{}
	for _, food := range cat {
		seen[food.DomesticOriginName] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
