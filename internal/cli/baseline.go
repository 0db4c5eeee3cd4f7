package cli

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"github.com/ztsentinel/sentinel/internal/infra/behavioral"
)

func init() {
	baselineCmd.Flags().IntVar(&baselineEvents, "events", 500, "Number of synthetic events to generate")
	baselineCmd.Flags().IntVar(&baselineEntities, "entities", 20, "Number of entities")
	rootCmd.AddCommand(baselineCmd)
}

var (
	baselineEvents   int
	baselineEntities int
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Learn behavioral baselines from synthetic access events",
	RunE:  runBaseline,
}

func runBaseline(cmd *cobra.Command, args []string) error {
	fmt.Printf("[*] Generating %d events for %d entities...\n", baselineEvents, baselineEntities)

	store := behavioral.NewBaselineStore(behavioral.DefaultDecayFactor)
	rng := rand.New(rand.NewSource(42))

	entityIDs := make([]string, baselineEntities)
	for i := range entityIDs {
		entityIDs[i] = fmt.Sprintf("user-%03d", i)
	}
	resources := []string{"resource-a", "resource-b", "resource-c", "resource-d", "resource-e",
		"resource-f", "resource-g", "resource-h", "resource-i", "resource-j"}
	actions := []string{"read", "write", "execute"}
	locations := []string{"us-east", "us-west", "eu-west", "ap-south"}

	for i := 0; i < baselineEvents; i++ {
		entityID := entityIDs[rng.Intn(len(entityIDs))]
		duration := gaussMin(rng, 3600, 1200, 60)
		store.Observe(entityID, behavioral.Event{
			Hour:            int(mod24(rng.NormFloat64()*3+10)),
			DayOfWeek:       rng.Intn(7),
			Resource:        resources[rng.Intn(len(resources))],
			Action:          actions[rng.Intn(len(actions))],
			SessionDuration: &duration,
			Location:        locations[rng.Intn(len(locations))],
			SourceIP:        fmt.Sprintf("10.0.%d.%d", 1+rng.Intn(10), 1+rng.Intn(254)),
		})
	}

	ids := store.AllEntityIDs()
	fmt.Printf("[+] Baselines learned for %d entities\n", len(ids))
	limit := len(ids)
	if limit > 5 {
		limit = 5
	}
	for _, eid := range ids[:limit] {
		summary, _ := store.ProfileSummary(eid)
		fmt.Printf("    %s: %d obs, peak_hour=%d, locations=%d, avg_session=%.0fs\n",
			eid, summary.ObservationCount, summary.PeakHour, summary.UniqueLocations, summary.AvgSessionDuration)
	}
	if len(ids) > 5 {
		fmt.Printf("    ... and %d more\n", len(ids)-5)
	}
	return nil
}

func mod24(h float64) float64 {
	for h < 0 {
		h += 24
	}
	for h >= 24 {
		h -= 24
	}
	return h
}

func gaussMin(rng *rand.Rand, mean, stddev, min float64) float64 {
	v := rng.NormFloat64()*stddev + mean
	if v < min {
		return min
	}
	return v
}
