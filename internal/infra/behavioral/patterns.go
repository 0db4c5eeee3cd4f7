package behavioral

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/ztsentinel/sentinel/internal/domain"
	gonumstat "gonum.org/v1/gonum/stat"
)

// TimeAnomalyResult is the outcome of checking an access time against an
// entity's learned hour/day-of-week distributions.
type TimeAnomalyResult struct {
	Anomalous        bool
	InsufficientData bool
	Score            float64
	HourScore        float64
	DOWScore         float64
	ExpectedPeakHour int
	ExpectedPeakDay  int
}

// GeoAnomalyResult is the outcome of checking a location against an
// entity's learned location frequencies.
type GeoAnomalyResult struct {
	Anomalous  bool
	NoProfile  bool
	NeverSeen  bool
	Score      float64
	VisitCount int
	Frequency  float64
}

// PopulationOutlier flags an entity whose value for a feature is a
// statistical outlier relative to the rest of the tracked population.
type PopulationOutlier struct {
	EntityID       string
	Feature        string
	Value          float64
	ZScore         float64
	PopulationMean float64
	PopulationStd  float64
}

// EntropyScore holds the Shannon entropy (natural log, in nats, as
// computed by montanaflynn/stats.Entropy) of an entity's learned
// access distributions.
type EntropyScore struct {
	HourEntropy     float64
	HasResourceData bool
	ResourceEntropy float64
}

// PatternAnalyzer finds temporal, geographic, and population-level
// patterns across the profiles tracked by a BaselineStore.
type PatternAnalyzer struct {
	baseline *BaselineStore
}

// NewPatternAnalyzer builds an analyzer over the given baseline store.
func NewPatternAnalyzer(baseline *BaselineStore) *PatternAnalyzer {
	return &PatternAnalyzer{baseline: baseline}
}

// DetectTimeAnomaly checks whether access at the given hour/day-of-week
// is unusual for entityID, combining hour and day-of-week deviation
// 60/40.
func (a *PatternAnalyzer) DetectTimeAnomaly(entityID string, hour, dayOfWeek int) TimeAnomalyResult {
	profile := a.baseline.GetProfile(entityID)
	if profile == nil || profile.ObservationCount < MinObservationsForBaseline {
		return TimeAnomalyResult{InsufficientData: true}
	}

	hourProbs := profile.HourProbabilities()
	dowProbs := profile.DOWProbabilities()

	hourMax := math.Max(hourProbs[argmax(hourProbs[:])], 1e-10)
	dowMax := math.Max(dowProbs[argmax(dowProbs[:])], 1e-10)

	hourScore := 1.0 - (hourProbs[hour] / hourMax)
	dowScore := 1.0 - (dowProbs[dayOfWeek] / dowMax)
	combined := 0.6*hourScore + 0.4*dowScore

	return TimeAnomalyResult{
		Anomalous:        combined > 0.7,
		Score:            domain.Round4(combined),
		HourScore:        domain.Round4(hourScore),
		DOWScore:         domain.Round4(dowScore),
		ExpectedPeakHour: argmax(hourProbs[:]),
		ExpectedPeakDay:  argmax(dowProbs[:]),
	}
}

// DetectGeographicAnomaly checks whether location is unusual for entityID.
func (a *PatternAnalyzer) DetectGeographicAnomaly(entityID, location string) GeoAnomalyResult {
	profile := a.baseline.GetProfile(entityID)
	if profile == nil {
		return GeoAnomalyResult{NoProfile: true}
	}

	count, seen := profile.LocationCounts[location]
	if !seen {
		return GeoAnomalyResult{Anomalous: true, NeverSeen: true, Score: 0.9}
	}

	total := sumCounts(profile.LocationCounts)
	freq := 0.0
	if total > 0 {
		freq = float64(count) / float64(total)
	}
	score := domain.Max0(1.0 - freq*5)

	return GeoAnomalyResult{
		Anomalous:  score > 0.7,
		Score:      domain.Round4(score),
		VisitCount: count,
		Frequency:  domain.Round4(freq),
	}
}

// PopulationFeature selects which profile feature PopulationOutliers
// computes statistics over.
type PopulationFeature string

const (
	FeatureObservationCount PopulationFeature = "observation_count"
	FeatureUniqueResources  PopulationFeature = "unique_resources"
	FeatureUniqueLocations  PopulationFeature = "unique_locations"
	FeatureUniqueIPs        PopulationFeature = "unique_ips"
)

func featureValue(p *domain.BaselineProfile, feature PopulationFeature) (float64, bool) {
	switch feature {
	case FeatureObservationCount:
		return float64(p.ObservationCount), true
	case FeatureUniqueResources:
		return float64(len(p.ResourceCounts)), true
	case FeatureUniqueLocations:
		return float64(len(p.LocationCounts)), true
	case FeatureUniqueIPs:
		return float64(len(p.SourceIPCounts)), true
	default:
		return 0, false
	}
}

// PopulationOutliers finds entities whose feature value deviates from the
// tracked population by more than zThreshold standard deviations,
// sorted by z-score descending.
func (a *PatternAnalyzer) PopulationOutliers(feature PopulationFeature, zThreshold float64) []PopulationOutlier {
	a.baseline.mu.RLock()
	ids := make([]string, 0, len(a.baseline.profiles))
	values := make([]float64, 0, len(a.baseline.profiles))
	for eid, p := range a.baseline.profiles {
		v, ok := featureValue(p, feature)
		if !ok {
			continue
		}
		ids = append(ids, eid)
		values = append(values, v)
	}
	a.baseline.mu.RUnlock()

	if len(values) < 3 {
		return nil
	}

	mean, std := gonumstat.PopMeanStdDev(values, nil)
	if std == 0 {
		return nil
	}

	var outliers []PopulationOutlier
	for i, eid := range ids {
		z := math.Abs(values[i]-mean) / std
		if z > zThreshold {
			outliers = append(outliers, PopulationOutlier{
				EntityID:       eid,
				Feature:        string(feature),
				Value:          values[i],
				ZScore:         domain.Round4(z),
				PopulationMean: domain.Round4(mean),
				PopulationStd:  domain.Round4(std),
			})
		}
	}

	sort.Slice(outliers, func(i, j int) bool { return outliers[i].ZScore > outliers[j].ZScore })
	return outliers
}

// EntropyScore computes the Shannon entropy of entityID's hour and
// (when observed) resource access distributions, as a measure of how
// predictable the entity's behavior is.
func (a *PatternAnalyzer) EntropyScore(entityID string) (EntropyScore, bool) {
	profile := a.baseline.GetProfile(entityID)
	if profile == nil {
		return EntropyScore{}, false
	}

	hourProbs := profile.HourProbabilities()
	hourEntropy, _ := stats.Entropy(hourProbs[:])
	result := EntropyScore{HourEntropy: domain.Round4(hourEntropy)}

	totalRes := sumCounts(profile.ResourceCounts)
	if totalRes > 0 {
		resProbs := make([]float64, 0, len(profile.ResourceCounts))
		for _, c := range profile.ResourceCounts {
			resProbs = append(resProbs, float64(c)/float64(totalRes))
		}
		result.HasResourceData = true
		resEntropy, _ := stats.Entropy(resProbs)
		result.ResourceEntropy = domain.Round4(resEntropy)
	}

	return result, true
}
