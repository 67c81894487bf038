package schema

// Custom string types for type safety.
type (
	// Cohort represents one of the mutually exclusive population groups.
	Cohort string

	// Domain represents a thematic grouping of indicators.
	Domain string

	// RuleKind represents how an indicator is calculated.
	RuleKind string

	// CombinationMethod represents which blending branch produced a value.
	CombinationMethod string

	// FallbackTier represents where a fallback estimate came from.
	FallbackTier string

	// IndicatorType represents the indicator filter for queries.
	IndicatorType string

	// OutputMode represents the format of the output.
	OutputMode string

	// CompareStatus represents the status of one cohort comparison row.
	CompareStatus string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All cohorts in priority order. Classification picks the first match.
const (
	LGBTQCohort             Cohort = "lgbtq"
	ElderlyCohort           Cohort = "elderly"
	DisabledCohort          Cohort = "disabled"
	InformalWorkersCohort   Cohort = "informal_workers"
	GeneralPopulationCohort Cohort = "general_population" // default
)

// All domains supported.
const (
	EconomicSecurityDomain    Domain = "economic_security"
	EducationDomain           Domain = "education"
	HealthcareAccessDomain    Domain = "healthcare_access"
	PhysicalEnvironmentDomain Domain = "physical_environment"
	SocialContextDomain       Domain = "social_context"
	HealthBehaviorsDomain     Domain = "health_behaviors"
	HealthOutcomesDomain      Domain = "health_outcomes"
)

// All rule kinds supported.
const (
	ConditionRule RuleKind = "condition"
	AggregateRule RuleKind = "aggregate"
	SupplyRule    RuleKind = "supply"
)

// All combination methods supported.
const (
	NoCombination       CombinationMethod = ""
	SurveyOnly          CombinationMethod = "survey_only"
	SmallSampleFallback CombinationMethod = "small_sample_fallback"
	SmallSampleBalanced CombinationMethod = "small_sample_balanced"
	HighVariance        CombinationMethod = "high_variance"
	NormalCombination   CombinationMethod = "normal_combination"
)

// All fallback tiers supported.
const (
	NoFallback       FallbackTier = ""
	DistrictFallback FallbackTier = "district"
	CityFallback     FallbackTier = "city"
)

// All indicator types supported.
const (
	AllIndicators    IndicatorType = "all" // default
	SurveyIndicators IndicatorType = "survey"
	SupplyIndicators IndicatorType = "supply"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All comparison statuses supported.
const (
	ComparedStatus   CompareStatus = "compared"
	BaseOnlyStatus   CompareStatus = "base_only"
	TargetOnlyStatus CompareStatus = "target_only"
	NoDataStatus     CompareStatus = "no_data"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

const (
	// OverallDistrict is the synthetic whole-city district.
	OverallDistrict = "Bangkok Overall"

	// MinSample is the minimum number of records needed to emit a survey value.
	MinSample = 5

	// DistrictWideLabel annotates values taken from district-specific fallbacks.
	DistrictWideLabel = "district-wide"

	// CityWideLabel annotates values taken from city-wide fallbacks.
	CityWideLabel = "city-wide"
)

// AllCohorts returns every cohort in classification priority order.
var AllCohorts = []Cohort{LGBTQCohort, ElderlyCohort, DisabledCohort, InformalWorkersCohort, GeneralPopulationCohort}

// AllDomains returns every domain in display order.
var AllDomains = []Domain{
	EconomicSecurityDomain,
	EducationDomain,
	HealthcareAccessDomain,
	PhysicalEnvironmentDomain,
	SocialContextDomain,
	HealthBehaviorsDomain,
	HealthOutcomesDomain,
}

// DomainLabels maps domains to display names.
var DomainLabels = map[Domain]string{
	EconomicSecurityDomain:    "Economic Security",
	EducationDomain:           "Education",
	HealthcareAccessDomain:    "Healthcare Access & Quality",
	PhysicalEnvironmentDomain: "Neighborhood & Built Environment",
	SocialContextDomain:       "Social & Community Context",
	HealthBehaviorsDomain:     "Health Behaviors",
	HealthOutcomesDomain:      "Health Outcomes",
}

// CohortLabels maps cohorts to display names.
var CohortLabels = map[Cohort]string{
	LGBTQCohort:             "LGBTQ+",
	ElderlyCohort:           "Elderly (60+)",
	DisabledCohort:          "People with Disabilities",
	InformalWorkersCohort:   "Informal Workers",
	GeneralPopulationCohort: "General Population",
}

// ValidCohorts lists all valid cohorts.
var ValidCohorts = map[Cohort]struct{}{
	LGBTQCohort:             {},
	ElderlyCohort:           {},
	DisabledCohort:          {},
	InformalWorkersCohort:   {},
	GeneralPopulationCohort: {},
}

// ValidDomains lists all valid domains.
var ValidDomains = map[Domain]struct{}{
	EconomicSecurityDomain:    {},
	EducationDomain:           {},
	HealthcareAccessDomain:    {},
	PhysicalEnvironmentDomain: {},
	SocialContextDomain:       {},
	HealthBehaviorsDomain:     {},
	HealthOutcomesDomain:      {},
}

// ValidIndicatorTypes lists all valid indicator types.
var ValidIndicatorTypes = map[IndicatorType]struct{}{
	AllIndicators:    {},
	SurveyIndicators: {},
	SupplyIndicators: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// DomainLabel returns the display name of a domain, or the key itself.
func DomainLabel(d Domain) string {
	if label, ok := DomainLabels[d]; ok {
		return label
	}
	return string(d)
}

// CohortLabel returns the display name of a cohort, or the key itself.
func CohortLabel(c Cohort) string {
	if label, ok := CohortLabels[c]; ok {
		return label
	}
	return string(c)
}

// Matches reports whether the rule kind passes the indicator type filter.
func (t IndicatorType) Matches(kind RuleKind) bool {
	switch t {
	case SurveyIndicators:
		return kind == ConditionRule || kind == AggregateRule
	case SupplyIndicators:
		return kind == SupplyRule
	default:
		return true
	}
}
