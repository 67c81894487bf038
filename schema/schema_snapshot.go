package schema

// SupplyRow is one facility or registry row with named counts.
type SupplyRow struct {
	DistrictCode int
	Counts       map[string]float64
}

// FacilityRow is one health facility.
type FacilityRow struct {
	DistrictCode int
	FacilityType string
}

// PopulationRow is one population registry row. A district may have several.
type PopulationRow struct {
	DistrictCode int
	Population   int64
}

// Snapshot is the fully loaded input dataset. It is never mutated after loading.
type Snapshot struct {
	Records                []*SurveyRecord
	HealthSupply           []SupplyRow
	Facilities             []FacilityRow
	DistrictPopulation     []PopulationRow
	CommunityHealthWorkers []SupplyRow
	CommunityPopulation    []PopulationRow
	CityFallback           map[string]float64         // indicator -> score
	DistrictFallback       map[int]map[string]float64 // district code -> indicator -> score
	Digest                 string                     // Content hash of every input file
}
