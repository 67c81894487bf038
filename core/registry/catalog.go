package registry

import (
	"fmt"
	"strings"

	"github.com/huangsam/healthgap/schema"
)

// Survey codes shared by several rules.
const (
	codeNo  = 0
	codeYes = 1

	sexMale   = 1
	sexFemale = 2

	// BMI cut-off for the Asian population.
	obesityBMI = 25.0
)

// diseaseTypes maps diseases_type_N columns to indicator names and labels.
var diseaseTypes = [...]struct {
	name  string
	label string
}{
	{"diabetes", "Diabetes"},
	{"hypertension", "Hypertension"},
	{"gout", "Gout"},
	{"chronic_kidney_disease", "Chronic Kidney Disease"},
	{"cancer", "Cancer"},
	{"high_cholesterol", "High Cholesterol"},
	{"ischemic_heart_disease", "Ischemic Heart Disease"},
	{"liver_disease", "Liver Disease"},
	{"stroke", "Stroke"},
	{"hiv", "HIV"},
	{"mental_health", "Mental Health Conditions"},
	{"allergies", "Allergies"},
	{"bone_joint_disease", "Bone & Joint Disease"},
	{"respiratory_disease", "Respiratory Disease"},
	{"emphysema", "Emphysema"},
	{"anemia", "Anemia"},
	{"stomach_ulcer", "Stomach Ulcer"},
	{"epilepsy", "Epilepsy"},
	{"intestinal_disease", "Intestinal Disease"},
	{"paralysis", "Paralysis"},
	{"dementia", "Dementia"},
}

// defaultBenchmarks returns the poor/good/excellent thresholds of supply indicators.
func defaultBenchmarks() map[string]schema.Benchmark {
	return map[string]schema.Benchmark{
		"doctor_per_population":                 {Poor: 0.5, Good: 1.0, Excellent: 2.5},
		"nurse_per_population":                  {Poor: 1.0, Good: 2.5, Excellent: 4.0},
		"healthworker_per_population":           {Poor: 20, Good: 44.5, Excellent: 60},
		"community_healthworker_per_population": {Poor: 1, Good: 2, Excellent: 4},
		"bed_per_population":                    {Poor: 10, Good: 25, Excellent: 40},
		"health_service_access":                 {Poor: 1, Good: 2, Excellent: 3.5},
	}
}

// catalog builds a fresh copy of every indicator rule, grouped by domain.
func catalog() []*IndicatorRule {
	var rules []*IndicatorRule
	rules = append(rules, economicSecurity()...)
	rules = append(rules, education()...)
	rules = append(rules, healthcareAccess()...)
	rules = append(rules, physicalEnvironment()...)
	rules = append(rules, socialContext()...)
	rules = append(rules, healthBehaviors()...)
	rules = append(rules, healthOutcomes()...)
	return rules
}

func economicSecurity() []*IndicatorRule {
	d := schema.EconomicSecurityDomain
	return []*IndicatorRule{
		reverse(condition(d, "unemployment_rate", "Unemployment Rate", equals("occupation_status", codeNo))),
		condition(d, "employment_rate", "Employment Rate", equals("occupation_status", codeYes)),
		reverse(condition(d, "vulnerable_employment", "Vulnerable Employment",
			allOf(equals("occupation_status", codeYes), anyOf("occupation_type", 1, 2)))),
		condition(d, "formal_employment", "Formal Employment",
			allOf(equals("occupation_status", codeYes), equals("occupation_contract", codeYes))),
		reverse(condition(d, "food_insecurity_moderate", "Moderate Food Insecurity", equals("food_insecurity_1", codeYes))),
		reverse(condition(d, "food_insecurity_severe", "Severe Food Insecurity", equals("food_insecurity_2", codeYes))),
		reverse(condition(d, "work_injury", "Work-related Injury", equals("occupation_injury", codeYes))),
		reverse(condition(d, "catastrophic_health_spending_household", "Catastrophic Health Spending (>25% income)",
			expenseShareAbove(0.25))),
		reverse(condition(d, "health_spending_over_10_percent", "Health Spending over 10% of Income",
			expenseShareAbove(0.10))),
		aggregate(d, "employment_gender_parity", "Female/Male Employment Parity", nil, employmentParity),
	}
}

func education() []*IndicatorRule {
	d := schema.EducationDomain
	return []*IndicatorRule{
		condition(d, "functional_literacy", "Functional Literacy",
			allOf(equals("speak", codeYes), equals("read", codeYes), equals("write", codeYes))),
		condition(d, "numeracy", "Numeracy", equals("math", codeYes)),
		condition(d, "secondary_education", "Upper Secondary Education or Higher", atLeast("education", 3)),
		condition(d, "higher_education", "Bachelor's Degree or Higher", atLeast("education", 5)),
		condition(d, "training_participation", "Vocational Training Participation", equals("training", codeYes)),
	}
}

func healthcareAccess() []*IndicatorRule {
	d := schema.HealthcareAccessDomain
	return []*IndicatorRule{
		condition(d, "health_coverage", "Health Insurance Coverage",
			either(anyOf("welfare", 1, 2, 3), textEquals("welfare", "other"))),
		reverse(condition(d, "medical_consultation_skip_cost", "Skipped Consultation due to Cost", equals("medical_skip_1", codeYes))),
		reverse(condition(d, "medical_treatment_skip_cost", "Skipped Treatment due to Cost", equals("medical_skip_2", codeYes))),
		reverse(condition(d, "prescribed_medicine_skip_cost", "Skipped Medicine due to Cost", equals("medical_skip_3", codeYes))),
		condition(d, "dental_access", "Dental Care Access", equals("oral_health", codeYes)),
		supply(d, "doctor_per_population", "Doctors per 1,000 Population", DoctorSupply, 1_000),
		supply(d, "nurse_per_population", "Nurses per 1,000 Population", NurseSupply, 1_000),
		supply(d, "healthworker_per_population", "Health Workers per 10,000 Population", HealthWorkerSupply, 10_000),
		supply(d, "community_healthworker_per_population", "Community Health Workers per 1,000 Population", CommunityHealthWorkerSupply, 1_000),
		supply(d, "bed_per_population", "Hospital Beds per 10,000 Population", BedSupply, 10_000),
		supply(d, "health_service_access", "Health Facilities per 10,000 Population", FacilitySupply, 10_000),
	}
}

func physicalEnvironment() []*IndicatorRule {
	d := schema.PhysicalEnvironmentDomain
	return []*IndicatorRule{
		condition(d, "clean_water_access", "Clean Water Access", equals("water_supply", codeYes)),
		condition(d, "waste_water_management", "Waste Water Management", equals("waste_water_disposal", codeYes)),
		condition(d, "garbage_management", "Garbage Management", equals("garbage_disposal", codeYes)),
		condition(d, "home_ownership", "Home Ownership", equals("house_status", codeYes)),
		reverse(condition(d, "overcrowding", "Overcrowded Housing", overcrowded)),
		reverse(condition(d, "pollution_exposure", "Pollution Exposure",
			either(equals("community_environment_1", codeYes), equals("community_environment_2", codeYes)))),
		reverse(condition(d, "disaster_exposure", "Disaster Exposure", equals("community_disaster_1", codeYes))),
	}
}

func socialContext() []*IndicatorRule {
	d := schema.SocialContextDomain
	return []*IndicatorRule{
		condition(d, "community_safety", "Feels Safe in Community", atLeast("community_safety", 3)),
		reverse(condition(d, "violence_physical", "Physical Violence", equals("violence_physical", codeYes))),
		reverse(condition(d, "violence_psychological", "Psychological Violence", equals("violence_psychological", codeYes))),
		reverse(condition(d, "violence_sexual", "Sexual Violence", equals("violence_sexual", codeYes))),
		reverse(condition(d, "discrimination_experience", "Experienced Discrimination", equals("discrimination", codeYes))),
		condition(d, "social_support", "Has Social Support", equals("social_support", codeYes)),
	}
}

func healthBehaviors() []*IndicatorRule {
	d := schema.HealthBehaviorsDomain
	return []*IndicatorRule{
		reverse(condition(d, "alcohol_consumption", "Alcohol Consumption", anyOf("drink_status", 1, 2))),
		minAge(reverse(condition(d, "tobacco_use", "Tobacco Use", anyOf("smoke_status", 2, 3))), 15),
		minAge(reverse(condition(d, "daily_smoking", "Daily Smoking", equals("smoke_status", 3))), 15),
		condition(d, "physical_activity", "Regular Physical Activity", equals("exercise_status", codeYes)),
		reverse(aggregate(d, "obesity", "Obesity (BMI >= 25)", obese, obesityRate)),
	}
}

func healthOutcomes() []*IndicatorRule {
	d := schema.HealthOutcomesDomain
	rules := []*IndicatorRule{
		reverse(condition(d, "any_chronic_disease", "Any Chronic Disease", equals("diseases_status", codeYes))),
	}
	fields := make([]string, len(diseaseTypes))
	for i, disease := range diseaseTypes {
		fields[i] = fmt.Sprintf("diseases_type_%d", i+1)
		rules = append(rules, reverse(condition(d, disease.name, disease.label, equals(fields[i], codeYes))))
	}
	rules = append(rules, reverse(condition(d, "multiple_chronic_conditions", "Multiple Chronic Conditions", countAtLeast(fields, 2))))
	return rules
}

// --- Rule constructors ---

func condition(domain schema.Domain, name, label string, pred Predicate) *IndicatorRule {
	return &IndicatorRule{Domain: domain, Name: name, Label: label, Kind: schema.ConditionRule, Condition: pred}
}

func aggregate(domain schema.Domain, name, label string, pred Predicate, fn AggregateFunc) *IndicatorRule {
	return &IndicatorRule{Domain: domain, Name: name, Label: label, Kind: schema.AggregateRule, Condition: pred, Aggregate: fn}
}

func supply(domain schema.Domain, name, label string, source SupplySource, scale float64) *IndicatorRule {
	return &IndicatorRule{Domain: domain, Name: name, Label: label, Kind: schema.SupplyRule, Supply: &SupplySpec{Source: source, Scale: scale}}
}

func reverse(rule *IndicatorRule) *IndicatorRule {
	rule.Reverse = true
	return rule
}

func minAge(rule *IndicatorRule, age int) *IndicatorRule {
	rule.MinAge = age
	return rule
}

// --- Predicates ---

func equals(field string, code float64) Predicate {
	return func(r *schema.SurveyRecord) bool { return r.Is(field, code) }
}

func anyOf(field string, codes ...float64) Predicate {
	return func(r *schema.SurveyRecord) bool {
		v, ok := r.Number(field)
		if !ok {
			return false
		}
		for _, code := range codes {
			if v == code {
				return true
			}
		}
		return false
	}
}

func atLeast(field string, floor float64) Predicate {
	return func(r *schema.SurveyRecord) bool {
		v, ok := r.Number(field)
		return ok && v >= floor
	}
}

func textEquals(field, want string) Predicate {
	return func(r *schema.SurveyRecord) bool {
		v, ok := r.TextValue(field)
		return ok && strings.EqualFold(strings.TrimSpace(v), want)
	}
}

func allOf(preds ...Predicate) Predicate {
	return func(r *schema.SurveyRecord) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func either(preds ...Predicate) Predicate {
	return func(r *schema.SurveyRecord) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// expenseShareAbove flags households whose health spending exceeds a share of income.
func expenseShareAbove(share float64) Predicate {
	return func(r *schema.SurveyRecord) bool {
		income, ok := r.Number("income")
		if !ok || income <= 0 {
			return false
		}
		expense, ok := r.Number("hh_health_expense")
		return ok && expense > share*income
	}
}

// overcrowded flags more than two household members per room.
func overcrowded(r *schema.SurveyRecord) bool {
	members, ok := r.Number("hh_member")
	if !ok {
		return false
	}
	rooms, ok := r.Number("house_room")
	if !ok || rooms <= 0 {
		return false
	}
	return members/rooms > 2
}

// countAtLeast flags records with at least n of the given fields set to yes.
func countAtLeast(fields []string, n int) Predicate {
	return func(r *schema.SurveyRecord) bool {
		count := 0
		for _, field := range fields {
			if r.Is(field, codeYes) {
				count++
			}
		}
		return count >= n
	}
}

// bmi returns weight (kg) over height (m) squared.
func bmi(r *schema.SurveyRecord) (float64, bool) {
	weight, ok := r.Number("weight")
	if !ok || weight <= 0 {
		return 0, false
	}
	height, ok := r.Number("height")
	if !ok || height <= 0 {
		return 0, false
	}
	meters := height / 100
	return weight / (meters * meters), true
}

func obese(r *schema.SurveyRecord) bool {
	v, ok := bmi(r)
	return ok && v >= obesityBMI
}

// --- Aggregates ---

// obesityRate is the share of obese respondents among those with a measurable BMI.
func obesityRate(records []*schema.SurveyRecord) (float64, bool) {
	measured, matches := 0, 0
	for _, r := range records {
		v, ok := bmi(r)
		if !ok {
			continue
		}
		measured++
		if v >= obesityBMI {
			matches++
		}
	}
	if measured == 0 {
		return 0, false
	}
	return 100 * float64(matches) / float64(measured), true
}

// employmentParity is the female employment rate as a percentage of the male
// rate, capped at 100.
func employmentParity(records []*schema.SurveyRecord) (float64, bool) {
	var female, femaleEmployed, male, maleEmployed int
	for _, r := range records {
		employed := r.Is("occupation_status", codeYes)
		switch {
		case r.Is("sex", sexFemale):
			female++
			if employed {
				femaleEmployed++
			}
		case r.Is("sex", sexMale):
			male++
			if employed {
				maleEmployed++
			}
		}
	}
	if female == 0 || male == 0 || maleEmployed == 0 {
		return 0, false
	}
	femaleRate := float64(femaleEmployed) / float64(female)
	maleRate := float64(maleEmployed) / float64(male)
	return min(100, 100*femaleRate/maleRate), true
}
