// Package config holds every tunable parameter of a simulation run.
// A Config is assembled once at startup (defaults plus an optional YAML
// overlay) and never mutated afterward.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// Config is the full parameter bundle. Need levels, trait values and skill
// levels all live on a 0-100 scale; relationship trust and affinity live on
// [-1, 1]. Decay rates are points per day.
type Config struct {
	Time       Time       `yaml:"time"`
	Population Population `yaml:"population"`
	Traits     Traits     `yaml:"traits"`
	Needs      Needs      `yaml:"needs"`
	Sentiment  Sentiment  `yaml:"sentiment"`
	Inventory  Inventory  `yaml:"inventory"`
	Regen      Regen      `yaml:"regen"`
	Social     Social     `yaml:"social"`
	Skills     Skills     `yaml:"skills"`
	Decision   Decision   `yaml:"decision"`
	Crops      Crops      `yaml:"crops"`
	Shelter    Shelter    `yaml:"shelter"`
	Events     Events     `yaml:"events"`
	Water      Water      `yaml:"water"`
	Trade      Trade      `yaml:"trade"`
	World      World      `yaml:"world"`
}

type Time struct {
	DaysPerSeason int `yaml:"days_per_season"`
	// Daylight hours per season, spring through winter.
	DaylightHours [4]float64 `yaml:"daylight_hours"`
}

type Population struct {
	Initial            int     `yaml:"initial"`
	WakingHours        float64 `yaml:"waking_hours"`
	MaxAgeYears        int     `yaml:"max_age_years"`
	MaturityAgeYears   int     `yaml:"maturity_age_years"`
	ElderAgeYears      int     `yaml:"elder_age_years"`
	FertilityMinYears  int     `yaml:"fertility_min_years"`
	FertilityMaxYears  int     `yaml:"fertility_max_years"`
	PregnancyDays      int     `yaml:"pregnancy_days"`
	BirthRecoveryDays  int     `yaml:"birth_recovery_days"`
	StartingFoodDays   float64 `yaml:"starting_food_days"`
	StartingTools      bool    `yaml:"starting_tools"`
	StartingShelters   bool    `yaml:"starting_shelters"`
	DailyFoodNeed      float64 `yaml:"daily_food_need"`
	ConceptionBaseRate float64 `yaml:"conception_base_rate"`
}

// Correlation couples two traits during generation.
type Correlation struct {
	A   string  `yaml:"a"`
	B   string  `yaml:"b"`
	Rho float64 `yaml:"rho"`
}

type Traits struct {
	Mean         float64       `yaml:"mean"`
	StdDev       float64       `yaml:"std_dev"`
	InheritNoise float64       `yaml:"inherit_noise"`
	Correlations []Correlation `yaml:"correlations"`
}

type Needs struct {
	// Decay in points per day, keyed by need name.
	Decay             map[string]float64 `yaml:"decay"`
	Weights           map[string]float64 `yaml:"weights"`
	SurvivalCritical  float64            `yaml:"survival_critical"`
	TerminalThreshold float64            `yaml:"terminal_threshold"`
}

type Sentiment struct {
	ContagionRate float64 `yaml:"contagion_rate"`
	BaselinePull  float64 `yaml:"baseline_pull"`
}

type Inventory struct {
	CarryCapacityKg  float64 `yaml:"carry_capacity_kg"`
	FamilyCapacityKg float64 `yaml:"family_capacity_kg"`
	ToolWearPerUse   float64 `yaml:"tool_wear_per_use"`
}

type Regen struct {
	Forest     float64 `yaml:"forest"`
	Fish       float64 `yaml:"fish"`
	WildPlants float64 `yaml:"wild_plants"`
	Herbs      float64 `yaml:"herbs"`
	Game       float64 `yaml:"game"`
}

type Social struct {
	RelationshipDecay   float64 `yaml:"relationship_decay"`
	TrustGainPositive   float64 `yaml:"trust_gain_positive"`
	TrustLossNegative   float64 `yaml:"trust_loss_negative"`
	MarriageMinAffinity float64 `yaml:"marriage_min_affinity"`
	MaxDailyContacts    int     `yaml:"max_daily_contacts"`
	MinDailyContacts    int     `yaml:"min_daily_contacts"`
	WorkPartyMaxSize    int     `yaml:"work_party_max_size"`
}

type Skills struct {
	LearningRate      float64 `yaml:"learning_rate"`
	IntelligenceBonus float64 `yaml:"intelligence_bonus"`
}

type Decision struct {
	SatisficeThreshold float64 `yaml:"satisfice_threshold"`
	HabitInertia       float64 `yaml:"habit_inertia"`
	FatigueStop        float64 `yaml:"fatigue_stop"`
	NoiseScale         float64 `yaml:"noise_scale"`
}

type Crops struct {
	GrowthDays     int     `yaml:"growth_days"`
	FrostThreshold float64 `yaml:"frost_threshold"`
	DroughtDays    int     `yaml:"drought_days"`
}

type Shelter struct {
	CapacityBase     int     `yaml:"capacity_base"`
	DailyDegradation float64 `yaml:"daily_degradation"`
	StormMultiplier  float64 `yaml:"storm_multiplier"`
}

type Events struct {
	StormProbability    float64 `yaml:"storm_probability"`
	DiseaseProbability  float64 `yaml:"disease_probability"`
	PredatorProbability float64 `yaml:"predator_probability"`
}

type Water struct {
	ProximityRadius int     `yaml:"proximity_radius"`
	AutoSatisfy     float64 `yaml:"auto_satisfy"`
}

type Trade struct {
	MaxRounds          int     `yaml:"max_rounds"`
	SurplusDays        float64 `yaml:"surplus_days"`
	DeficitDays        float64 `yaml:"deficit_days"`
	WillingnessBase    float64 `yaml:"willingness_base"`
	TrustWeight        float64 `yaml:"trust_weight"`
	PersonalityMargin  float64 `yaml:"personality_margin"`
	HungryFoodMult     float64 `yaml:"hungry_food_mult"`
	DiminishingSurplus float64 `yaml:"diminishing_surplus"`
	AcceptanceFloor    float64 `yaml:"acceptance_floor"`
}

type World struct {
	Width              int `yaml:"width"`
	Height             int `yaml:"height"`
	SocialRadius       int `yaml:"social_radius"`
	ResourceNodeTarget int `yaml:"resource_node_target"`
}

// Default returns the built-in parameter set.
func Default() *Config {
	return &Config{
		Time: Time{
			DaysPerSeason: 90,
			DaylightHours: [4]float64{13, 16, 12, 10},
		},
		Population: Population{
			Initial:            150,
			WakingHours:        15,
			MaxAgeYears:        75,
			MaturityAgeYears:   14,
			ElderAgeYears:      55,
			FertilityMinYears:  16,
			FertilityMaxYears:  45,
			PregnancyDays:      270,
			BirthRecoveryDays:  30,
			StartingFoodDays:   45,
			StartingTools:      true,
			StartingShelters:   true,
			DailyFoodNeed:      1.5,
			ConceptionBaseRate: 0.01,
		},
		Traits: Traits{
			Mean:         50,
			StdDev:       15,
			InheritNoise: 7.5,
			Correlations: []Correlation{
				{A: "patience", B: "conscientiousness", Rho: 0.3},
				{A: "risk_tolerance", B: "patience", Rho: -0.2},
				{A: "empathy", B: "sociability", Rho: 0.3},
			},
		},
		Needs: Needs{
			Decay: map[string]float64{
				"hunger":  35,
				"thirst":  50,
				"rest":    30,
				"warmth":  10,
				"shelter": 5,
				"safety":  2,
				"social":  5,
				"purpose": 1,
				"comfort": 3,
			},
			Weights: map[string]float64{
				"hunger":  10,
				"thirst":  12,
				"rest":    8,
				"warmth":  7,
				"shelter": 5,
				"safety":  6,
				"health":  9,
				"social":  3,
				"purpose": 2,
				"comfort": 1,
			},
			SurvivalCritical:  15,
			TerminalThreshold: 0.5,
		},
		Sentiment: Sentiment{
			ContagionRate: 0.1,
			BaselinePull:  0.02,
		},
		Inventory: Inventory{
			CarryCapacityKg:  30,
			FamilyCapacityKg: 200,
			ToolWearPerUse:   0.5,
		},
		Regen: Regen{
			Forest:     0.02,
			Fish:       0.08,
			WildPlants: 0.08,
			Herbs:      0.01,
			Game:       0.04,
		},
		Social: Social{
			RelationshipDecay:   0.001,
			TrustGainPositive:   0.05,
			TrustLossNegative:   0.10,
			MarriageMinAffinity: 0.6,
			MaxDailyContacts:    5,
			MinDailyContacts:    1,
			WorkPartyMaxSize:    5,
		},
		Skills: Skills{
			LearningRate:      50,
			IntelligenceBonus: 0.5,
		},
		Decision: Decision{
			SatisficeThreshold: 0.6,
			HabitInertia:       0.05,
			FatigueStop:        0.9,
			NoiseScale:         0.03,
		},
		Crops: Crops{
			GrowthDays:     90,
			FrostThreshold: -5,
			DroughtDays:    20,
		},
		Shelter: Shelter{
			CapacityBase:     6,
			DailyDegradation: 0.001,
			StormMultiplier:  5,
		},
		Events: Events{
			StormProbability:    0.03,
			DiseaseProbability:  0.005,
			PredatorProbability: 0.02,
		},
		Water: Water{
			ProximityRadius: 2,
			AutoSatisfy:     40,
		},
		Trade: Trade{
			MaxRounds:          3,
			SurplusDays:        5,
			DeficitDays:        3,
			WillingnessBase:    0.5,
			TrustWeight:        0.3,
			PersonalityMargin:  0.15,
			HungryFoodMult:     3,
			DiminishingSurplus: 0.5,
			AcceptanceFloor:    0.5,
		},
		World: World{
			Width:              60,
			Height:             60,
			SocialRadius:       10,
			ResourceNodeTarget: 120,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. The merged
// document is validated against the embedded schema before use.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config against the embedded JSON schema plus the
// cross-field rules the schema cannot express.
func (c *Config) Validate() error {
	schema, err := jsonschema.CompileString("config.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	// Round-trip through YAML so the schema sees plain maps and scalars.
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("remarshal config: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	if c.Population.FertilityMinYears >= c.Population.FertilityMaxYears {
		return fmt.Errorf("config: fertility_min_years %d must be below fertility_max_years %d",
			c.Population.FertilityMinYears, c.Population.FertilityMaxYears)
	}
	if c.Decision.SatisficeThreshold <= 0 {
		return fmt.Errorf("config: satisfice_threshold must be positive")
	}
	for _, corr := range c.Traits.Correlations {
		if corr.Rho < -1 || corr.Rho > 1 {
			return fmt.Errorf("config: correlation %s/%s rho %v out of [-1,1]", corr.A, corr.B, corr.Rho)
		}
	}
	return nil
}
