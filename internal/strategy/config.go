package strategy

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/qqq3x-signal/internal/indicator"
	"github.com/rxtech-lab/qqq3x-signal/internal/version"
	"github.com/rxtech-lab/qqq3x-signal/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds every parameter of the strategy. It is passed by value into
// each component and never mutated after loading.
type Config struct {
	StartDate                   optional.Option[time.Time] `yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=First date of the backtest window"`
	EndDate                     optional.Option[time.Time] `yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Last date of the backtest window"`
	InitialCapital              float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Capital the NAV curve starts from,minimum=0,default=10000" validate:"gt=0"`
	Broker                      commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=Commission model applied on trade days" validate:"oneof=flat_rate zero_commission"`
	Commission                  float64                    `yaml:"commission" json:"commission" jsonschema:"title=Commission,description=Per-side commission rate charged twice on a trade day,minimum=0,default=0.008" validate:"gte=0,lt=1"`
	TargetLeverage              float64                    `yaml:"target_leverage" json:"target_leverage" jsonschema:"title=Target Leverage,description=Daily leverage multiple of the equity sleeve,minimum=0,default=3" validate:"gt=0"`
	ManagementFee               float64                    `yaml:"management_fee" json:"management_fee" jsonschema:"title=Management Fee,description=Annual expense ratio of the leveraged product,minimum=0,default=0.0095" validate:"gte=0,lt=1"`
	TradingDaysPerYear          int                        `yaml:"trading_days_per_year" json:"trading_days_per_year" jsonschema:"title=Trading Days Per Year,minimum=1,default=252" validate:"min=1"`
	SafeRatio                   float64                    `yaml:"safe_ratio" json:"safe_ratio" jsonschema:"title=Safe Ratio,description=Fraction of the portfolio always held in the safe asset,minimum=0,maximum=1,default=0.2" validate:"gte=0,lte=1"`
	ExitOpenAdjustment          float64                    `yaml:"exit_open_adjustment" json:"exit_open_adjustment" jsonschema:"title=Exit Open Adjustment,description=Return added on the day the leveraged sleeve is sold at the open,default=0.0001"`
	HighVolatilityBondThreshold float64                    `yaml:"high_volatility_bond_threshold" json:"high_volatility_bond_threshold" jsonschema:"title=High Volatility Bond Threshold,description=Volatility open above which the safe asset is always the bond,default=30" validate:"gt=0"`
	LiveLookbackYears           int                        `yaml:"live_lookback_years" json:"live_lookback_years" jsonschema:"title=Live Lookback Years,description=Years of history fetched for the daily signal,minimum=1,default=2" validate:"min=1"`
	Windows                     indicator.Windows          `yaml:"windows" json:"windows" jsonschema:"title=Windows,description=Moving-average window lengths"`
	// EngineVersion is the engine release the config was written for. Empty
	// skips the compatibility check.
	EngineVersion string `yaml:"engine_version,omitempty" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Engine release the config was written for"`
}

// DefaultConfig returns the production parameters.
func DefaultConfig() Config {
	return Config{
		StartDate:                   optional.Some(time.Date(2003, 9, 18, 0, 0, 0, 0, time.UTC)),
		EndDate:                     optional.Some(time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)),
		InitialCapital:              10000,
		Broker:                      commission_fee.BrokerFlatRate,
		Commission:                  0.008,
		TargetLeverage:              3,
		ManagementFee:               0.0095,
		TradingDaysPerYear:          252,
		SafeRatio:                   0.2,
		ExitOpenAdjustment:          0.0001,
		HighVolatilityBondThreshold: 30,
		LiveLookbackYears:           2,
		Windows:                     indicator.DefaultWindows(),
	}
}

// TestConfig returns the default parameters over an explicit window.
func TestConfig(startDate time.Time, endDate time.Time, broker commission_fee.Broker) Config {
	config := DefaultConfig()
	config.StartDate = optional.Some(startDate)
	config.EndDate = optional.Some(endDate)
	config.Broker = broker

	return config
}

// LoadConfig reads a yaml file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseConfig(data)
}

// ParseConfig parses yaml content on top of the defaults and validates it.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// yamlConfig is the document form of Config with the optional dates as pointers.
type yamlConfig struct {
	StartDate                   *time.Time            `yaml:"start_date,omitempty"`
	EndDate                     *time.Time            `yaml:"end_date,omitempty"`
	InitialCapital              float64               `yaml:"initial_capital"`
	Broker                      commission_fee.Broker `yaml:"broker"`
	Commission                  float64               `yaml:"commission"`
	TargetLeverage              float64               `yaml:"target_leverage"`
	ManagementFee               float64               `yaml:"management_fee"`
	TradingDaysPerYear          int                   `yaml:"trading_days_per_year"`
	SafeRatio                   float64               `yaml:"safe_ratio"`
	ExitOpenAdjustment          float64               `yaml:"exit_open_adjustment"`
	HighVolatilityBondThreshold float64               `yaml:"high_volatility_bond_threshold"`
	LiveLookbackYears           int                   `yaml:"live_lookback_years"`
	Windows                     indicator.Windows     `yaml:"windows"`
	EngineVersion               string                `yaml:"engine_version,omitempty"`
}

// MarshalYAML implements custom marshaling for Config. Unset dates are omitted.
func (c Config) MarshalYAML() (any, error) {
	config := yamlConfig{
		InitialCapital:              c.InitialCapital,
		Broker:                      c.Broker,
		Commission:                  c.Commission,
		TargetLeverage:              c.TargetLeverage,
		ManagementFee:               c.ManagementFee,
		TradingDaysPerYear:          c.TradingDaysPerYear,
		SafeRatio:                   c.SafeRatio,
		ExitOpenAdjustment:          c.ExitOpenAdjustment,
		HighVolatilityBondThreshold: c.HighVolatilityBondThreshold,
		LiveLookbackYears:           c.LiveLookbackYears,
		Windows:                     c.Windows,
		EngineVersion:               c.EngineVersion,
	}

	if c.StartDate.IsSome() {
		start := c.StartDate.Unwrap()
		config.StartDate = &start
	}

	if c.EndDate.IsSome() {
		end := c.EndDate.Unwrap()
		config.EndDate = &end
	}

	return config, nil
}

// UnmarshalYAML implements custom unmarshaling for Config. Fields absent from
// the document keep the receiver's current values.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	config := yamlConfig{
		InitialCapital:              c.InitialCapital,
		Broker:                      c.Broker,
		Commission:                  c.Commission,
		TargetLeverage:              c.TargetLeverage,
		ManagementFee:               c.ManagementFee,
		TradingDaysPerYear:          c.TradingDaysPerYear,
		SafeRatio:                   c.SafeRatio,
		ExitOpenAdjustment:          c.ExitOpenAdjustment,
		HighVolatilityBondThreshold: c.HighVolatilityBondThreshold,
		LiveLookbackYears:           c.LiveLookbackYears,
		Windows:                     c.Windows,
		EngineVersion:               c.EngineVersion,
	}

	if err := value.Decode(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Broker = config.Broker
	c.Commission = config.Commission
	c.TargetLeverage = config.TargetLeverage
	c.ManagementFee = config.ManagementFee
	c.TradingDaysPerYear = config.TradingDaysPerYear
	c.SafeRatio = config.SafeRatio
	c.ExitOpenAdjustment = config.ExitOpenAdjustment
	c.HighVolatilityBondThreshold = config.HighVolatilityBondThreshold
	c.LiveLookbackYears = config.LiveLookbackYears
	c.Windows = config.Windows
	c.EngineVersion = config.EngineVersion

	if config.StartDate != nil {
		c.StartDate = optional.Some(*config.StartDate)
	}

	if config.EndDate != nil {
		c.EndDate = optional.Some(*config.EndDate)
	}

	return nil
}

// Validate checks field ranges and the date window.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy config", err)
	}

	if c.StartDate.IsSome() && c.EndDate.IsSome() && !c.EndDate.Unwrap().After(c.StartDate.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "end date %s must be after start date %s",
			c.EndDate.Unwrap().Format(time.DateOnly), c.StartDate.Unwrap().Format(time.DateOnly))
	}

	if c.EngineVersion != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), c.EngineVersion); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "config was written for an incompatible engine", err)
		}
	}

	return nil
}

// DailyFee is the management fee charged per trading day.
func (c Config) DailyFee() float64 {
	return c.ManagementFee / float64(c.TradingDaysPerYear)
}

// CommissionFee returns the commission model of the configured broker.
func (c Config) CommissionFee() commission_fee.CommissionFee {
	return commission_fee.GetCommissionFeeHandler(c.Broker, c.Commission)
}

// GenerateSchema generates a JSON schema for Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "qqq3x-strategy-config"
	schema.Description = "Configuration schema for the leveraged equity allocation strategy"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
