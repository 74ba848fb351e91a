package scenario

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario names accepted in Config.Scenario.
const (
	PingPong      = "pingpong"
	ProdCons      = "prodcons"
	TokenRing     = "tokenring"
	Dispatch      = "dispatch"
	ModeActivate  = "activate"
	ModeSemaphore = "semaphore"
)

// ValidScenarios is the set of recognized scenario names.
var ValidScenarios = map[string]bool{PingPong: true, ProdCons: true, TokenRing: true, Dispatch: true}

// ValidProdConsModes is the set of recognized producer/consumer hand-off modes.
var ValidProdConsModes = map[string]bool{"": true, ModeActivate: true, ModeSemaphore: true}

// Range is a uniform distribution over [Min, Max]. Min == Max is a constant.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Draw samples the range.
func (r Range) Draw(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Mean returns the expected value of a draw.
func (r Range) Mean() float64 {
	return (r.Min + r.Max) / 2
}

func (r Range) validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s: invalid range [%v, %v]", name, r.Min, r.Max)
	}
	return nil
}

// Config is the YAML scenario file. Only the section of the selected
// scenario is used; the others keep their defaults.
// All sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Scenario  string          `yaml:"scenario"`
	Seed      int64           `yaml:"seed"`
	Horizon   float64         `yaml:"horizon"`   // stop time; 0 runs until every process is parked or done
	Tolerance float64         `yaml:"tolerance"` // 0 uses sim.DefaultTolerance
	PingPong  PingPongConfig  `yaml:"pingpong"`
	ProdCons  ProdConsConfig  `yaml:"prodcons"`
	TokenRing TokenRingConfig `yaml:"tokenring"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
}

// PingPongConfig configures players passing a lock back and forth.
type PingPongConfig struct {
	Players int   `yaml:"players"`
	Hold    Range `yaml:"hold"`
}

// ProdConsConfig configures producers feeding a single consumer.
type ProdConsConfig struct {
	Mode      string `yaml:"mode"`
	Producers int    `yaml:"producers"`
	Tasks     int    `yaml:"tasks"` // per producer
	Interval  Range  `yaml:"interval"`
	Service   Range  `yaml:"service"`
}

// TokenRingConfig configures a token passed around a ring of players.
type TokenRingConfig struct {
	Players int   `yaml:"players"`
	Rounds  int   `yaml:"rounds"`
	Pass    Range `yaml:"pass"`
}

// DispatchConfig configures an external driver feeding loads to workers.
type DispatchConfig struct {
	Workers      int   `yaml:"workers"`
	Loads        int   `yaml:"loads"`
	Interarrival Range `yaml:"interarrival"`
	Work         Range `yaml:"work"`
}

// DefaultConfig returns the parameters of the reference workloads. The
// default scenario runs to quiescence, so it needs no horizon.
func DefaultConfig() *Config {
	return &Config{
		Scenario: ProdCons,
		Seed:     42,
		PingPong: PingPongConfig{Players: 2, Hold: Range{Min: 5, Max: 10}},
		ProdCons: ProdConsConfig{
			Mode:      ModeActivate,
			Producers: 2,
			Tasks:     5,
			Interval:  Range{Min: 50, Max: 100},
			Service:   Range{Min: 50, Max: 100},
		},
		TokenRing: TokenRingConfig{Players: 5, Rounds: 10, Pass: Range{Min: 5, Max: 10}},
		Dispatch: DispatchConfig{
			Workers:      10,
			Loads:        50,
			Interarrival: Range{Min: 5, Max: 20},
			Work:         Range{Min: 80, Max: 120},
		},
	}
}

// LoadConfig reads a YAML scenario file over the defaults.
// Uses strict field checking: typos must cause errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML scenario data over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario config: %w", err)
	}
	return cfg, nil
}

// Validate checks the scenario name and the parameter ranges of its section.
func (c *Config) Validate() error {
	if !ValidScenarios[c.Scenario] {
		return fmt.Errorf("unknown scenario %q", c.Scenario)
	}
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must be >= 0, got %v", c.Horizon)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %v", c.Tolerance)
	}

	switch c.Scenario {
	case PingPong:
		if c.Horizon == 0 {
			return fmt.Errorf("pingpong never quiesces; horizon must be > 0")
		}
		if c.PingPong.Players < 1 {
			return fmt.Errorf("pingpong.players must be >= 1, got %d", c.PingPong.Players)
		}
		return c.PingPong.Hold.validate("pingpong.hold")
	case ProdCons:
		p := c.ProdCons
		if !ValidProdConsModes[p.Mode] {
			return fmt.Errorf("unknown prodcons mode %q", p.Mode)
		}
		if p.Producers < 1 || p.Tasks < 0 {
			return fmt.Errorf("prodcons needs producers >= 1 and tasks >= 0, got %d and %d", p.Producers, p.Tasks)
		}
		if err := p.Interval.validate("prodcons.interval"); err != nil {
			return err
		}
		return p.Service.validate("prodcons.service")
	case TokenRing:
		if c.TokenRing.Players < 1 || c.TokenRing.Rounds < 0 {
			return fmt.Errorf("tokenring needs players >= 1 and rounds >= 0, got %d and %d",
				c.TokenRing.Players, c.TokenRing.Rounds)
		}
		return c.TokenRing.Pass.validate("tokenring.pass")
	case Dispatch:
		d := c.Dispatch
		if d.Workers < 1 || d.Loads < 0 {
			return fmt.Errorf("dispatch needs workers >= 1 and loads >= 0, got %d and %d", d.Workers, d.Loads)
		}
		if err := d.Interarrival.validate("dispatch.interarrival"); err != nil {
			return err
		}
		return d.Work.validate("dispatch.work")
	}
	return nil
}
