// Package config provides Viper-based configuration loading for the skirmish engine.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/korodan/internal/game/combat"
	"github.com/cory-johannsen/korodan/internal/game/turn"
)

// DatabaseConfig holds PostgreSQL connection settings for the match history store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// HistoryConfig toggles the match history recorder.
type HistoryConfig struct {
	// Enabled turns on persistence of finished matches to the database.
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds the rules knobs of a match.
type GameConfig struct {
	// Mode selects the turn policy: "pairs", "team_order" or "free_double".
	Mode string `mapstructure:"mode"`
	// SecondPlay selects how free_double treats a second play the character cannot afford.
	SecondPlay string `mapstructure:"second_play"`
	// BuffExpiry selects when self-effects are reverted: "turn", "round" or "match".
	BuffExpiry string `mapstructure:"buff_expiry"`
	// EffectOffset is added to attack minus defense to obtain the effect score.
	EffectOffset int `mapstructure:"effect_offset"`
	// EffectScript is an optional Lua file defining effect_score(attack, defense).
	EffectScript string `mapstructure:"effect_script"`
	// ScriptInstructionLimit bounds each effect_score call; 0 uses the scripting default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
	// MoveCost is the action point cost of one step of movement.
	MoveCost int `mapstructure:"move_cost"`
	// WallMap names the wall map used for the board.
	WallMap string `mapstructure:"wall_map"`
	// ContentDir overrides the embedded content when non-empty.
	ContentDir string `mapstructure:"content_dir"`
	// Seed fixes the tie-break random source; 0 uses crypto/rand.
	Seed int64 `mapstructure:"seed"`
}

// AssetsConfig holds the folders host collaborators load images and sounds from.
type AssetsConfig struct {
	AssetsFolder    string `mapstructure:"assets_folder"`
	PortraitsFolder string `mapstructure:"portraits_folder"`
	AbilitiesFolder string `mapstructure:"abilities_folder"`
	SoundsFolder    string `mapstructure:"sounds_folder"`
}

// Asset joins name onto the general assets folder.
func (a AssetsConfig) Asset(name string) string { return filepath.Join(a.AssetsFolder, name) }

// Portrait joins name onto the portraits folder.
func (a AssetsConfig) Portrait(name string) string { return filepath.Join(a.PortraitsFolder, name) }

// AbilityImage joins name onto the abilities folder.
func (a AssetsConfig) AbilityImage(name string) string {
	return filepath.Join(a.AbilitiesFolder, name)
}

// Sound joins name onto the sounds folder.
func (a AssetsConfig) Sound(name string) string { return filepath.Join(a.SoundsFolder, name) }

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Database DatabaseConfig `mapstructure:"database"`
	History  HistoryConfig  `mapstructure:"history"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAssets(c.Assets); err != nil {
		errs = append(errs, err.Error())
	}
	// The database is only dialled when history is on.
	if c.History.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if _, err := turn.ParseMode(g.Mode); err != nil {
		errs = append(errs, fmt.Sprintf("game.mode must be one of [pairs, team_order, free_double], got %q", g.Mode))
	}
	if !turn.SecondPlay(g.SecondPlay).Valid() {
		errs = append(errs, fmt.Sprintf("game.second_play must be one of [reject, skip], got %q", g.SecondPlay))
	}
	if !combat.Expiry(g.BuffExpiry).Valid() {
		errs = append(errs, fmt.Sprintf("game.buff_expiry must be one of [turn, round, match], got %q", g.BuffExpiry))
	}
	if g.MoveCost < 1 {
		errs = append(errs, fmt.Sprintf("game.move_cost must be >= 1, got %d", g.MoveCost))
	}
	if g.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("game.script_instruction_limit must be >= 0, got %d", g.ScriptInstructionLimit))
	}
	if g.WallMap == "" {
		errs = append(errs, "game.wall_map must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAssets(a AssetsConfig) error {
	var errs []string
	if a.AssetsFolder == "" {
		errs = append(errs, "assets.assets_folder must not be empty")
	}
	if a.PortraitsFolder == "" {
		errs = append(errs, "assets.portraits_folder must not be empty")
	}
	if a.AbilitiesFolder == "" {
		errs = append(errs, "assets.abilities_folder must not be empty")
	}
	if a.SoundsFolder == "" {
		errs = append(errs, "assets.sounds_folder must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with KORODAN_ prefix
	v.SetEnvPrefix("KORODAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// Default returns the configuration obtained from defaults alone.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("config: defaults are invalid: %v", err))
	}
	return cfg
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.mode", string(turn.ModePairs))
	v.SetDefault("game.second_play", string(turn.SecondPlayReject))
	v.SetDefault("game.buff_expiry", string(combat.ExpireRound))
	v.SetDefault("game.effect_offset", 50)
	v.SetDefault("game.effect_script", "")
	v.SetDefault("game.script_instruction_limit", 0)
	v.SetDefault("game.move_cost", 1)
	v.SetDefault("game.wall_map", "city")
	v.SetDefault("game.content_dir", "")
	v.SetDefault("game.seed", 0)

	v.SetDefault("assets.assets_folder", "./activos/")
	v.SetDefault("assets.portraits_folder", "./retratos/")
	v.SetDefault("assets.abilities_folder", "./habilidades/")
	v.SetDefault("assets.sounds_folder", "./sonidos/")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "korodan")
	v.SetDefault("database.password", "korodan")
	v.SetDefault("database.name", "korodan")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("history.enabled", false)
}
