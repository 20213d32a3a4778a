// Package config carries the explicit configuration record threaded into the
// roll-up pipeline and its collaborators. Values come from the environment
// once, at startup; nothing below this package reads env directly.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/naptholomew/tempest-attendance/pkg/utils"
)

// Config is the full configuration for one tracker instance.
type Config struct {
	// HTTP
	Addr string

	// Guild identity on the log service.
	Guild       string
	GuildServer string
	GuildRegion string

	// Roll-up window and calendar.
	WindowWeeks  int
	Timezone     string
	Location     *time.Location
	RaidWeekdays []time.Weekday

	// Presence filtering.
	AllowedTypes []string
	DenyNames    []string

	// Upstream log service.
	APIBase      string
	TokenURL     string
	ClientID     string
	ClientSecret string

	// Scheduled refresh.
	CronSpec string

	// Admin auth.
	AdminToken    string
	SessionSecret string

	RedisEnabled bool
}

// Load builds a Config from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:          utils.Env("ADDR", ":3001"),
		Guild:         utils.Env("GUILD_NAME", ""),
		GuildServer:   utils.Env("GUILD_SERVER", ""),
		GuildRegion:   utils.Env("GUILD_REGION", "US"),
		WindowWeeks:   utils.EnvInt("WINDOW_WEEKS", 6),
		Timezone:      utils.Env("RAID_TIMEZONE", "America/New_York"),
		AllowedTypes:  utils.Dedup(utils.EnvList("MEMBER_TYPES", []string{"DeathKnight", "Druid", "Hunter", "Mage", "Paladin", "Priest", "Rogue", "Shaman", "Warlock", "Warrior"})),
		DenyNames:     utils.Dedup(utils.EnvList("DENY_NAMES", nil)),
		APIBase:       utils.Env("WCL_API_BASE", "https://www.warcraftlogs.com/v1"),
		TokenURL:      utils.Env("WCL_TOKEN_URL", "https://www.warcraftlogs.com/oauth/token"),
		ClientID:      utils.Env("WCL_CLIENT_ID", ""),
		ClientSecret:  utils.Env("WCL_CLIENT_SECRET", ""),
		CronSpec:      utils.Env("REFRESH_CRON", "0 */30 * * * *"),
		AdminToken:    utils.Env("ADMIN_TOKEN", ""),
		SessionSecret: utils.Env("SESSION_SECRET", "change-me-please"),
		RedisEnabled:  utils.EnvBool("REDIS_ENABLED", false),
	}

	days, err := parseWeekdays(utils.Env("RAID_DAYS", "Tuesday,Thursday"))
	if err != nil {
		return nil, err
	}
	cfg.RaidWeekdays = days

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on anything that would otherwise surface mid-run,
// before the first upstream call is issued.
func (c *Config) Validate() error {
	if c.Guild == "" || c.GuildServer == "" {
		return fmt.Errorf("GUILD_NAME and GUILD_SERVER are required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("WCL_CLIENT_ID and WCL_CLIENT_SECRET are required")
	}
	if c.WindowWeeks <= 0 {
		return fmt.Errorf("WINDOW_WEEKS must be positive")
	}
	if c.Location == nil {
		return fmt.Errorf("timezone not loaded")
	}
	if len(c.RaidWeekdays) == 0 {
		return fmt.Errorf("at least one raid weekday is required")
	}
	if c.AdminToken == "" {
		return fmt.Errorf("ADMIN_TOKEN is required")
	}
	return nil
}

// Window returns the trailing roll-up window ending at now.
func (c *Config) Window(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Duration(c.WindowWeeks) * 7 * 24 * time.Hour), now
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		d, ok := names[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}
