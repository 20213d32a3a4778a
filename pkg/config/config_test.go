package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GUILD_NAME", "Tempest")
	t.Setenv("GUILD_SERVER", "Arcanite Reaper")
	t.Setenv("WCL_CLIENT_ID", "id")
	t.Setenv("WCL_CLIENT_SECRET", "secret")
	t.Setenv("ADMIN_TOKEN", "token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.Addr)
	assert.Equal(t, "US", cfg.GuildRegion)
	assert.Equal(t, 6, cfg.WindowWeeks)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	require.NotNil(t, cfg.Location)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Thursday}, cfg.RaidWeekdays)
	assert.Len(t, cfg.AllowedTypes, 10)
	assert.Empty(t, cfg.DenyNames)
	assert.Equal(t, "0 */30 * * * *", cfg.CronSpec)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoad_MissingGuildFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GUILD_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUILD_NAME")
}

func TestLoad_MissingCredentialsFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WCL_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WCL_CLIENT_ID")
}

func TestLoad_MissingAdminTokenFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_TOKEN")
}

func TestLoad_BadTimezoneFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RAID_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
}

func TestLoad_BadWindowFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WINDOW_WEEKS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WINDOW_WEEKS")
}

func TestLoad_FilterListsDeduped(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MEMBER_TYPES", "Warrior,Priest,Warrior")
	t.Setenv("DENY_NAMES", "Pet, Pet ,Totem")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Warrior", "Priest"}, cfg.AllowedTypes)
	assert.Equal(t, []string{"Pet", "Totem"}, cfg.DenyNames)
}

func TestLoad_CustomRaidDays(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RAID_DAYS", " friday , Saturday ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, cfg.RaidWeekdays)
}

func TestLoad_UnknownWeekdayFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RAID_DAYS", "Tuesday,Someday")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Someday")
}

func TestParseWeekdays(t *testing.T) {
	days, err := parseWeekdays("monday,WEDNESDAY,Sunday")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Sunday}, days)

	// Empty segments are skipped, not errors.
	days, err = parseWeekdays("tuesday,,thursday,")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Thursday}, days)
}

func TestWindow(t *testing.T) {
	cfg := &Config{WindowWeeks: 6}
	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	start, end := cfg.Window(now)
	assert.Equal(t, now, end)
	assert.Equal(t, now.AddDate(0, 0, -42), start)
}
