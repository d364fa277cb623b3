package models

import "time"

// AnnouncementConfig represents the "announcement" section of config.yaml / config/announcement.json.
type AnnouncementConfig struct {
	ChannelID          string        `json:"channel_id" mapstructure:"channel_id"`             // monitored channel
	EveryoneRoleID     string        `json:"everyone_role_id" mapstructure:"everyone_role_id"` // "みんなの告知" role
	StaffRoleID        string        `json:"staff_role_id" mapstructure:"staff_role_id"`
	StructureThreshold int           `json:"structure_threshold" mapstructure:"structure_threshold"`
	ContentThreshold   int           `json:"content_threshold" mapstructure:"content_threshold"`
	Window             time.Duration `json:"window" mapstructure:"window"`
	DispatchDelay      time.Duration `json:"dispatch_delay" mapstructure:"dispatch_delay"`
	EvictSchedule      string        `json:"evict_schedule" mapstructure:"evict_schedule"`
	DBPath             string        `json:"db_path" mapstructure:"db_path"`
	RetentionDays      int           `json:"retention_days" mapstructure:"retention_days"`
	Tracker            TrackerConfig `json:"tracker" mapstructure:"tracker"`
	Keywords           KeywordConfig `json:"keywords" mapstructure:"keywords"`
}

// TrackerConfig selects the recent-activity store.
type TrackerConfig struct {
	Store     string `json:"store" mapstructure:"store"` // memory/redis
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr"`
	RedisDB   int    `json:"redis_db" mapstructure:"redis_db"`
	KeyPrefix string `json:"key_prefix" mapstructure:"key_prefix"`
}

// KeywordConfig overrides the built-in keyword tables. Empty lists keep the defaults.
type KeywordConfig struct {
	Action        []string `json:"action" mapstructure:"action"`
	Announcement  []string `json:"announcement" mapstructure:"announcement"`
	Greeting      []string `json:"greeting" mapstructure:"greeting"`
	Org           []string `json:"org" mapstructure:"org"`
	HighPriority  []string `json:"high_priority" mapstructure:"high_priority"`
	ImportantOrgs []string `json:"important_orgs" mapstructure:"important_orgs"`
}

// CommandsConfig represents the "commands" section used for slash command permissions.
type CommandsConfig struct {
	Auth AuthConfig `json:"auth" mapstructure:"auth"`
}

// AuthConfig lists who may run privileged commands.
type AuthConfig struct {
	Developers  []string `json:"developers" mapstructure:"developers"`
	AdminsRoles []string `json:"admins_roles" mapstructure:"admins_roles"`
	Guest       []string `json:"guest" mapstructure:"guest"`
}
