package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tenchan000517/zeroone-support-sub001/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig 从多个源加载配置：.env 文件、config.yaml、以及 ./config/announcement.json。
// 配置加载顺序:
// 1. .env 文件 (用于环境变量)
// 2. config.yaml (基础配置)
// 3. config/announcement.json (合并到主配置)
// 环境变量会覆盖配置文件中的同名设置。
func LoadConfig() {
	// 1. 从 .env 文件加载环境变量，如果文件不存在则忽略。
	if err := godotenv.Load(); err != nil {
		log.Printf("未找到 .env 文件，将跳过加载。")
	}

	loadFrom(".")
}

// loadFrom reads config.yaml from dir and merges dir/config/announcement.json into it.
func loadFrom(dir string) {
	// 2. 设置并读取基础配置文件 (config.yaml)。
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)
	viper.AutomaticEnv()                                   // 自动读取匹配的环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将配置键中的'.'替换为'_'以匹配环境变量

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("未找到基础配置文件 (config.yaml)，将仅使用环境变量和后续合并的配置。")
		} else {
			panic(fmt.Errorf("解析基础配置文件时发生致命错误: %w", err))
		}
	}

	// 3. 合并告知检测配置文件 (config/announcement.json)。
	viper.SetConfigName("announcement")
	viper.SetConfigType("json")
	viper.AddConfigPath(dir + "/config")

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("未找到告知检测配置文件 (config/announcement.json)，将跳过合并。")
		} else {
			panic(fmt.Errorf("合并告知检测配置文件时发生致命错误: %w", err))
		}
	}
}

func setDefaults() {
	// Empty defaults make these keys known to viper so AutomaticEnv can override them.
	viper.SetDefault("announcement.channel_id", "")
	viper.SetDefault("announcement.everyone_role_id", "")
	viper.SetDefault("announcement.staff_role_id", "")
	viper.SetDefault("announcement.tracker.redis_addr", "")
	viper.SetDefault("announcement.structure_threshold", 2)
	viper.SetDefault("announcement.content_threshold", 2)
	viper.SetDefault("announcement.window", time.Hour)
	viper.SetDefault("announcement.dispatch_delay", 2*time.Second)
	viper.SetDefault("announcement.evict_schedule", "@every 15m")
	viper.SetDefault("announcement.db_path", "data/announcements.db")
	viper.SetDefault("announcement.retention_days", 90)
	viper.SetDefault("announcement.tracker.store", "memory")
	viper.SetDefault("announcement.tracker.key_prefix", "announcement:recent:")
}

type announcementFile struct {
	Announcement models.AnnouncementConfig `mapstructure:"announcement"`
}

// LoadAnnouncementConfig unmarshals the "announcement" section, filling in defaults.
func LoadAnnouncementConfig() (models.AnnouncementConfig, error) {
	setDefaults()

	// Unmarshal goes through AllSettings so nested defaults and env overrides are merged.
	var file announcementFile
	if err := viper.Unmarshal(&file); err != nil {
		return models.AnnouncementConfig{}, fmt.Errorf("failed to unmarshal announcement config: %w", err)
	}
	cfg := file.Announcement
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg models.AnnouncementConfig) error {
	if cfg.ChannelID == "" {
		return errors.New("announcement.channel_id is not set")
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("announcement.window must be positive, got %s", cfg.Window)
	}
	if cfg.DispatchDelay < 0 {
		return fmt.Errorf("announcement.dispatch_delay must not be negative, got %s", cfg.DispatchDelay)
	}
	switch cfg.Tracker.Store {
	case "memory":
	case "redis":
		if cfg.Tracker.RedisAddr == "" {
			return errors.New("announcement.tracker.redis_addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown tracker store %q", cfg.Tracker.Store)
	}
	return nil
}
