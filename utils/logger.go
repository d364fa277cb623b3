package utils

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// embedSender is the part of *discordgo.Session used for admin channel logs.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var (
	mu        sync.RWMutex
	logger    = zap.NewNop()
	session   embedSender
	channelID string
)

// InitLogger builds the process logger and binds the admin log channel.
// debug selects zap's development config.
func InitLogger(s embedSender, debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	SetLogger(l)

	mu.Lock()
	session = s
	channelID = viper.GetString("bot.adminChannelId")
	mu.Unlock()

	if channelID == "" {
		l.Warn("bot.adminChannelId is not set in config.yaml. Logging to channel will be disabled.")
	}
	return nil
}

// SetLogger replaces the process logger.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Logger returns the process logger. It is a no-op logger until InitLogger runs.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Log writes to the process logger and sends an embed to the admin channel.
func Log(level, module, operation, details string) {
	l := Logger().With(zap.String("module", module), zap.String("operation", operation))
	switch level {
	case "WARN":
		l.Warn(details)
	case "ERROR":
		l.Error(details)
	default:
		l.Info(details)
	}

	mu.RLock()
	s, ch := session, channelID
	mu.RUnlock()
	if s == nil || ch == "" {
		return
	}

	var color int
	switch level {
	case "INFO":
		color = ColorInfo
	case "WARN":
		color = ColorWarn
	case "ERROR":
		color = ColorError
	default:
		color = ColorInfo
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "モジュール",
				Value:  module,
				Inline: true,
			},
			{
				Name:   "操作",
				Value:  operation,
				Inline: true,
			},
			{
				Name:  "詳細",
				Value: details,
			},
		},
	}

	if _, err := s.ChannelMessageSendEmbed(ch, embed); err != nil {
		l.Error("Error sending log message to Discord", zap.Error(err))
	}
}

// Info logs an informational message.
func Info(module, operation, details string) {
	Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func Warn(module, operation, details string) {
	Log("WARN", module, operation, details)
}

// Error logs an error message.
func Error(module, operation, details string) {
	Log("ERROR", module, operation, details)
}
