package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tenchan000517/zeroone-support-sub001/config"
	grpcsvc "github.com/tenchan000517/zeroone-support-sub001/grpc"
	"github.com/tenchan000517/zeroone-support-sub001/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session  *discordgo.Session
	Commands []*discordgo.ApplicationCommand

	health    *grpcsvc.HealthServer
	jobs      []Job
	stopHooks []func()
}

// NewBot creates and initializes a new Bot instance.
func NewBot() (*Bot, error) {
	config.LoadConfig()
	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsGuilds | discordgo.IntentsMessageContent

	if err := utils.InitLogger(dg, viper.GetBool("bot.debug")); err != nil {
		return nil, err
	}

	return &Bot{Session: dg}, nil
}

// RegisterCommands registers the provided slash command definitions.
func (b *Bot) RegisterCommands(commands []*discordgo.ApplicationCommand) {
	b.Commands = append(b.Commands, commands...)
}

// AddJob schedules fn on the given cron spec once the bot starts.
func (b *Bot) AddJob(name, spec string, fn func()) {
	b.jobs = append(b.jobs, Job{Name: name, Spec: spec, Run: fn})
}

// OnStop registers fn to run during Stop, in reverse registration order.
func (b *Bot) OnStop(fn func()) {
	b.stopHooks = append(b.stopHooks, fn)
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot) error) error {
	if addr := viper.GetString("grpc.health_addr"); addr != "" {
		hs, err := grpcsvc.NewHealthServer(addr)
		if err != nil {
			return fmt.Errorf("error starting health server: %w", err)
		}
		hs.Start()
		b.health = hs
	}

	if err := registerHandlers(b); err != nil {
		return fmt.Errorf("error registering handlers: %w", err)
	}

	err := b.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands
	for _, cmd := range b.Commands {
		_, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, viper.GetString("bot.guildId"), cmd)
		if err != nil {
			utils.Logger().Error("Cannot create command", zap.String("command", cmd.Name), zap.Error(err))
		}
	}

	if err := startScheduler(b.jobs); err != nil {
		return err
	}

	if b.health != nil {
		b.health.SetServing(true)
	}

	utils.Logger().Info("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	if b.health != nil {
		b.health.SetServing(false)
	}
	stopScheduler()
	for i := len(b.stopHooks) - 1; i >= 0; i-- {
		b.stopHooks[i]()
	}
	if b.health != nil {
		b.health.Stop()
	}
	if b.Session != nil {
		b.Session.Close()
	}
	utils.Logger().Info("Bot stopped gracefully.")
	_ = utils.Logger().Sync()
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot) error, commands []*discordgo.ApplicationCommand) {
	bot, err := NewBot()
	if err != nil {
		// The zap logger may not exist yet.
		log.Fatalf("Error initializing bot: %v", err)
	}

	bot.RegisterCommands(commands)

	if err := bot.Start(registerHandlers); err != nil {
		bot.Stop()
		utils.Logger().Fatal("Error starting bot", zap.Error(err))
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
