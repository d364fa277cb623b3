package command

import "github.com/bwmarrin/discordgo"

var adminOnly int64 = discordgo.PermissionAdministrator

// AnnouncementTestCommand defines the structure for the /announcement_test command.
type AnnouncementTestCommand struct{}

// Definition returns the application command definition.
func (c *AnnouncementTestCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "announcement_test",
		Description:              "告知検出テスト",
		DefaultMemberPermissions: &adminOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "text",
				Description: "テスト対象のテキスト",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
		},
	}
}

// AnnouncementConfigCommand defines the structure for the /announcement_config command.
type AnnouncementConfigCommand struct{}

// Definition returns the application command definition.
func (c *AnnouncementConfigCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "announcement_config",
		Description:              "告知検出設定確認",
		DefaultMemberPermissions: &adminOnly,
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}
