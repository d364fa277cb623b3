package handlers

import (
	"github.com/tenchan000517/zeroone-support-sub001/utils"

	"github.com/bwmarrin/discordgo"
)

var commandPermissions = map[string]string{
	"announcement_test":   "admin",
	"announcement_config": "admin",
	"ping":                "guest",
}

// CommandDispatcher is the central handler for all application command interactions.
// It performs permission checks and then dispatches the interaction to the appropriate handler.
func CommandDispatcher(s interactionResponder, i *discordgo.InteractionCreate, a *Announcer, auth *utils.Auth) {
	commandName := i.ApplicationCommandData().Name
	requiredLevel, ok := commandPermissions[commandName]

	if ok {
		if !auth.CheckPermission(i, requiredLevel) {
			s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: &discordgo.InteractionResponseData{
					Content: "🚫 このコマンドを実行する権限がありません",
					Flags:   discordgo.MessageFlagsEphemeral,
				},
			})
			return
		}
	}

	switch commandName {
	case "announcement_test":
		a.HandleAnnouncementTest(s, i)
	case "announcement_config":
		a.HandleAnnouncementConfig(s, i)
	case "ping":
		HandlePing(s, i)
	default:
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "🚫内部エラー：Unknown command.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
	}
}
