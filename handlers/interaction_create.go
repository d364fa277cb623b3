package handlers

import (
	"github.com/tenchan000517/zeroone-support-sub001/utils"

	"github.com/bwmarrin/discordgo"
)

// InteractionCreate handles slash command interactions.
func InteractionCreate(a *Announcer, auth *utils.Auth) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			CommandDispatcher(s, i, a, auth)
		}
	}
}
