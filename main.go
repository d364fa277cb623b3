package main

import (
	"github.com/tenchan000517/zeroone-support-sub001/bot"
	"github.com/tenchan000517/zeroone-support-sub001/command"
	"github.com/tenchan000517/zeroone-support-sub001/handlers"
)

func main() {
	bot.Run(handlers.Register, command.GetCommandDefinitions())
}
