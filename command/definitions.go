package command

// Command is one entry of the bot's command menu.
type Command struct {
	Name        string
	Description string
	// Group marks commands that are also listed in group chats.
	Group bool
}

// AllCommands holds every command the bot answers, in menu order.
var AllCommands = []Command{
	{Name: "start", Description: "Start the bot", Group: true},
	{Name: "help", Description: "Show help", Group: true},
	{Name: "login", Description: "Login to your account"},
	{Name: "register", Description: "Create new account"},
	{Name: "balance", Description: "Check your balance"},
	{Name: "stats", Description: "View your statistics"},
	{Name: "offerwalls", Description: "Browse offerwalls"},
	{Name: "tasks", Description: "View available tasks"},
	{Name: "surveys", Description: "Survey information"},
	{Name: "referral", Description: "Get your referral link"},
	{Name: "leaderboard", Description: "Top earners"},
	{Name: "support", Description: "Get help"},
	{Name: "faq", Description: "Frequently asked questions", Group: true},
	{Name: "rules", Description: "Group rules", Group: true},
	{Name: "cancel", Description: "Cancel current action"},
}
