package buttons

const (
	//main menu
	Balance = "💰 Balance"
	CheckIn = "📅 Check in"
	Task    = "✅ Daily task"
	Team    = "👥 Team"
	History = "📃 History"
)

// MainMenu is the reply keyboard shown once a chat is linked.
var MainMenu = []string{Balance, CheckIn, Task, Team, History}
