package sound

// Event 音效事件，对应 assets/sounds/<event>.mp3|wav
type Event string

const (
	EventMatchStart Event = "match_start"
	EventMyTurn     Event = "my_turn"
	EventPlayCard   Event = "play_card"
	EventDrawCard   Event = "draw_card"
	EventWin        Event = "win"
	EventLose       Event = "lose"
	EventPayout     Event = "payout"
)
