package models

// Event names on the WebSocket wire. Clients depend on these verbatim.
const (
	EventSearch      = "search"
	EventGameMove    = "game.move"
	EventGameMessage = "game.message"

	EventGameNew          = "game.new"
	EventGameUpdate       = "game.update"
	EventGameEnd          = "game.end"
	EventGameDisconnected = "game.end.disconnected"
	EventError            = "error"
	EventSearchCount      = "search.count"
	EventSearchList       = "search.list"
	EventGameListInfo     = "game.list.info"
)
