package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"tictactoe-server/internal/auth"
	"tictactoe-server/internal/connection"
	"tictactoe-server/internal/game"
	"tictactoe-server/internal/matchmaking"
	"tictactoe-server/internal/models"

	"github.com/rs/zerolog"
)

const maxChatLength = 500

// Orchestrator routes inbound client events to the connection registry,
// matchmaking queue and game sessions, and fans out the resulting events.
type Orchestrator struct {
	store      Store
	tokens     auth.TokenResolver
	conns      *connection.Registry
	queue      *matchmaking.Queue
	games      *game.Registry
	completion *GameCompletionService
	log        zerolog.Logger
}

func NewOrchestrator(
	store Store,
	tokens auth.TokenResolver,
	conns *connection.Registry,
	queue *matchmaking.Queue,
	games *game.Registry,
	completion *GameCompletionService,
	log zerolog.Logger,
) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		tokens:     tokens,
		conns:      conns,
		queue:      queue,
		games:      games,
		completion: completion,
		log:        log.With().Str("component", "orchestrator").Logger(),
	}
	queue.SetChangeNotifier(o.broadcastQueue)
	games.SetAbortNotifier(o.notifyAborted)
	return o
}

// Connect resolves the token to a user and registers the connection.
// Any failure is reported as ErrIdentity; the caller closes the transport.
func (o *Orchestrator) Connect(ctx context.Context, token string, sender connection.Sender) (*connection.Connection, error) {
	userID, err := o.tokens.ResolveUserID(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentity, err)
	}

	user, err := o.store.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			o.log.Error().Err(err).Str("user_id", userID).Msg("user lookup failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrIdentity, err)
	}

	conn := o.conns.Register(user, sender)
	o.log.Info().
		Str("session_id", conn.SessionID).
		Str("user_id", conn.UserID).
		Bool("admin", conn.IsAdmin).
		Msg("client connected")

	o.emit(conn, models.EventSearchCount, models.SearchCount{Count: o.queue.Size()})
	if conn.IsAdmin {
		o.emit(conn, models.EventSearchList, o.QueueMembers())
		o.emit(conn, models.EventGameListInfo, o.ActiveGames())
	}
	return conn, nil
}

// Disconnect unregisters the connection, drops it from the queue and aborts
// every active game it takes part in. Aborted games change no ratings and
// leave no match record.
func (o *Orchestrator) Disconnect(sessionID string) {
	conn, ok := o.conns.Unregister(sessionID)
	if !ok {
		return
	}

	o.queue.Dequeue(conn)

	if ids := o.games.TerminateAllInvolving(conn); len(ids) > 0 {
		o.log.Info().Str("session_id", sessionID).Ints("game_ids", ids).Msg("aborted games on disconnect")
		o.broadcastGames()
	}

	o.log.Info().Str("session_id", sessionID).Str("user_id", conn.UserID).Msg("client disconnected")
}

// Search pairs the requester with a waiting opponent or queues them. The
// waiting opponent moves first. A player already in a running game cannot
// search.
func (o *Orchestrator) Search(ctx context.Context, sessionID string) error {
	conn, ok := o.conns.Lookup(sessionID)
	if !ok {
		return ErrUnknownConnection
	}
	if o.games.InActiveGame(conn) {
		return ErrAlreadyPlaying
	}

	for {
		opponent, paired, err := o.queue.Pair(conn)
		if err != nil {
			return err
		}
		if !paired {
			o.log.Debug().Str("user_id", conn.UserID).Int("queue_size", o.queue.Size()).Msg("queued for search")
			return nil
		}

		id, session, err := o.games.Create(opponent, conn)
		if err != nil {
			o.log.Error().Err(err).Msg("failed to create game")
			// The opponent was waiting; put them back rather than lose their search.
			if qerr := o.queue.Enqueue(opponent); qerr != nil {
				o.log.Warn().Err(qerr).Str("user_id", opponent.UserID).Msg("failed to requeue opponent")
			}
			return err
		}

		// Disconnect unregisters before it aborts games, so an opponent that
		// left between Pair and Create is either gone from the registry here or
		// its disconnect has not reached TerminateAllInvolving yet.
		if _, ok := o.conns.Lookup(opponent.SessionID); ok {
			o.start(conn, opponent, id, session)
			return nil
		}
		if session.Abort() {
			o.games.Remove(id)
		}
		o.log.Info().Int("game_id", id).Str("user_id", opponent.UserID).Msg("opponent left before game start")
	}
}

func (o *Orchestrator) start(conn, opponent *connection.Connection, id int, session *game.Session) {
	o.log.Info().
		Int("game_id", id).
		Str("first", opponent.UserID).
		Str("second", conn.UserID).
		Msg("game started")

	status := session.Status()
	o.emit(opponent, models.EventGameNew, status)
	o.emit(conn, models.EventGameNew, status)
	o.broadcastGames()
}

// Move submits a move. Rejections are returned to the caller and broadcast
// nothing.
func (o *Orchestrator) Move(ctx context.Context, sessionID string, gameID, x, y int) error {
	conn, ok := o.conns.Lookup(sessionID)
	if !ok {
		return ErrUnknownConnection
	}

	session, ok := o.games.Get(gameID)
	if !ok {
		return ErrGameNotFound
	}

	res, err := session.SubmitMove(conn, x, y)
	switch {
	case errors.Is(err, game.ErrGameOver):
		return ErrGameNotFound
	case errors.Is(err, game.ErrNotParticipant):
		return ErrNotParticipant
	case err != nil:
		return err
	}

	first, second := session.Players()
	o.emit(first, models.EventGameUpdate, res.Status)
	o.emit(second, models.EventGameUpdate, res.Status)

	if !res.Concluded {
		o.broadcastGames()
		return nil
	}
	return o.conclude(ctx, conn, session, res)
}

// conclude runs the completion pipeline for a session that just reached a
// terminal state. game.end is emitted and the session removed even when
// persistence fails; the error event reaches the mover through the returned
// error and the other participant directly.
func (o *Orchestrator) conclude(ctx context.Context, mover *connection.Connection, session *game.Session, res game.MoveResult) error {
	first, second := session.Players()
	outcome, _ := session.Outcome()

	result, err := o.completion.Complete(ctx, CompletedGame{
		GameID:  session.ID,
		First:   snapshot(first),
		Second:  snapshot(second),
		Outcome: outcome,
	})
	if err == nil {
		first.SetRating(result.FirstNewRating)
		second.SetRating(result.SecondNewRating)
	} else {
		o.reloadRating(ctx, first)
		o.reloadRating(ctx, second)
	}

	winner := models.DrawWinnerText
	if res.Winner != nil {
		winner = res.Winner.DisplayName
	}
	end := models.GameEnd{GameID: session.ID, Winner: winner}
	o.emit(first, models.EventGameEnd, end)
	o.emit(second, models.EventGameEnd, end)

	o.games.Remove(session.ID)
	o.broadcastGames()

	o.log.Info().Int("game_id", session.ID).Str("outcome", string(outcome)).Msg("game finished")
	if err != nil {
		o.emit(session.Opponent(mover), models.EventError, models.ErrorMessage{Error: ClientMessage(err)})
		return fmt.Errorf("complete game %d: %w", session.ID, err)
	}
	return nil
}

// reloadRating resyncs the cached rating with the stored one after a partial
// write. If the user cannot be read the cache is left as is.
func (o *Orchestrator) reloadRating(ctx context.Context, c *connection.Connection) {
	user, err := o.store.GetUserByID(ctx, c.UserID)
	if err != nil {
		o.log.Warn().Err(err).Str("user_id", c.UserID).Msg("failed to reload rating")
		return
	}
	c.SetRating(user.Rating)
}

// Chat relays a message to both participants under the sender's display name.
func (o *Orchestrator) Chat(sessionID string, gameID int, text string) error {
	conn, ok := o.conns.Lookup(sessionID)
	if !ok {
		return ErrUnknownConnection
	}

	session, ok := o.games.Get(gameID)
	if !ok {
		return ErrGameNotFound
	}
	if !session.IsParticipant(conn) {
		return ErrNotParticipant
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxChatLength {
		return ErrMessageTooLong
	}

	msg := models.InGameMessage{GameID: gameID, Username: conn.DisplayName, Message: text}
	first, second := session.Players()
	o.emit(first, models.EventGameMessage, msg)
	o.emit(second, models.EventGameMessage, msg)
	return nil
}

func (o *Orchestrator) QueueCount() int {
	return o.queue.Size()
}

func (o *Orchestrator) ConnectionCount() int {
	return o.conns.Count()
}

func (o *Orchestrator) ActiveGameCount() int {
	return o.games.Count()
}

func (o *Orchestrator) QueueMembers() []models.UserInfo {
	members := o.queue.Snapshot()
	out := make([]models.UserInfo, 0, len(members))
	for _, m := range members {
		out = append(out, m.Info())
	}
	return out
}

func (o *Orchestrator) ActiveGames() []models.GameInfo {
	sessions := o.games.ListActive()
	out := make([]models.GameInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	return out
}

func (o *Orchestrator) broadcastQueue() {
	count := models.SearchCount{Count: o.queue.Size()}
	for _, c := range o.conns.All() {
		o.emit(c, models.EventSearchCount, count)
	}

	admins := o.conns.Admins()
	if len(admins) == 0 {
		return
	}
	members := o.QueueMembers()
	for _, c := range admins {
		o.emit(c, models.EventSearchList, members)
	}
}

func (o *Orchestrator) broadcastGames() {
	admins := o.conns.Admins()
	if len(admins) == 0 {
		return
	}
	games := o.ActiveGames()
	for _, c := range admins {
		o.emit(c, models.EventGameListInfo, games)
	}
}

func (o *Orchestrator) notifyAborted(gameID int, remaining *connection.Connection) {
	if remaining == nil {
		return
	}
	o.emit(remaining, models.EventGameDisconnected, models.GameDisconnected{GameID: gameID})
}

// emit delivers best-effort; a failed send means the peer is going away and
// its own disconnect path will clean up.
func (o *Orchestrator) emit(c *connection.Connection, event string, payload any) {
	if err := c.Emit(event, payload); err != nil {
		o.log.Debug().Err(err).Str("session_id", c.SessionID).Str("event", event).Msg("emit failed")
	}
}

func snapshot(c *connection.Connection) PlayerSnapshot {
	return PlayerSnapshot{UserID: c.UserID, Name: c.DisplayName, Rating: c.Rating()}
}
