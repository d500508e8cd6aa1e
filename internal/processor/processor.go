// Package processor implements the Processor: bot gating, identity
// resolution, persistence, and handler dispatch for a single
// GameEvent.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"telemetry-collector/internal/collectorerr"
	"telemetry-collector/internal/eventmodel"
	"telemetry-collector/internal/handlers/match"
	"telemetry-collector/internal/handlers/player"
	"telemetry-collector/internal/handlers/ranking"
	"telemetry-collector/internal/handlers/weapon"
	"telemetry-collector/internal/logging"
	"telemetry-collector/internal/store"
)

// Handlers bundles the four per-domain handlers the Processor
// dispatches to.
type Handlers struct {
	Player  *player.Handler
	Weapon  *weapon.Handler
	Match   *match.Handler
	Ranking *ranking.Handler
}

// Processor resolves identities, persists, and dispatches one
// GameEvent at a time.
type Processor struct {
	store    store.Store
	handlers Handlers
	logger   *slog.Logger
	logBots  bool
	game     string
}

// New builds a Processor.
func New(s store.Store, handlers Handlers, logger *slog.Logger, game string, logBots bool) *Processor {
	return &Processor{store: s, handlers: handlers, logger: logger, logBots: logBots, game: game}
}

// ProcessEvent runs the five-step contract: bot gate, identity
// resolution, persistence, handler dispatch, and error propagation.
func (p *Processor) ProcessEvent(ctx context.Context, event *eventmodel.GameEvent) error {
	if p.isBotGated(event) {
		return nil
	}

	if err := p.resolveIdentities(ctx, event); err != nil {
		return collectorerr.Identity("identity resolution failed", err)
	}

	if err := p.store.CreateGameEvent(ctx, event); err != nil {
		return collectorerr.Store("failed to persist event", err)
	}

	if err := p.dispatch(ctx, event); err != nil {
		logging.Event(p.logger, "eventProcessed", "success", false, "type", event.Type, "error", err)
		return err
	}

	logging.Event(p.logger, "eventProcessed", "success", true, "type", event.Type)
	return nil
}

func (p *Processor) isBotGated(event *eventmodel.GameEvent) bool {
	if p.logBots || event.Meta == nil {
		return false
	}

	isBot := func(id *eventmodel.Identity) bool { return id != nil && id.IsBot }
	return isBot(event.Meta.Player) || isBot(event.Meta.Killer) || isBot(event.Meta.Victim)
}

func (p *Processor) resolveIdentities(ctx context.Context, event *eventmodel.GameEvent) error {
	resolve := func(id *eventmodel.Identity) (int64, error) {
		return p.store.GetOrCreatePlayer(ctx, id.SteamID, id.Name, p.game)
	}

	switch data := event.Data.(type) {
	case eventmodel.ConnectData:
		if event.Meta == nil || event.Meta.Player == nil {
			return fmt.Errorf("missing identity for %s", event.Type)
		}
		playerID, err := resolve(event.Meta.Player)
		if err != nil {
			return err
		}
		data.PlayerID = playerID
		event.Data = data

	case eventmodel.ChatData:
		if event.Meta == nil || event.Meta.Player == nil {
			return fmt.Errorf("missing identity for %s", event.Type)
		}
		playerID, err := resolve(event.Meta.Player)
		if err != nil {
			return err
		}
		data.PlayerID = playerID
		event.Data = data

	case eventmodel.SuicideData:
		if event.Meta == nil || event.Meta.Player == nil {
			return fmt.Errorf("missing identity for %s", event.Type)
		}
		playerID, err := resolve(event.Meta.Player)
		if err != nil {
			return err
		}
		data.PlayerID = playerID
		event.Data = data

	case eventmodel.KillData:
		if event.Meta == nil || event.Meta.Killer == nil || event.Meta.Victim == nil {
			return fmt.Errorf("missing identity for %s", event.Type)
		}
		killerID, err := resolve(event.Meta.Killer)
		if err != nil {
			return err
		}
		victimID, err := resolve(event.Meta.Victim)
		if err != nil {
			return err
		}
		data.KillerID = killerID
		data.VictimID = victimID
		event.Data = data

	case eventmodel.DisconnectData:
		// DISCONNECT accepts a pre-resolved playerId and is a no-op
		// otherwise; it is never re-resolved from meta here.
	}

	return nil
}

func (p *Processor) dispatch(ctx context.Context, event *eventmodel.GameEvent) error {
	switch event.Type {
	case eventmodel.PlayerConnect:
		data := event.Data.(eventmodel.ConnectData)
		return p.handlers.Player.HandleConnect(ctx, data.PlayerID)

	case eventmodel.PlayerDisconnect:
		data := event.Data.(eventmodel.DisconnectData)
		if data.PlayerID == 0 {
			return nil
		}
		return p.handlers.Player.HandleDisconnect(ctx, data.PlayerID, data.SessionDuration)

	case eventmodel.PlayerSuicide:
		data := event.Data.(eventmodel.SuicideData)
		return p.handlers.Player.HandleSuicide(ctx, data.PlayerID)

	case eventmodel.PlayerKill:
		return p.dispatchKill(ctx, event)

	case eventmodel.PlayerTeamkill:
		return p.dispatchTeamkill(ctx, event)

	case eventmodel.RoundStart:
		return p.handlers.Match.HandleRoundStart(ctx, event.ServerID)

	case eventmodel.RoundEnd:
		data := event.Data.(eventmodel.RoundEndData)
		participants, err := p.handlers.Match.HandleRoundEnd(ctx, event.ServerID, data.WinningTeam, data.Duration)
		if err != nil {
			return err
		}
		_, err = p.handlers.Ranking.HandleRoundEnd(ctx, participants)
		return err

	case eventmodel.MapChange:
		data := event.Data.(eventmodel.MapChangeData)
		return p.handlers.Match.HandleMapChange(ctx, event.ServerID, data.PreviousMap, data.NewMap)

	case eventmodel.ServerShutdown:
		return p.handlers.Match.HandleServerShutdown(ctx, event.ServerID)

	case eventmodel.ChatMessage:
		return nil

	default:
		p.logger.Warn("unhandled event type", "type", event.Type)
		return nil
	}
}

// dispatchKill fans a PLAYER_KILL out to Player, Weapon, and Ranking.
// It serializes the Ranking and Player handlers (Ranking computes the
// new skill that Player writes) while the Weapon Handler runs
// independently.
func (p *Processor) dispatchKill(ctx context.Context, event *eventmodel.GameEvent) error {
	data := event.Data.(eventmodel.KillData)

	p.handlers.Match.RecordParticipant(event.ServerID, data.KillerTeam, data.KillerID)
	p.handlers.Match.RecordParticipant(event.ServerID, data.VictimTeam, data.VictimID)

	weaponErrCh := make(chan error, 1)
	go func() {
		_, err := p.handlers.Weapon.HandleKill(ctx, p.game, data.Weapon, data.KillerID, data.Headshot)
		weaponErrCh <- err
	}()

	killerChange, victimChange, err := p.handlers.Ranking.HandleKill(ctx, data.KillerID, data.VictimID, p.game, data.Weapon, data.Headshot)
	if err != nil {
		<-weaponErrCh
		return err
	}

	err = p.handlers.Player.HandleKill(ctx, data.KillerID, data.VictimID, data.Headshot, killerChange.NewRating, victimChange.NewRating)

	if weaponErr := <-weaponErrCh; weaponErr != nil && err == nil {
		err = weaponErr
	}

	return err
}

// dispatchTeamkill fans a PLAYER_TEAMKILL out to Player only: Weapon
// and Ranking are kill-only per the Processor's dispatch contract.
func (p *Processor) dispatchTeamkill(ctx context.Context, event *eventmodel.GameEvent) error {
	data := event.Data.(eventmodel.KillData)

	p.handlers.Match.RecordParticipant(event.ServerID, data.KillerTeam, data.KillerID)
	p.handlers.Match.RecordParticipant(event.ServerID, data.VictimTeam, data.VictimID)

	return p.handlers.Player.HandleTeamkill(ctx, data.KillerID, data.VictimID)
}
