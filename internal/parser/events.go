package parser

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"telemetry-collector/internal/eventmodel"
)

func newEvent(serverID int64, ts time.Time, raw []byte, typ eventmodel.EventType) *eventmodel.GameEvent {
	return &eventmodel.GameEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Timestamp: ts,
		ServerID:  serverID,
		Raw:       string(raw),
	}
}

// tryKill attempts the kill pattern first, ahead of connect/disconnect/
// chat. A kill line is reclassified here: a killer whose steam
// id equals the victim's is a suicide; a killer/victim on the same
// non-empty team is a teamkill; otherwise it is a regular kill.
func (p *Parser) tryKill(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.Kill.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	killerName, killerSteamID, killerTeam := m[2], m[4], m[5]
	victimName, victimSteamID, victimTeam := m[9], m[11], m[12]
	weapon := m[16]
	headshot := strings.TrimSpace(m[17]) != ""

	killerPos := posFrom(m[6], m[7], m[8])
	victimPos := posFrom(m[13], m[14], m[15])

	if killerSteamID != "" && strings.EqualFold(killerSteamID, victimSteamID) {
		event := newEvent(serverID, ts, raw, eventmodel.PlayerSuicide)
		event.Meta = &eventmodel.Meta{Player: identityFrom(killerName, killerSteamID)}
		event.Data = eventmodel.SuicideData{Weapon: weapon}
		return event, true
	}

	typ := eventmodel.PlayerKill
	if killerTeam != "" && killerTeam == victimTeam {
		typ = eventmodel.PlayerTeamkill
	}

	event := newEvent(serverID, ts, raw, typ)
	event.Meta = &eventmodel.Meta{
		Killer: identityFrom(killerName, killerSteamID),
		Victim: identityFrom(victimName, victimSteamID),
	}
	event.Data = eventmodel.KillData{
		KillerTeam: killerTeam,
		VictimTeam: victimTeam,
		Weapon:     weapon,
		Headshot:   headshot,
		KillerPos:  killerPos,
		VictimPos:  victimPos,
	}
	return event, true
}

// trySuicideExplicit handles the textual "committed suicide with"
// form (e.g. falling, drowning, or "world" damage) that never embeds
// a second player token and so cannot match the kill pattern.
func (p *Parser) trySuicideExplicit(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.Suicide.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := newEvent(serverID, ts, raw, eventmodel.PlayerSuicide)
	event.Meta = &eventmodel.Meta{Player: identityFrom(m[2], m[4])}
	event.Data = eventmodel.SuicideData{Weapon: m[6]}
	return event, true
}

func (p *Parser) tryConnect(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.Connect.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := newEvent(serverID, ts, raw, eventmodel.PlayerConnect)
	event.Meta = &eventmodel.Meta{Player: identityFrom(m[2], m[4])}
	event.Data = eventmodel.ConnectData{IP: m[6]}
	return event, true
}

func (p *Parser) tryDisconnect(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.Disconnect.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := newEvent(serverID, ts, raw, eventmodel.PlayerDisconnect)
	event.Meta = &eventmodel.Meta{Player: identityFrom(m[2], m[4])}
	event.Data = eventmodel.DisconnectData{Reason: m[6]}
	return event, true
}

func (p *Parser) tryChat(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.Chat.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	dead := strings.TrimSpace(m[6]) != ""
	mode := 0
	if dead {
		mode = 1
	}

	event := newEvent(serverID, ts, raw, eventmodel.ChatMessage)
	event.Meta = &eventmodel.Meta{Player: identityFrom(m[2], m[4])}
	event.Data = eventmodel.ChatData{Message: m[7], Dead: dead, MessageMode: mode}
	return event, true
}

func (p *Parser) tryRoundStart(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.RoundStart.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := newEvent(serverID, ts, raw, eventmodel.RoundStart)
	event.Data = eventmodel.RoundStartData{}
	return event, true
}

func (p *Parser) tryRoundEnd(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.RoundEnd.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := newEvent(serverID, ts, raw, eventmodel.RoundEnd)
	event.Data = eventmodel.RoundEndData{WinningTeam: m[2]}
	return event, true
}

func (p *Parser) tryMapChange(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.MapChange.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := newEvent(serverID, ts, raw, eventmodel.MapChange)
	event.Data = eventmodel.MapChangeData{NewMap: m[2], PreviousMap: m[3]}
	return event, true
}

func (p *Parser) tryServerQuit(line string, serverID int64, ts time.Time, raw []byte) (*eventmodel.GameEvent, bool) {
	m := p.patterns.ServerQuit.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	event := newEvent(serverID, ts, raw, eventmodel.ServerShutdown)
	event.Data = eventmodel.ServerShutdownData{}
	return event, true
}
