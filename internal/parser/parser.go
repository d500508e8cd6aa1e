// Package parser normalizes raw UDP payloads into Source-engine-style
// log lines and classifies/extracts them into eventmodel.GameEvent
// values. The try-each-pattern-in-order chain generalizes Sandstorm's
// UE log format to the Counter-Strike-style format used here.
package parser

import (
	"strconv"
	"strings"

	"telemetry-collector/internal/eventmodel"
)

const maxNameBytes = 255

// Parser normalizes and classifies log lines into GameEvents.
type Parser struct {
	patterns *logPatterns
}

// New builds a Parser with its compiled patterns.
func New() *Parser {
	return &Parser{patterns: newLogPatterns()}
}

// Normalize strips Source-engine remote-log framing and leading
// whitespace from raw so the line starts with "L ". ok is false if no
// "L " prefix can be found; such a line is not parseable.
func Normalize(raw []byte) (string, bool) {
	line := raw
	if len(line) >= 4 && line[0] == 0xff && line[1] == 0xff && line[2] == 0xff && line[3] == 0xff {
		line = line[4:]
		line = []byte(strings.TrimPrefix(string(line), "log "))
	}

	s := strings.TrimLeft(string(line), " \t\r\n")
	if !strings.HasPrefix(s, "L ") {
		return "", false
	}
	return s, true
}

// CanParse reports whether raw normalizes to a line the Parser can
// attempt to classify.
func (p *Parser) CanParse(raw []byte) bool {
	_, ok := Normalize(raw)
	return ok
}

// sanitizeName removes '<' and '>' (which would otherwise break the
// player-token grammar) and truncates to 255 bytes.
func sanitizeName(name string) string {
	cleaned := strings.NewReplacer("<", "", ">", "").Replace(name)
	if len(cleaned) > maxNameBytes {
		cleaned = cleaned[:maxNameBytes]
	}
	return cleaned
}

// isBot reports whether a steam id marks a bot identity: literally
// "BOT" (case-insensitive) or a synthetic "BOT_" uid.
func isBot(steamID string) bool {
	upper := strings.ToUpper(strings.TrimSpace(steamID))
	return upper == "BOT" || strings.HasPrefix(upper, "BOT_")
}

// botUniqueID derives the synthetic PlayerUniqueId for a bot: "BOT_"
// plus the uppercased name with whitespace runs collapsed to "_".
func botUniqueID(name string) string {
	return "BOT_" + strings.ToUpper(strings.Join(strings.Fields(name), "_"))
}

func identityFrom(name, steamID string) *eventmodel.Identity {
	sanitized := sanitizeName(name)
	bot := isBot(steamID)

	uniqueID := strings.TrimSpace(steamID)
	if bot {
		uniqueID = botUniqueID(sanitized)
	}

	return &eventmodel.Identity{
		Name:    sanitized,
		SteamID: uniqueID,
		IsBot:   bot,
	}
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func posFrom(x, y, z string) *eventmodel.Position {
	if x == "" && y == "" && z == "" {
		return nil
	}
	return &eventmodel.Position{
		X: float64(atoiOr(x, 0)),
		Y: float64(atoiOr(y, 0)),
		Z: float64(atoiOr(z, 0)),
	}
}

// Parse normalizes and classifies a single raw UDP payload into a
// GameEvent for serverID. Ordering matters: kill is attempted first
// (its pattern embeds a quoted player), then explicit suicide, connect,
// disconnect, chat, round start, round end, map change and server
// shutdown; first match wins.
func (p *Parser) Parse(serverID int64, raw []byte) eventmodel.ParseResult {
	line, ok := Normalize(raw)
	if !ok {
		return eventmodel.Fail("line does not start with \"L \" after normalization")
	}

	tsMatch := p.patterns.Timestamp.FindStringSubmatch(line)
	if len(tsMatch) < 2 {
		return eventmodel.Fail("no timestamp found")
	}
	ts, err := parseTimestamp(tsMatch[1])
	if err != nil {
		return eventmodel.Fail("invalid timestamp: " + err.Error())
	}

	if event, matched := p.tryKill(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}
	if event, matched := p.trySuicideExplicit(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}
	if event, matched := p.tryConnect(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}
	if event, matched := p.tryDisconnect(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}
	if event, matched := p.tryChat(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}
	if event, matched := p.tryRoundStart(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}
	if event, matched := p.tryRoundEnd(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}
	if event, matched := p.tryMapChange(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}
	if event, matched := p.tryServerQuit(line, serverID, ts, raw); matched {
		return eventmodel.Ok(event)
	}

	return eventmodel.Fail("unrecognized log line")
}
