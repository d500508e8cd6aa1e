package parser

import "regexp"

// playerToken matches the Source-engine player identity block:
// "<name><uid><steamId|BOT><team>".
const playerToken = `"([^<]*)<(\d+)><([^>]*)><([^>]*)>"`

// posToken matches an optional trailing [x y z] coordinate triple.
const posToken = `(?:\s*\[(-?\d+) (-?\d+) (-?\d+)\])?`

// logPatterns holds the compiled regexes used to classify and extract
// a normalized log line: one compiled *regexp.Regexp per event shape,
// built once in newLogPatterns.
type logPatterns struct {
	Kill       *regexp.Regexp
	Suicide    *regexp.Regexp
	Connect    *regexp.Regexp
	Disconnect *regexp.Regexp
	Chat       *regexp.Regexp
	RoundStart *regexp.Regexp
	RoundEnd   *regexp.Regexp
	MapChange  *regexp.Regexp
	ServerQuit *regexp.Regexp
	Timestamp  *regexp.Regexp
}

func newLogPatterns() *logPatterns {
	return &logPatterns{
		// Groups: 1 ts, 2-5 killer(name,uid,steamid,team), 6-8 killer pos,
		// 9-12 victim(name,uid,steamid,team), 13-15 victim pos, 16 weapon,
		// 17 headshot marker.
		Kill: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): ` + playerToken + posToken +
				` killed ` + playerToken + posToken +
				` with "([^"]+)"(\s*\(headshot\))?`),

		// Groups: 1 ts, 2-5 player, 6 weapon.
		Suicide: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): ` + playerToken +
				` committed suicide with "([^"]+)"`),

		// Groups: 1 ts, 2-5 player, 6 ip.
		Connect: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): ` + playerToken +
				` connected, address "([0-9.]+):\d+"`),

		// Groups: 1 ts, 2-5 player, 6 reason (optional).
		Disconnect: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): ` + playerToken +
				` disconnected(?: \(reason "([^"]*)"\))?`),

		// Groups: 1 ts, 2-5 player, 6 dead-marker (optional), 7 message.
		Chat: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): ` + playerToken +
				`(\s*\(dead\))? say(?:_team)? "(.*)"$`),

		// Groups: 1 ts.
		RoundStart: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): World triggers "Round_Start"`),

		// Groups: 1 ts, 2 team. A trailing (CT "n") (T "n") score is
		// matched but not captured.
		RoundEnd: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): Team "([^"]+)" triggers "[^"]*"(?: \(CT "\d+"\) \(T "\d+"\))?`),

		// Groups: 1 ts, 2 new map, 3 previous map (optional).
		MapChange: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): Changelevel to "([^"]+)"(?:\s*\(previous: "([^"]+)"\))?`),

		// Groups: 1 ts.
		ServerQuit: regexp.MustCompile(
			`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}): Server shutdown`),

		Timestamp: regexp.MustCompile(`^L (\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}):`),
	}
}
