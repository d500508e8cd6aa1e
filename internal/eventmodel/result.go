package eventmodel

// ParseResult is the tagged success/failure the Parser returns for a
// single normalized line: success with a populated event, or failure
// with a short reason.
type ParseResult struct {
	Success bool
	Event   *GameEvent
	Reason  string
}

// Ok wraps a successfully parsed event.
func Ok(event *GameEvent) ParseResult {
	return ParseResult{Success: true, Event: event}
}

// Fail wraps a short, human-readable failure reason.
func Fail(reason string) ParseResult {
	return ParseResult{Success: false, Reason: reason}
}
