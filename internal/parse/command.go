package parse

import "strings"

// Kind classifies one command line by its leading keyword.
type Kind int

const (
	KindHelp Kind = iota
	KindAdd
	KindTaken
	KindMissed
	KindStatus
	KindReportDaily
	KindReportWeekly
)

// Command is one normalized line of an inbound message.
type Command struct {
	Line   string   // uppercased, trimmed source line
	Tokens []string // whitespace-separated tokens of Line
	Kind   Kind
}

// ParseCommands splits an inbound message into commands, one per non-empty
// line, in order. A message without any non-empty line yields a single help
// command so the sender always gets an answer.
func ParseCommands(body string) []Command {
	normalized := strings.ToUpper(strings.TrimSpace(body))

	var commands []Command
	for _, line := range strings.Split(normalized, "\n") {
		// Accept CRLF bodies as sent by some gateways.
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		commands = append(commands, Command{
			Line:   line,
			Tokens: tokens,
			Kind:   classify(tokens),
		})
	}

	if len(commands) == 0 {
		return []Command{{Kind: KindHelp}}
	}
	return commands
}

// classify maps tokens to a Kind. ADD is recognised by its keyword alone so
// that a wrong argument count can be reported as a format error.
func classify(tokens []string) Kind {
	if len(tokens) == 0 {
		return KindHelp
	}

	switch tokens[0] {
	case "ADD":
		return KindAdd
	case "TAKEN":
		if len(tokens) == 1 {
			return KindTaken
		}
	case "MISSED":
		if len(tokens) == 1 {
			return KindMissed
		}
	case "STATUS":
		if len(tokens) == 1 {
			return KindStatus
		}
	case "REPORT":
		if len(tokens) == 2 {
			switch tokens[1] {
			case "DAILY":
				return KindReportDaily
			case "WEEKLY":
				return KindReportWeekly
			}
		}
	}
	return KindHelp
}
