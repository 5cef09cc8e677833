package bot

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Kind enumerates the explicit commands recognized by the bot.
type Kind int

const (
	KindNone Kind = iota
	KindWhitelist
	KindWhitelistGroup
	KindSummarize
	KindResearch
	KindArt
)

// Names holds the operator-configured command names, without the leading
// slash, fixed at process start.
type Names struct {
	Whitelist      string
	WhitelistGroup string
	Summarize      string
	Research       string
	Art            string
}

// Command is a message's recognized command, resolved once per message.
// Only the fields of the matching kind are meaningful.
type Command struct {
	Kind Kind

	// KindWhitelist: handles as given (possibly with leading "@").
	Handles []string

	// KindSummarize: either Hours (> 0), or Since (non-zero) from a date
	// argument, or BadArg when the argument parsed as neither.
	Hours  int
	Since  time.Time
	BadArg bool

	// KindResearch query, or KindArt prompt.
	Query string
}

// Parse resolves the command carried by a message text, if any. Recognition
// is decoupled from dispatch: the result says what was asked, the handlers
// decide what happens.
func Parse(text string, names Names) Command {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{Kind: KindNone}
	}

	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")

	// Strip the @botname suffix used in group chats.
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	args := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	switch name {
	case names.Whitelist:
		return Command{Kind: KindWhitelist, Handles: fields[1:]}
	case names.WhitelistGroup:
		return Command{Kind: KindWhitelistGroup}
	case names.Summarize:
		return parseSummarize(fields[1:])
	case names.Research:
		return Command{Kind: KindResearch, Query: args}
	case names.Art:
		return Command{Kind: KindArt, Query: args}
	default:
		return Command{Kind: KindNone}
	}
}

func parseSummarize(args []string) Command {
	if len(args) == 0 {
		return Command{Kind: KindSummarize}
	}

	// A bare integer is always an hour count, valid or not, never a date.
	if hours, err := strconv.Atoi(args[0]); err == nil {
		if hours > 0 {
			return Command{Kind: KindSummarize, Hours: hours}
		}

		return Command{Kind: KindSummarize, BadArg: true}
	}

	if since, err := dateparse.ParseAny(strings.Join(args, " ")); err == nil {
		return Command{Kind: KindSummarize, Since: since}
	}

	return Command{Kind: KindSummarize, BadArg: true}
}
