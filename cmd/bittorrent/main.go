package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/lenaggar/bittorrent-go/app"
	"github.com/lenaggar/bittorrent-go/app/bencode"
)

// config holds the global flags shared by every command.
type config struct {
	parser  app.Parser
	workers int
}

func main() {
	var debugLevel DebugType
	flag.Var(&debugLevel, "debug", "Debug level (info, debug, warning)")
	maxDepth := flag.Int("max-depth", bencode.DefaultMaxDepth, "maximum nesting of lists and dictionaries")
	allowTrailing := flag.Bool("allow-trailing", false, "accept bytes after the top-level value")
	workers := flag.Int("workers", 0, "parallel parsers for info (0 means one per CPU)")
	flag.Usage = usage
	flag.Parse()

	// Results go to stdout, so logs have to go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: debugLevel.Level()},
	)))

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg := config{
		parser: app.Parser{Decoder: bencode.Decoder{
			MaxDepth:      *maxDepth,
			AllowTrailing: *allowTrailing,
		}},
		workers: *workers,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := flag.Arg(0)
	slog.Debug("running command", "command", command, "args", flag.Args()[1:], "max_depth", *maxDepth, "allow_trailing", *allowTrailing)

	if err := run(ctx, cfg, command, flag.Args()[1:], os.Stdout); err != nil {
		slog.Error("command failed", "command", command, "error", err)
		stop()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command> [args]

Commands:
  decode <bencoded>             print a bencoded value as JSON
  encode <json>                 print the canonical bencoding of a JSON value
  info <file.torrent>...        print torrent metadata
  verify <file.torrent>         check that a torrent is canonically encoded
  magnet <file.torrent>         print a magnet link for a torrent
  parse-magnet <uri>            print the fields of a magnet link
  create [flags] <file> <out>   write a single-file torrent for file

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

// DebugType is the -debug flag value selecting the log level.
type DebugType int

const (
	DebugWarning DebugType = iota
	DebugInfo
	DebugDebug
)

func (dt *DebugType) String() string {
	switch *dt {
	case DebugInfo:
		return "info"
	case DebugDebug:
		return "debug"
	case DebugWarning:
		return "warning"
	default:
		return "unknown"
	}
}

func (dt *DebugType) Set(s string) error {
	switch s {
	case "info":
		*dt = DebugInfo
	case "debug":
		*dt = DebugDebug
	case "warning", "warn":
		*dt = DebugWarning
	default:
		return fmt.Errorf("invalid debug type: %s", s)
	}
	return nil
}

// Level maps the flag onto a slog level.
func (dt *DebugType) Level() slog.Level {
	switch *dt {
	case DebugDebug:
		return slog.LevelDebug
	case DebugInfo:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}
