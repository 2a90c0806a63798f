package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lenaggar/bittorrent-go/app"
	"github.com/lenaggar/bittorrent-go/app/bencode"
)

var (
	errUsage        = errors.New("usage")
	errNotCanonical = errors.New("torrent is not canonically encoded")
)

func run(ctx context.Context, cfg config, command string, args []string, out io.Writer) error {
	switch command {
	case "decode":
		return runDecode(cfg, args, out)
	case "encode":
		return runEncode(args, out)
	case "info":
		return runInfo(ctx, cfg, args, out)
	case "verify":
		return runVerify(cfg, args, out)
	case "magnet":
		return runMagnet(cfg, args, out)
	case "parse-magnet":
		return runParseMagnet(args, out)
	case "create":
		return runCreate(args, out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func requireArgs(command string, args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%w: %s needs %d argument(s), got %d", errUsage, command, n, len(args))
	}
	return nil
}

func runDecode(cfg config, args []string, out io.Writer) error {
	if err := requireArgs("decode", args, 1); err != nil {
		return err
	}

	decoded, err := cfg.parser.Decoder.DecodeAll([]byte(args[0]))
	if err != nil {
		return fmt.Errorf("failed to decode bencoded value: %w", err)
	}

	// Marshal the decoded value to JSON
	jsonOutput, err := bencode.MarshalBNode(&decoded)
	if err != nil {
		return fmt.Errorf("failed to marshal decoded value: %w", err)
	}

	fmt.Fprintln(out, string(jsonOutput))
	return nil
}

func runEncode(args []string, out io.Writer) error {
	if err := requireArgs("encode", args, 1); err != nil {
		return err
	}

	node, err := bencode.FromJSON([]byte(args[0]))
	if err != nil {
		return fmt.Errorf("failed to read JSON value: %w", err)
	}

	encoded, err := bencode.Encode(node)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	fmt.Fprintln(out, string(encoded))
	return nil
}

func runInfo(ctx context.Context, cfg config, args []string, out io.Writer) error {
	if err := requireArgs("info", args, 1); err != nil {
		return err
	}

	start := time.Now()
	results := cfg.parser.ParseFiles(ctx, args, cfg.workers)
	slog.Debug("parsed torrent files", "count", len(results), "elapsed", time.Since(start))

	failed, printed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			slog.Error("failed to parse torrent file", "path", r.Path, "error", r.Err)
			failed++
			continue
		}
		if len(results) > 1 {
			if printed > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "==> %s <==\n", r.Path)
		}
		printInfo(out, r.Meta)
		printed++
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d torrent files failed to parse", failed, len(results))
	}
	return nil
}

func printInfo(out io.Writer, meta app.MetaInfo) {
	fmt.Fprintln(out, "Tracker URL:", meta.TrackerUrl)
	fmt.Fprintln(out, "Length:", meta.Length)
	fmt.Fprintln(out, "Info Hash:", meta.InfoHashHex())
	fmt.Fprintln(out, "Piece Length:", meta.PieceLength)
	fmt.Fprintln(out, "Piece Hashes:")
	for _, h := range meta.PieceHashesHex() {
		fmt.Fprintln(out, h)
	}
}

func runVerify(cfg config, args []string, out io.Writer) error {
	if err := requireArgs("verify", args, 1); err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	report, err := cfg.parser.Verify(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	fmt.Fprintln(out, "Info Hash:", report.Meta.InfoHashHex())
	fmt.Fprintln(out, "Raw Info Hash:", hex.EncodeToString(report.RawInfoHash[:]))
	fmt.Fprintln(out, "Info Canonical:", report.InfoCanonical())
	fmt.Fprintln(out, "Document Canonical:", report.DocumentCanonical)

	if !report.InfoCanonical() {
		return fmt.Errorf("%s: %w", args[0], errNotCanonical)
	}
	if !report.DocumentCanonical {
		slog.Warn("top-level dictionary is not canonically encoded", "path", args[0])
	}
	return nil
}

func runMagnet(cfg config, args []string, out io.Writer) error {
	if err := requireArgs("magnet", args, 1); err != nil {
		return err
	}

	meta, err := cfg.parser.ParseFile(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(out, meta.MagnetLink())
	return nil
}

func runParseMagnet(args []string, out io.Writer) error {
	if err := requireArgs("parse-magnet", args, 1); err != nil {
		return err
	}

	magnet, err := app.ParseMagnetLink(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Tracker URL:", magnet.TrackerUrl)
	fmt.Fprintln(out, "Info Hash:", hex.EncodeToString(magnet.InfoHash[:]))
	if magnet.FileName != "" {
		fmt.Fprintln(out, "Name:", magnet.FileName)
	}
	return nil
}

func runCreate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	announce := fs.String("announce", "", "tracker announce URL")
	pieceLength := fs.Int64("piece-length", app.DefaultPieceLength, "piece size in bytes")
	name := fs.String("name", "", "name stored in the torrent (defaults to the file name)")
	private := fs.Bool("private", false, "mark the torrent private")
	comment := fs.String("comment", "", "free-form comment")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := requireArgs("create", fs.Args(), 2); err != nil {
		return err
	}
	contentPath, outPath := fs.Arg(0), fs.Arg(1)

	if *name == "" {
		*name = filepath.Base(contentPath)
	}

	content, err := os.Open(contentPath)
	if err != nil {
		return err
	}
	defer content.Close()

	var buf bytes.Buffer
	meta, err := app.CreateTorrent(&buf, content, app.CreateOptions{
		Announce:     *announce,
		Name:         *name,
		PieceLength:  *pieceLength,
		Private:      *private,
		Comment:      *comment,
		CreatedBy:    "bittorrent-go",
		CreationDate: time.Now(),
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return err
	}
	slog.Info("created torrent", "path", outPath, "pieces", len(meta.Pieces), "bytes", buf.Len())

	fmt.Fprintln(out, "Info Hash:", meta.InfoHashHex())
	fmt.Fprintf(out, "Pieces: %d x %d\n", len(meta.Pieces), meta.PieceLength)
	return nil
}
