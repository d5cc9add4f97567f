package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"curator-lite/auction"
	"curator-lite/auction/rival"
	"curator-lite/content"
	"curator-lite/encounter"
	"curator-lite/replay"
)

func encounterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{Name: "seed", Value: 1, Usage: "rng seed (0 seeds from the clock)"},
		&cli.IntFlag{Name: "prestige", Value: 60, Usage: "player prestige"},
		&cli.IntFlag{Name: "day", Value: 1, Usage: "in-game day"},
		&cli.StringFlag{Name: "location", Value: "downtown_warehouse", Usage: "venue id"},
		&cli.StringFlag{Name: "event", Usage: "special event id (optional)"},
	}
}

func routeFromFlags(cmd *cli.Command, b *content.Bundle) (encounter.RoutedEncounter, error) {
	r := b.NewRouter(cmd.Int64("seed"))
	prestige, day, loc := cmd.Int("prestige"), cmd.Int("day"), cmd.String("location")

	var (
		enc encounter.RoutedEncounter
		ok  bool
	)
	if id := cmd.String("event"); id != "" {
		ev, found := b.Event(id)
		if !found {
			return enc, fmt.Errorf("unknown event %q", id)
		}
		enc, ok = r.RouteSpecialEncounter(ev, loc, prestige, day)
	} else {
		enc, ok = r.RouteLocationEncounter(loc, prestige, day)
	}
	if !ok {
		return enc, errors.New("no car could be drawn")
	}
	return enc, nil
}

func routeCommand() *cli.Command {
	return &cli.Command{
		Name:  "route",
		Usage: "print one routed encounter as JSON",
		Flags: encounterFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			b, err := loadBundle(cmd)
			if err != nil {
				return err
			}
			enc, err := routeFromFlags(cmd, b)
			if err != nil {
				return err
			}
			return writeJSON(cmd.Root().Writer, enc)
		},
	}
}

func simulateCommand() *cli.Command {
	flags := append(encounterFlags(),
		&cli.Int64Flag{Name: "money", Value: 100000, Usage: "player money"},
		&cli.IntFlag{Name: "eye", Value: 2, Usage: "player eye skill"},
		&cli.FloatFlag{Name: "ceiling", Value: 1.1, Usage: "walk away above this multiple of the car value"},
		&cli.BoolFlag{Name: "json", Usage: "print turn results as JSON"},
	)
	return &cli.Command{
		Name:  "simulate",
		Usage: "route an encounter and let an automatic player bid through it",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			b, err := loadBundle(cmd)
			if err != nil {
				return err
			}
			enc, err := routeFromFlags(cmd, b)
			if err != nil {
				return err
			}
			player := auction.Player{ID: "curator", Money: cmd.Int64("money"), Eye: cmd.Int("eye")}
			a, err := enc.Open(auction.ConfigFromEconomy(b.Economy), player)
			if err != nil {
				return err
			}
			bot := newAutoPlayer(enc.Car.BaseValue, cmd.Float("ceiling"), b.Economy.Auction.PlayerBidIncrement)
			turns, err := bot.play(a)
			if err != nil {
				return err
			}
			out := cmd.Root().Writer
			if cmd.Bool("json") {
				return writeJSON(out, turns)
			}
			printSession(out, enc, a.Snapshot(), turns)
			return nil
		},
	}
}

func printSession(w io.Writer, enc encounter.RoutedEncounter, open auction.Snapshot, turns []*auction.TurnResult) {
	fmt.Fprintf(w, "%s at %s (value %d, tags %v)\n", enc.Car.Name, enc.LocationID, enc.Car.BaseValue, enc.Car.Tags)
	for _, r := range open.Rivals {
		fmt.Fprintf(w, "  rival %-16s tier=%d %-10s mood=%-9s interest=%d\n", r.ID, r.Tier, r.Strategy, r.Mood, r.Interest)
	}
	fmt.Fprintf(w, "opening bid %d\n", open.OpeningBid)
	for _, t := range turns {
		fmt.Fprintf(w, "turn %d: player %s -> %d\n", t.Turn, t.Action, t.CurrentBid)
		for _, d := range t.Decisions {
			verb := "holds"
			if d.TookLead {
				verb = "leads"
			}
			fmt.Fprintf(w, "  %-16s %s at %d (%s)\n", d.RivalID, verb, d.BidAfter, d.Decision.Reason)
		}
		if t.Settlement != nil {
			s := t.Settlement
			winner := s.Winner
			if winner == "" {
				winner = "nobody"
			}
			fmt.Fprintf(w, "%s: %s buys for %d after %d turns\n", s.Outcome, winner, s.Price, s.Turns)
		}
	}
}

func moodCommand() *cli.Command {
	return &cli.Command{
		Name:      "mood",
		Usage:     "print a rival's mood and effective stats for a range of days",
		ArgsUsage: "<rival-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "day", Value: 1, Usage: "first day"},
			&cli.IntFlag{Name: "days", Value: 1, Usage: "number of days to print"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := strings.TrimSpace(cmd.Args().First())
			if id == "" {
				return errors.New("missing rival id")
			}
			b, err := loadBundle(cmd)
			if err != nil {
				return err
			}
			sel := rival.NewSelector(b.Rivals, b.Economy, 1)
			if _, ok := b.Rivals.Get(id); !ok {
				return fmt.Errorf("unknown rival %q", id)
			}
			out := cmd.Root().Writer
			first := cmd.Int("day")
			for d := first; d < first+max(cmd.Int("days"), 1); d++ {
				rv, _ := sel.Materialize(id, d)
				fmt.Fprintf(out, "day %d: %-9s seed=%2d patience=%d budget=%d\n",
					d, rv.Mood, rival.MoodSeed(id, d), rv.Patience, rv.Budget)
			}
			return nil
		},
	}
}

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "turn an auction spec JSON into a wire tape",
		ArgsUsage: "<spec.json|->",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			raw, err := readInput(cmd.Args().First())
			if err != nil {
				return err
			}
			var spec replay.AuctionSpec
			if err := json.Unmarshal(raw, &spec); err != nil {
				return fmt.Errorf("parse spec: %w", err)
			}
			tape, err := replay.GenerateReplayTape(spec)
			if err != nil {
				var replayErr *replay.ReplayError
				if errors.As(err, &replayErr) {
					_ = writeJSON(cmd.Root().ErrWriter, replayErr)
				}
				return err
			}
			return writeJSON(cmd.Root().Writer, replay.ToWireReplayTape(tape))
		},
	}
}

func readInput(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, errors.New("missing spec path")
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(path)
	}
}
