package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"curator-lite/content"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "curator:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "curator",
		Usage: "auction encounter engine tools",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "economy",
				Usage:   "economy.yaml overlay (defaults to the embedded balance)",
				Sources: cli.EnvVars("CURATOR_ECONOMY_PATH"),
			},
		},
		Writer:    out,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			simulateCommand(),
			routeCommand(),
			moodCommand(),
			replayCommand(),
		},
	}
}

func loadBundle(cmd *cli.Command) (*content.Bundle, error) {
	return content.Load(cmd.String("economy"))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
