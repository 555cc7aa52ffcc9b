package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Black-And-White-Club/scorekeeper/app"
	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessionhandlers "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/handlers"
	"github.com/Black-And-White-Club/scorekeeper/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "scorekeeper",
		Usage: "card game scorekeeping service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			gamesCommand(),
			tokenCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API, event router and export queue",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			application, err := app.NewApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func gamesCommand() *cli.Command {
	return &cli.Command{
		Name:  "games",
		Usage: "list supported games and their rules",
		Action: func(c *cli.Context) error {
			return printGames(c.App.Writer, scoringdomain.AllRules())
		},
	}
}

func printGames(w io.Writer, rules []scoringdomain.Rules) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GAME\tLABEL\tPLAYERS\tTARGET\tMAX ROUND\tWINNER")
	for _, r := range rules {
		players := strconv.Itoa(r.MinPlayers)
		if r.MaxPlayers != r.MinPlayers {
			players = fmt.Sprintf("%d-%d", r.MinPlayers, r.MaxPlayers)
		}
		target := "13 rounds"
		if r.HasTarget() {
			target = fmt.Sprintf("%d (%d-%d)", r.DefaultTarget, r.MinTarget, r.MaxTarget)
		}
		winner := "highest"
		if r.LowWins {
			winner = "lowest"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", r.GameType, r.Label, players, target, r.MaxRoundScore, winner)
	}
	return tw.Flush()
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "issue an API bearer token signed with jwt.secret",
		ArgsUsage: "<subject>",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
		},
		Action: func(c *cli.Context) error {
			subject := c.Args().First()
			if subject == "" {
				return errors.New("subject is required")
			}
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return errors.New("jwt.secret is not configured")
			}
			token, err := sessionhandlers.NewTokenValidator(cfg.JWT.Secret).IssueToken(subject, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
