package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/park285/numguess/internal/adapter/guesspresenter"
	"github.com/park285/numguess/internal/command"
	"github.com/park285/numguess/internal/guessbuilder"
	"github.com/park285/numguess/internal/obslog"
	svc "github.com/park285/numguess/internal/service/guess"
	"github.com/park285/numguess/internal/terminal"
)

var profileFlag = &cli.StringFlag{Name: "profile", Usage: "local profile id", EnvVars: []string{"PROFILE_ID"}}

// localGame is one terminal player's session and its backing deps.
type localGame struct {
	deps *guessbuilder.Deps
	sess *svc.Session
	f    *guesspresenter.Formatter
}

func openLocal(c *cli.Context) (*localGame, error) {
	// Console logs would interleave with the prompt.
	if err := obslog.Init(obslog.OptionsFromEnv(obslog.Options{File: true})); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger := obslog.L()

	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(c.String("profile")); v != "" {
		cfg.ProfileID = v
	}

	deps, err := guessbuilder.New(c.Context, cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	sess, err := svc.NewSession(c.Context, deps.Repo, cfg.ProfileID, deps.Session,
		svc.WithLogger(logger), svc.WithMetrics(deps.Metrics))
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	return &localGame{
		deps: deps,
		sess: sess,
		f:    guesspresenter.NewFormatter(deps.Catalog, prefixProvider{}),
	}, nil
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play interactively in the terminal",
		Flags: []cli.Flag{
			profileFlag,
			&cli.StringFlag{Name: "difficulty", Aliases: []string{"d"}, Usage: "easy, medium, hard or a custom preset"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "classic, sudden_death, survival or time_attack"},
			&cli.StringFlag{Name: "chart-out", Value: terminal.DefaultChartPath, Usage: "where the chart command writes its PNG"},
		},
		Action: func(c *cli.Context) error {
			g, err := openLocal(c)
			if err != nil {
				return err
			}
			defer g.deps.Close()

			game := terminal.New(g.sess, g.f, os.Stdin, os.Stdout,
				terminal.WithChartPath(c.String("chart-out")),
				terminal.WithLogger(obslog.L()))
			return game.Run(c.Context, c.String("difficulty"), c.String("mode"))
		},
	}
}

// runOnce executes a single command line against the local profile.
func runOnce(c *cli.Context, line string) (command.Reply, *localGame, error) {
	g, err := openLocal(c)
	if err != nil {
		return command.Reply{}, nil, err
	}
	d := command.New(g.f, command.WithLogger(obslog.L()))
	return d.Handle(c.Context, g.sess, line), g, nil
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print the local profile's statistics",
		Flags: []cli.Flag{profileFlag},
		Action: func(c *cli.Context) error {
			r, g, err := runOnce(c, "stats")
			if err != nil {
				return err
			}
			defer g.deps.Close()
			fmt.Println(r.Text)
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "print recent rounds, newest first",
		Flags: []cli.Flag{profileFlag},
		Action: func(c *cli.Context) error {
			r, g, err := runOnce(c, "history")
			if err != nil {
				return err
			}
			defer g.deps.Close()
			fmt.Println(r.Text)
			return nil
		},
	}
}

func chartCommand() *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "render the local profile's statistics chart to a PNG",
		Flags: []cli.Flag{
			profileFlag,
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: terminal.DefaultChartPath, Usage: "output file"},
		},
		Action: func(c *cli.Context) error {
			r, g, err := runOnce(c, "chart")
			if err != nil {
				return err
			}
			defer g.deps.Close()
			if len(r.Chart) == 0 {
				fmt.Println(r.Text)
				return nil
			}
			out := c.String("out")
			if err := os.WriteFile(out, r.Chart, 0o644); err != nil {
				obslog.L().Warn("chart_write_failed", zap.String("path", out), zap.Error(err))
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Println(g.f.ChartSaved(out))
			return nil
		},
	}
}
