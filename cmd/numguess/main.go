package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/park285/numguess/internal/config"
	"github.com/park285/numguess/internal/obslog"
)

func main() {
	app := &cli.App{
		Name:  "numguess",
		Usage: "number guessing game for the terminal and KakaoTalk",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before reading the environment"},
			&cli.StringFlag{Name: "store", Usage: "profile backend: file, memory, redis or postgres", EnvVars: []string{"STORE_BACKEND"}},
			&cli.StringFlag{Name: "data-dir", Usage: "directory for the file backend", EnvVars: []string{"DATA_DIR"}},
		},
		Before: func(c *cli.Context) error {
			return config.LoadDotEnv(c.String("env-file"))
		},
		After: func(*cli.Context) error {
			obslog.Sync()
			return nil
		},
		Commands: []*cli.Command{
			playCommand(),
			statsCommand(),
			historyCommand(),
			chartCommand(),
			botCommand(),
			bridgeCheckCommand(),
		},
		DefaultCommand: "play",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "numguess:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	if v := c.String("store"); v != "" {
		_ = os.Setenv("STORE_BACKEND", v)
	}
	if v := c.String("data-dir"); v != "" {
		_ = os.Setenv("DATA_DIR", v)
	}
	return config.Load()
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }
