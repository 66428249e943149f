package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/park285/numguess/internal/irisfast"
)

func bridgeCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "bridge-check",
		Usage: "probe the Iris bridge's HTTP config and websocket feed",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "watch", Value: 10 * time.Second, Usage: "how long to print websocket messages"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.IrisBaseURL == "" {
				return fmt.Errorf("IRIS_BASE_URL is required")
			}

			client := irisfast.NewClient(cfg.IrisBaseURL,
				irisfast.WithHeaderProvider(cfg.Headers),
				irisfast.WithTimeout(8*time.Second),
				irisfast.WithRetry(1))

			ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
			defer cancel()
			bc, err := client.GetConfig(ctx)
			if err != nil {
				fmt.Printf("/config error: %v\n", err)
			} else {
				fmt.Printf("/config ok: port=%d polling=%d rate=%d endpoint=%s\n", bc.Port, bc.PollingSpeed, bc.MessageRate, bc.WebserverEndpoint)
			}

			if cfg.IrisWSURL == "" {
				fmt.Println("IRIS_WS_URL not set; skipping websocket check")
				return nil
			}

			ws := irisfast.NewListener(cfg.IrisWSURL, 0, irisfast.WithHandshakeHeaders(cfg.Headers))
			ws.OnStateChange(func(state irisfast.WebSocketState) {
				fmt.Printf("ws state: %s\n", state)
			})
			ws.OnMessage(func(msg *irisfast.Message) {
				from := msg.SenderName()
				if from == "" {
					from = "?"
				}
				fmt.Printf("ws msg room=%s from=%s text=%q\n", msg.Room, from, msg.Msg)
			})

			cctx, ccancel := context.WithTimeout(c.Context, 10*time.Second)
			defer ccancel()
			if err := ws.Connect(cctx); err != nil {
				return fmt.Errorf("ws connect: %w", err)
			}

			t := time.NewTimer(c.Duration("watch"))
			defer t.Stop()
			select {
			case <-t.C:
			case <-c.Context.Done():
			}
			return ws.Close(context.Background())
		},
	}
}
