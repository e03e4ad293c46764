package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/sling"
	"github.com/urfave/cli/v2"
)

var (
	performFlag = &cli.BoolFlag{
		Name:  "perform",
		Usage: "perform the upkeep instead of only checking it",
	}
	roundIdFlag = &cli.Uint64Flag{
		Name:  "id",
		Usage: "id of a settled round, all rounds are listed if omitted",
	}
)

var (
	statusCmd = &cli.Command{
		Name:   "status",
		Usage:  "Get the current state of the raffle",
		Action: statusAction,
	}
	upkeepCmd = &cli.Command{
		Name:   "upkeep",
		Usage:  "Check whether a winner draw is due, or trigger it",
		Action: upkeepAction,
		Flags:  []cli.Flag{performFlag},
	}
	retrySettlementCmd = &cli.Command{
		Name:   "retry-settlement",
		Usage:  "Retry the payout of a round whose transfer failed",
		Action: retrySettlementAction,
	}
	roundCmd = &cli.Command{
		Name:   "round",
		Usage:  "Get settled rounds",
		Action: roundAction,
		Flags:  []cli.Flag{roundIdFlag},
	}
)

func statusAction(ctx *cli.Context) error {
	return printResponse(newClient(ctx).New().Get("v1/info"))
}

func upkeepAction(ctx *cli.Context) error {
	client := newClient(ctx)
	if ctx.Bool(performFlag.Name) {
		return printResponse(client.New().Post("v1/upkeep"))
	}
	return printResponse(client.New().Get("v1/upkeep"))
}

func retrySettlementAction(ctx *cli.Context) error {
	user := ctx.String(adminUserFlag.Name)
	pass := ctx.String(adminPassFlag.Name)
	if len(user) <= 0 || len(pass) <= 0 {
		return fmt.Errorf("missing admin credentials")
	}

	req := newClient(ctx).New().Post("v1/admin/retry-settlement").SetBasicAuth(user, pass)
	if err := printResponse(req); err != nil {
		return err
	}
	fmt.Println("settlement completed")
	return nil
}

func roundAction(ctx *cli.Context) error {
	client := newClient(ctx)
	if ctx.IsSet(roundIdFlag.Name) {
		path := fmt.Sprintf("v1/rounds/%d", ctx.Uint64(roundIdFlag.Name))
		return printResponse(client.New().Get(path))
	}
	return printResponse(client.New().Get("v1/rounds"))
}

func newClient(ctx *cli.Context) *sling.Sling {
	baseURL := ctx.String(urlFlag.Name)
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return sling.New().Base(baseURL).Client(httpClient)
}

func printResponse(s *sling.Sling) error {
	var success, failure json.RawMessage
	resp, err := s.Receive(&success, &failure)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		if len(failure) > 0 {
			return fmt.Errorf("request failed: %s", string(failure))
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if len(success) <= 0 {
		return nil
	}

	buf, err := json.MarshalIndent(success, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
