package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raffle-network/raffle/internal/config"
	httpservice "github.com/raffle-network/raffle/internal/interface/http"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

//nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// flags
var (
	urlFlag = &cli.StringFlag{
		Name:  "url",
		Usage: "the url of a running raffled daemon",
		Value: fmt.Sprintf("http://localhost:%d", config.DefaultPort),
	}
	adminUserFlag = &cli.StringFlag{
		Name:    "admin-user",
		Usage:   "user for the admin endpoints",
		EnvVars: []string{"RAFFLE_ADMIN_USER"},
	}
	adminPassFlag = &cli.StringFlag{
		Name:    "admin-pass",
		Usage:   "password for the admin endpoints",
		EnvVars: []string{"RAFFLE_ADMIN_PASS"},
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "raffled"
	app.Version = fmt.Sprintf("%s (%s, %s)", version, commit, date)
	app.Usage = "automated raffle daemon"
	app.Description = "Runs the raffle daemon when invoked without commands, " +
		"commands talk to a running daemon"
	app.Flags = []cli.Flag{urlFlag, adminUserFlag, adminPassFlag}
	app.Commands = append(
		app.Commands,
		statusCmd,
		upkeepCmd,
		retrySettlementCmd,
		roundCmd,
	)
	app.Action = mainAction

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func mainAction(_ *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	svcConfig := httpservice.Config{
		Port:             cfg.Port,
		HealthPort:       cfg.HealthPort,
		AdminUser:        cfg.AdminUser,
		AdminPass:        cfg.AdminPass,
		OracleCallback:   cfg.OracleCallbackEnabled(),
		OracleCredential: cfg.OracleCredential,
	}

	svc, err := httpservice.NewService(svcConfig, cfg)
	if err != nil {
		return err
	}

	log.Infof("raffled config: %s", cfg)

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, os.Interrupt)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)

	return nil
}
