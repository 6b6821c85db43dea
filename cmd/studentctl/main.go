// Command studentctl is a terminal front-end for the student records API.
// It fetches the full list and runs the same query pipeline the dashboard
// uses, locally.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stemsi/student-dashboard/internal/client"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/logger"
	"golang.org/x/term"
)

func main() {
	cfg := config.LoadClient()
	log := logger.New(os.Stderr, cfg.LogLevel, "pretty")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		api:   client.New(cfg.APIURL, client.WithLogger(log)),
		prefs: client.NewPreferenceStore(cfg.SettingsPath),
		in:    os.Stdin,
		out:   os.Stdout,
		isTTY: term.IsTerminal(int(os.Stdin.Fd())),
	}

	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
