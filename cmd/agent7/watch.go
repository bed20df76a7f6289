package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fentz26/agent7/internal/poller"
	"github.com/fentz26/agent7/internal/push"
	"github.com/fentz26/agent7/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream execution output and task events",
	RunE:  runWatch,
}

var watchUntilDone bool

func init() {
	watchCmd.Flags().BoolVar(&watchUntilDone, "until-done", false, "Exit when the running execution completes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctrl := newController(false, nil)
	ctrl.RefreshStatus(cmd.Context())
	return follow(cmd.Context(), ctrl, watchUntilDone, nil)
}

// follow prints the output log as push events arrive until interrupted. start,
// if set, runs once after the first successful connect. With untilDone set,
// follow returns after execution_complete.
func follow(ctx context.Context, ctrl *ui.Controller, untilDone bool, start func() error) error {
	url, err := cfg.PushURL()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	printed := 0
	flush := func() {
		mu.Lock()
		printed = printOutput(ctrl, printed)
		mu.Unlock()
	}

	poll := poller.New(logger, ctrl.PollJobs(cfg.StatusInterval(), cfg.StatsInterval())...)
	poll.Start()
	defer poll.Stop()

	var once sync.Once
	startErr := make(chan error, 1)

	sub := push.NewSubscriber(url, cfg.ReconnectDelay(), logger)
	err = sub.Run(ctx, func(evt push.Event) {
		parts := ctrl.ApplyEvent(evt)
		flush()

		if evt.Name == push.EventConnect && start != nil {
			once.Do(func() {
				go func() {
					if err := start(); err != nil {
						startErr <- err
						cancel()
					}
					flush()
				}()
			})
		}
		if evt.Name == push.EventExecutionComplete && untilDone {
			cancel()
			return
		}
		if len(parts) > 0 {
			go ctrl.RefreshAll(ctx, parts...)
		}
	})

	select {
	case err := <-startErr:
		return err
	default:
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
