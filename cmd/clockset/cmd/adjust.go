/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/facebook/clockset/clock"
	"github.com/facebook/clockset/session"
	"github.com/facebook/clockset/stats"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var (
	adjustForce   bool
	adjustLogFile string
)

// runAdjust runs interactive session and monitoring server until the session ends.
// UI owns the terminal meanwhile, so logs go to logOut.
func runAdjust(ctx context.Context, cfg *Config, s *session.Session, st *stats.Stats, logOut io.Writer, opts ...tea.ProgramOption) (adjustModel, error) {
	logger := log.StandardLogger()
	prevOut := logger.Out
	logger.SetOutput(logOut)
	defer logger.SetOutput(prevOut)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.MonitoringPort != 0 {
		g.Go(func() error {
			return st.Serve(ctx, cfg.MonitoringPort)
		})
	}

	var final adjustModel
	g.Go(func() error {
		defer cancel()
		opts = append(opts, tea.WithContext(ctx))
		m, err := tea.NewProgram(newAdjustModel(ctx, s, cfg.Server), opts...).Run()
		if fm, ok := m.(adjustModel); ok {
			final = fm
		}
		return err
	})

	err := g.Wait()
	return final, err
}

func init() {
	RootCmd.AddCommand(adjustCmd)
	adjustCmd.Flags().BoolVarP(&adjustForce, "force", "f", false, "start even if automatic time sync is enabled")
	adjustCmd.Flags().IntVar(&flags.monitoringPort, "monitoringport", 0, "port to serve stats on, 0 to disable")
	adjustCmd.Flags().BoolVar(&flags.exitOnCommit, "exit-on-commit", false, "end session after the clock is set")
	adjustCmd.Flags().StringVar(&adjustLogFile, "logfile", "", "write logs to this file while the session runs, discarded if empty")
}

var adjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Interactively adjust system time by days and hours",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			log.Fatal("adjust needs an interactive terminal")
		}
		cfg, err := loadConfig(c)
		if err != nil {
			log.Fatal(err)
		}
		loc, err := cfg.Location()
		if err != nil {
			log.Fatal(err)
		}
		autoSync, err := clock.NewAutoSync(cfg.AutoSync)
		if err != nil {
			log.Fatal(err)
		}
		if enabled, err := autoSync.Enabled(c.Context()); err != nil {
			log.Warningf("failed to check automatic time sync: %v", err)
		} else if enabled && !adjustForce {
			fmt.Printf("%s automatic time sync is enabled, the clock is managed by the system (use --force to override)\n", warnString)
			return
		}

		st := stats.NewStats()
		ntpClient, err := newClient(cfg, st)
		if err != nil {
			log.Fatal(err)
		}
		sysClock := clock.SysClock{}
		s := session.New(session.Config{ExitOnCommit: cfg.ExitOnCommit, Location: loc}, sysClock.Now(), sysClock, ntpClient, st)

		var logOut io.Writer = io.Discard
		if adjustLogFile != "" {
			f, err := os.OpenFile(adjustLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()
			logOut = f
		}
		final, err := runAdjust(c.Context(), cfg, s, st, logOut)
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.Fatal(err)
		}
		commits := 0
		for _, r := range final.reports {
			if r.Committed {
				commits++
			}
		}
		switch {
		case commits > 0:
			fmt.Printf("%s clock set %d time(s), last to %s\n", okString, commits, s.Base().Format(candidateLayout))
		default:
			fmt.Printf("%s clock left untouched\n", warnString)
		}
	},
}
