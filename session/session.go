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

/*
Package session implements interactive adjustment of the system time.

A Session holds a candidate time built from a base point plus pending day and
hour deltas. Candidate is always derived with Normalize, so it is consistent
with the deltas at any moment. Confirming commits the candidate to the clock,
resetting fetches network time first and commits that instead.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebook/clockset/ntp/client"
	log "github.com/sirupsen/logrus"
)

// Errors reported by the session
var (
	ErrClockSetFailed = errors.New("failed to set clock")
	ErrSessionClosed  = errors.New("session is closed")
)

// counters
const (
	counterCommits        = "session.commits"
	counterCommitErrors   = "session.commit_errors"
	counterNetworkErrors  = "session.network_errors"
	counterNetworkCommits = "session.network_commits"
)

// Clock is where committed time goes
type Clock interface {
	Set(t time.Time) error
}

// Fetcher gets time from the network
type Fetcher interface {
	FetchNetworkTime(ctx context.Context) (*client.Result, error)
}

// Stats is a metric collection interface
type Stats interface {
	UpdateCounterBy(key string, count int64)
}

type noopStats struct{}

func (noopStats) UpdateCounterBy(string, int64) {}

// Config specifies session behaviour
type Config struct {
	// ExitOnCommit makes first successful commit terminal
	ExitOnCommit bool
	// Location is used for calendar arithmetic, local time if nil
	Location *time.Location
}

// Session is a single time adjustment session. It is not safe for concurrent use.
type Session struct {
	cfg     Config
	clock   Clock
	fetcher Fetcher
	stats   Stats

	base  time.Time
	days  int
	hours int
	state State
}

// New creates a session starting from initial time
func New(cfg Config, initial time.Time, clk Clock, fetcher Fetcher, stats Stats) *Session {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if stats == nil {
		stats = noopStats{}
	}
	return &Session{
		cfg:     cfg,
		clock:   clk,
		fetcher: fetcher,
		stats:   stats,
		base:    initial.In(cfg.Location),
		state:   Idle,
	}
}

// Normalize applies day and hour deltas to base using calendar arithmetic.
// Days move the wall clock in base's location (AddDate), so a day keeps the
// time of day across a DST change. Hours are elapsed time, so across a
// DST change 24 hours and one day land on different wall clock times.
func Normalize(base time.Time, days, hours int) time.Time {
	return base.AddDate(0, 0, days).Add(time.Duration(hours) * time.Hour)
}

// State returns current session state
func (s *Session) State() State {
	return s.state
}

// Base returns the point deltas are applied against
func (s *Session) Base() time.Time {
	return s.base
}

// PendingDays returns accumulated day delta
func (s *Session) PendingDays() int {
	return s.days
}

// PendingHours returns accumulated hour delta
func (s *Session) PendingHours() int {
	return s.hours
}

// Candidate returns time which will be committed on confirm
func (s *Session) Candidate() time.Time {
	return Normalize(s.base, s.days, s.hours)
}

// Closed is true once session reached a terminal state
func (s *Session) Closed() bool {
	return s.state == Committed || s.state == Abandoned
}

// AdjustDay moves candidate by n days
func (s *Session) AdjustDay(n int) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	s.days += n
	s.state = Adjusting
	log.Debugf("pending delta %dd %dh, candidate %s", s.days, s.hours, s.Candidate())
	return nil
}

// AdjustHour moves candidate by n hours
func (s *Session) AdjustHour(n int) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	s.hours += n
	s.state = Adjusting
	log.Debugf("pending delta %dd %dh, candidate %s", s.days, s.hours, s.Candidate())
	return nil
}

// ConfirmLocal commits the candidate to the clock
func (s *Session) ConfirmLocal(ctx context.Context) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit()
}

// ConfirmFromNetwork fetches network time and commits it.
// If the fetch fails candidate and deltas stay as they were.
func (s *Session) ConfirmFromNetwork(ctx context.Context) (*client.Result, error) {
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	res, err := s.fetcher.FetchNetworkTime(ctx)
	if err != nil {
		s.stats.UpdateCounterBy(counterNetworkErrors, 1)
		s.state = Adjusting
		log.Warningf("failed to fetch network time: %v", err)
		return nil, err
	}
	s.base = res.Time.In(s.cfg.Location)
	s.days, s.hours = 0, 0
	if err := s.commit(); err != nil {
		return res, err
	}
	s.stats.UpdateCounterBy(counterNetworkCommits, 1)
	return res, nil
}

// Quit abandons the session without committing
func (s *Session) Quit() {
	if s.Closed() {
		return
	}
	log.Debugf("session abandoned with candidate %s", s.Candidate())
	s.state = Abandoned
}

func (s *Session) commit() error {
	candidate := s.Candidate()
	s.state = Committing
	if err := s.clock.Set(candidate); err != nil {
		s.stats.UpdateCounterBy(counterCommitErrors, 1)
		s.state = Idle
		return fmt.Errorf("%w: %w", ErrClockSetFailed, err)
	}
	s.stats.UpdateCounterBy(counterCommits, 1)
	log.Infof("clock set to %s", candidate.Format(time.RFC3339))
	s.base = candidate
	s.days, s.hours = 0, 0
	s.state = Idle
	if s.cfg.ExitOnCommit {
		s.state = Committed
	}
	return nil
}
