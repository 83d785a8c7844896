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

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/facebook/clockset/ntp/client"
)

// State of the session
type State int

// Session states
const (
	Idle State = iota
	Adjusting
	Committing
	Committed
	Abandoned
)

var stateToString = map[State]string{
	Idle:       "IDLE",
	Adjusting:  "ADJUSTING",
	Committing: "COMMITTING",
	Committed:  "COMMITTED",
	Abandoned:  "ABANDONED",
}

func (s State) String() string {
	if str, ok := stateToString[s]; ok {
		return str
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// Event is an abstract user input
type Event int

// Events, arrows move the candidate by one hour (up/down) or one day (right/left)
const (
	Up Event = iota
	Down
	Left
	Right
	Confirm
	ResetToNetwork
	Quit
)

var eventToString = map[Event]string{
	Up:             "UP",
	Down:           "DOWN",
	Left:           "LEFT",
	Right:          "RIGHT",
	Confirm:        "CONFIRM",
	ResetToNetwork: "RESET_TO_NETWORK",
	Quit:           "QUIT",
}

func (e Event) String() string {
	if str, ok := eventToString[e]; ok {
		return str
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(e))
}

// Report describes outcome of handling one event
type Report struct {
	Event     Event
	State     State
	Candidate time.Time
	// Committed is true when the clock was set while handling the event
	Committed bool
	// Network is set when network time was fetched
	Network *client.Result
	Err     error
}

// Handle applies event to the session. Returned error is also stored in the Report.
func (s *Session) Handle(ctx context.Context, ev Event) (Report, error) {
	var err error
	r := Report{Event: ev}
	switch ev {
	case Up:
		err = s.AdjustHour(1)
	case Down:
		err = s.AdjustHour(-1)
	case Right:
		err = s.AdjustDay(1)
	case Left:
		err = s.AdjustDay(-1)
	case Confirm:
		err = s.ConfirmLocal(ctx)
		r.Committed = err == nil
	case ResetToNetwork:
		r.Network, err = s.ConfirmFromNetwork(ctx)
		r.Committed = err == nil
	case Quit:
		if s.Closed() {
			err = ErrSessionClosed
		}
		s.Quit()
	default:
		err = fmt.Errorf("unknown event %v", ev)
	}
	r.Err = err
	r.State = s.State()
	r.Candidate = s.Candidate()
	return r, err
}
