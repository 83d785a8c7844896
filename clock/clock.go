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

package clock

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrUnsupported is returned when the platform has no way to set the clock
var ErrUnsupported = errors.New("setting system clock is not supported on this platform")

// Clock reads and sets wall clock time
type Clock interface {
	Now() time.Time
	Set(t time.Time) error
}

// SysClock is the system realtime clock
type SysClock struct{}

// Now returns current system time
func (SysClock) Now() time.Time {
	return time.Now()
}

// Set sets system time to t
func (SysClock) Set(t time.Time) error {
	log.Debugf("setting system clock to %s", t.Format(time.RFC3339Nano))
	if err := settime(t); err != nil {
		return fmt.Errorf("setting system clock to %s: %w", t.Format(time.RFC3339), err)
	}
	return nil
}
