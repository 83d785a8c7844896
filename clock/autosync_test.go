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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeRunner(out string, err error) CommandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "timedatectl" || len(args) != 3 || args[0] != "show" {
			return nil, errors.New("unexpected command")
		}
		return []byte(out), err
	}
}

func TestTimedatedAutoSync(t *testing.T) {
	cases := []struct {
		out     string
		err     error
		want    bool
		wantErr bool
	}{
		{out: "yes\n", want: true},
		{out: "no\n", want: false},
		{out: "maybe\n", wantErr: true},
		{err: errors.New("no bus"), wantErr: true},
	}
	for _, tc := range cases {
		s := &TimedatedAutoSync{Run: fakeRunner(tc.out, tc.err)}
		enabled, err := s.Enabled(context.Background())
		if tc.wantErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, enabled)
	}
}

func TestStaticAutoSync(t *testing.T) {
	enabled, err := StaticAutoSync(true).Enabled(context.Background())
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestNewAutoSync(t *testing.T) {
	s, err := NewAutoSync(AutoSyncOff)
	require.NoError(t, err)
	require.Equal(t, StaticAutoSync(false), s)

	s, err = NewAutoSync(AutoSyncTimedated)
	require.NoError(t, err)
	require.IsType(t, &TimedatedAutoSync{}, s)

	s, err = NewAutoSync(AutoSyncAuto)
	require.NoError(t, err)
	require.NotNil(t, s)

	_, err = NewAutoSync("ntpdate")
	require.Error(t, err)
}

func TestSysClockNow(t *testing.T) {
	before := time.Now()
	now := SysClock{}.Now()
	require.False(t, now.Before(before))
}
