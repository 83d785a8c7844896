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
Package protocol implements ntp packet and basic functions to work with.
It provides quick and transparent translation between 48 bytes and
simply accessible struct, and conversion between NTP and Unix epochs.
*/
package protocol

import (
	"time"
)

// EpochDelta is the number of seconds between NTP epoch (1900-01-01) and Unix epoch (1970-01-01)
const EpochDelta = int64(2208988800)

// NanosecondsToUnix is the difference between NTP and Unix epoch in NS
const NanosecondsToUnix = EpochDelta * int64(time.Second)

// ToSystemEpoch converts NTP seconds from the wire into Unix seconds.
// Arithmetic is done in int64 so values before 1970 don't wrap around.
func ToSystemEpoch(ntpSeconds uint32) int64 {
	return int64(ntpSeconds) - EpochDelta
}

// ToNTPEpoch converts Unix seconds into NTP seconds as sent on the wire
func ToNTPEpoch(systemSeconds int64) uint32 {
	return uint32(systemSeconds + EpochDelta)
}

// Time is converting Unix time to sec and frac NTP format
func Time(t time.Time) (seconds uint32, fractions uint32) {
	nsec := t.UnixNano() + NanosecondsToUnix
	sec := nsec / time.Second.Nanoseconds()
	return uint32(sec), uint32((nsec - sec*time.Second.Nanoseconds()) << 32 / time.Second.Nanoseconds())
}

// Unix is converting NTP seconds and fractions into Unix time
func Unix(seconds, fractions uint32) time.Time {
	secs := ToSystemEpoch(seconds)
	nanos := (int64(fractions) * time.Second.Nanoseconds()) >> 32 // convert fractional to nanos
	return time.Unix(secs, nanos)
}
