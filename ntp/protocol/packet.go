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

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// PacketSizeBytes sets the size of NTP packet
const PacketSizeBytes = 48

// Port is the well-known NTP port
const Port = 123

// ErrMalformedReply is returned when reply can't be used as NTP server response
var ErrMalformedReply = errors.New("malformed ntp reply")

// Packet is an NTPv4 packet
/*
http://seriot.ch/ntp.php
https://tools.ietf.org/html/rfc5905
   0                   1                   2                   3
   0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
0 +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |LI | VN  |Mode |    Stratum     |     Poll      |  Precision   |
4 +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                         Root Delay                            |
8 +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                         Root Dispersion                       |
12+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                          Reference ID                         |
16+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                                                               |
  +                     Reference Timestamp (64)                  +
  |                                                               |
24+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                                                               |
  +                      Origin Timestamp (64)                    +
  |                                                               |
32+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                                                               |
  +                      Receive Timestamp (64)                   +
  |                                                               |
40+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                                                               |
  +                      Transmit Timestamp (64)                  +
  |                                                               |
48+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

 0 1 2 3 4 5 6 7
+-+-+-+-+-+-+-+-+
|LI | VN  |Mode |
+-+-+-+-+-+-+-+-+
 0 0 1 0 0 0 1 1

Setting = LI | VN  |Mode. Client request we send:
00 100 011 (or 0x23)
|  |   +-- client mode (3)
|  + ----- version (4)
+ -------- leap indicator, 0 no warning
*/
type Packet struct {
	Settings       uint8  // leap indicator, version number and mode
	Stratum        uint8  // stratum
	Poll           int8   // poll. Power of 2
	Precision      int8   // precision. Power of 2
	RootDelay      uint32 // total delay to the reference clock
	RootDispersion uint32 // total dispersion to the reference clock
	ReferenceID    uint32 // identifier of server or a reference clock
	RefTimeSec     uint32 // last time local clock was updated sec
	RefTimeFrac    uint32 // last time local clock was updated frac
	OrigTimeSec    uint32 // client time sec
	OrigTimeFrac   uint32 // client time frac
	RxTimeSec      uint32 // receive time sec
	RxTimeFrac     uint32 // receive time frac
	TxTimeSec      uint32 // transmit time sec
	TxTimeFrac     uint32 // transmit time frac
}

// masks and shifts of the Settings octet
const (
	LIMask    uint8 = 0xC0
	VNMask    uint8 = 0x38
	ModeMask  uint8 = 0x07
	liShift         = 6
	vnShift         = 3
	modeShift       = 0
)

// leap indicator values
const (
	LINoWarning      uint8 = 0
	LIAlarmCondition uint8 = 3
)

// Version is the NTP version we speak
const Version uint8 = 4

// modes we care about
const (
	ModeClient uint8 = 3
	ModeServer uint8 = 4
)

// NewSettings packs leap indicator, version and mode into a single octet
func NewSettings(li, vn, mode uint8) uint8 {
	return (li<<liShift)&LIMask | (vn<<vnShift)&VNMask | (mode<<modeShift)&ModeMask
}

// LeapIndicator returns LI part of the Settings
func (p *Packet) LeapIndicator() uint8 {
	return (p.Settings & LIMask) >> liShift
}

// Version returns VN part of the Settings
func (p *Packet) Version() uint8 {
	return (p.Settings & VNMask) >> vnShift
}

// Mode returns Mode part of the Settings
func (p *Packet) Mode() uint8 {
	return (p.Settings & ModeMask) >> modeShift
}

// TransmitTime returns server transmit timestamp including fraction
func (p *Packet) TransmitTime() time.Time {
	return Unix(p.TxTimeSec, p.TxTimeFrac)
}

// MarshalBinary converts Packet to 48 bytes in network byte order
func (p *Packet) MarshalBinary() ([]byte, error) {
	b := make([]byte, PacketSizeBytes)
	b[0] = p.Settings
	b[1] = p.Stratum
	b[2] = byte(p.Poll)
	b[3] = byte(p.Precision)
	binary.BigEndian.PutUint32(b[4:], p.RootDelay)
	binary.BigEndian.PutUint32(b[8:], p.RootDispersion)
	binary.BigEndian.PutUint32(b[12:], p.ReferenceID)
	binary.BigEndian.PutUint32(b[16:], p.RefTimeSec)
	binary.BigEndian.PutUint32(b[20:], p.RefTimeFrac)
	binary.BigEndian.PutUint32(b[24:], p.OrigTimeSec)
	binary.BigEndian.PutUint32(b[28:], p.OrigTimeFrac)
	binary.BigEndian.PutUint32(b[32:], p.RxTimeSec)
	binary.BigEndian.PutUint32(b[36:], p.RxTimeFrac)
	binary.BigEndian.PutUint32(b[40:], p.TxTimeSec)
	binary.BigEndian.PutUint32(b[44:], p.TxTimeFrac)
	return b, nil
}

// UnmarshalBinary fills Packet from exactly 48 bytes.
// Packet is left untouched if size doesn't match.
func (p *Packet) UnmarshalBinary(b []byte) error {
	if len(b) != PacketSizeBytes {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedReply, len(b), PacketSizeBytes)
	}
	p.Settings = b[0]
	p.Stratum = b[1]
	p.Poll = int8(b[2])
	p.Precision = int8(b[3])
	p.RootDelay = binary.BigEndian.Uint32(b[4:])
	p.RootDispersion = binary.BigEndian.Uint32(b[8:])
	p.ReferenceID = binary.BigEndian.Uint32(b[12:])
	p.RefTimeSec = binary.BigEndian.Uint32(b[16:])
	p.RefTimeFrac = binary.BigEndian.Uint32(b[20:])
	p.OrigTimeSec = binary.BigEndian.Uint32(b[24:])
	p.OrigTimeFrac = binary.BigEndian.Uint32(b[28:])
	p.RxTimeSec = binary.BigEndian.Uint32(b[32:])
	p.RxTimeFrac = binary.BigEndian.Uint32(b[36:])
	p.TxTimeSec = binary.BigEndian.Uint32(b[40:])
	p.TxTimeFrac = binary.BigEndian.Uint32(b[44:])
	return nil
}

// NewRequest builds client request stamped with local time in seconds
func NewRequest(now time.Time) *Packet {
	return &Packet{
		Settings:  NewSettings(LINoWarning, Version, ModeClient),
		TxTimeSec: ToNTPEpoch(now.Unix()),
	}
}

// EncodeRequest returns wire representation of client request
func EncodeRequest(now time.Time) ([]byte, error) {
	return NewRequest(now).MarshalBinary()
}

// DecodeReply parses server reply.
// No fields are validated, see ValidateReply for that.
func DecodeReply(b []byte) (*Packet, error) {
	p := &Packet{}
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateReply checks the reply came from a server which is synchronized.
// Stratum 0 means kiss-o'-death or unsynchronized server.
func (p *Packet) ValidateReply() error {
	if m := p.Mode(); m != ModeServer {
		return fmt.Errorf("%w: mode %d is not server mode", ErrMalformedReply, m)
	}
	if p.Stratum == 0 {
		return fmt.Errorf("%w: stratum 0 (kiss-o'-death %q)", ErrMalformedReply, RefIDToString(p.ReferenceID))
	}
	return nil
}

// RefIDToString formats reference ID as 4 ASCII chars, which is how
// stratum 0 and 1 servers use it
func RefIDToString(refID uint32) string {
	b := make([]byte, 0, 4)
	for shift := 24; shift >= 0; shift -= 8 {
		c := byte(refID >> uint(shift))
		if c == 0 {
			break
		}
		if c < 0x20 || c > 0x7e {
			c = '?'
		}
		b = append(b, c)
	}
	return string(b)
}
