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
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/facebook/clockset/session"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	candidateStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const candidateLayout = "Mon 2006-01-02 15:04:05 MST"

// keyToEvent maps pressed key to a session event
func keyToEvent(key string) (session.Event, bool) {
	switch key {
	case "up", "k":
		return session.Up, true
	case "down", "j":
		return session.Down, true
	case "left", "h":
		return session.Left, true
	case "right", "l":
		return session.Right, true
	case "enter", "a":
		return session.Confirm, true
	case "n", "r":
		return session.ResetToNetwork, true
	case "q", "+", "esc", "ctrl+c":
		return session.Quit, true
	}
	return 0, false
}

// adjustModel drives a session from key presses.
// Bubbletea delivers one KeyMsg per press, so every press is exactly one event.
type adjustModel struct {
	ctx     context.Context
	session *session.Session
	server  string
	reports []session.Report
}

func newAdjustModel(ctx context.Context, s *session.Session, server string) adjustModel {
	return adjustModel{ctx: ctx, session: s, server: server}
}

func (m adjustModel) Init() tea.Cmd {
	return nil
}

func (m adjustModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	ev, ok := keyToEvent(keyMsg.String())
	if !ok {
		return m, nil
	}
	// network fetch blocks the loop until reply or timeout
	r, _ := m.session.Handle(m.ctx, ev)
	m.reports = append(m.reports, r)
	if m.session.Closed() {
		return m, tea.Quit
	}
	return m, nil
}

func (m adjustModel) lastReport() *session.Report {
	if len(m.reports) == 0 {
		return nil
	}
	return &m.reports[len(m.reports)-1]
}

func describeReport(r *session.Report) string {
	if r == nil {
		return ""
	}
	if r.Err != nil {
		return errStyle.Render(fmt.Sprintf("%s failed: %v", r.Event, r.Err))
	}
	if !r.Committed {
		return ""
	}
	if r.Network != nil {
		return okStyle.Render(fmt.Sprintf("clock set to %s from %v", r.Candidate.Format(time.RFC3339), r.Network.Addr))
	}
	return okStyle.Render(fmt.Sprintf("clock set to %s", r.Candidate.Format(time.RFC3339)))
}

func (m adjustModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("clockset") + "\n\n")
	b.WriteString(candidateStyle.Render(m.session.Candidate().Format(candidateLayout)) + "\n")
	if d, h := m.session.PendingDays(), m.session.PendingHours(); d != 0 || h != 0 {
		b.WriteString(fmt.Sprintf("pending: %+dd %+dh\n", d, h))
	}
	b.WriteString(fmt.Sprintf("state: %s\n", m.session.State()))
	if s := describeReport(m.lastReport()); s != "" {
		b.WriteString(s + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(fmt.Sprintf(
		"←/→ day  ↑/↓ hour  enter: set  n: set from %s  q: quit", m.server,
	)) + "\n")
	return b.String()
}
