// Package ui provides the terminal watch view for assetgate.
//
// # Overview
//
// The watch view is a small Bubble Tea program that shows the tag the
// coordinator is serving, how the last checks went and the most recent
// version changes. It never blocks on the network: snapshots are re-read
// from memory on a one second tick and manual checks run as commands.
//
// # Layout
//
//	┌──────────────────────────────────────────────┐
//	│ assetgate  ONLINE  version v5                │  header + state badge
//	├──────────────────────────────────────────────┤
//	│ Sample URL   https://cdn/.../v5/sample.jpg   │
//	│ Last check   2026-10-19 08:30:00             │  status panel
//	│ Checks       12 ok, 1 failed, 11 unchanged   │
//	├──────────────────────────────────────────────┤
//	│ 08:29:58  v2 → v5  remote                    │  recent changes
//	├──────────────────────────────────────────────┤
//	│ r Check now • T Cycle theme • h/? • q Quit   │  footer
//	└──────────────────────────────────────────────┘
//
// # States
//
//   - online: the last check succeeded
//   - checking: no check has completed yet, or one is running
//   - degraded: the last check failed
//   - offline: two or more checks in a row failed
//
// # Keys
//
//   - r: run a check now (joins one already in flight)
//   - T: cycle theme (Nightfox, Slate); RunOptions.OnThemeChange sees the choice
//   - h, ?: toggle help
//   - q, ctrl+c: quit
package ui
