// Package ui renders the station board with Bubble Tea.
//
// The program runs inline rather than in the alternate screen: the terminal
// window is the widget, and the window package resizes it to fit.
//
// # Layout
//
//	minimetars  3 stations  ALT  WIND  ATIS  saved default   <- header
//	SFO    30.12  28007KT     B                              <- board
//	  KSFO 010056Z 28007KT 10SM FEW008 13/11 A3012           <- expanded row
//	OAK    30.11  29010KT     --
//	+ KSJC  enter add / expand  ^x remove  ^g help  esc quit <- footer
//
// Header and footer are one line each. Everything between them is the body,
// and the body height is what the window is fitted to.
//
// # Data flow
//
// The model never polls. It waits on state.Store.Changes; each notification
// takes a fresh snapshot, re-renders and calls window.Sizer.Fit. Fit ignores
// repeated heights, so a burst of weather updates that does not change the
// layout never touches the window.
//
// Profile and settings commands run as tea.Cmds against backend.Client and
// report back through messages; their outcome is the only text shown in the
// header status slot.
package ui
