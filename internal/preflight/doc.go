// Package preflight provides readiness checks for the directories, input
// files and remote sites the hocg CLI depends on.
//
// The CLI "hocg status" command runs RunAll and prints one line per check.
// Source checks are gated by their config toggle, and network checks only run
// when requested.
package preflight
