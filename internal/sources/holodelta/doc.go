// Package holodelta links illustrations to the artwork indexes of the
// holoDelta simulator.
//
// The simulator ships a SQLite database (read with modernc.org/sqlite) whose
// cardHasArt table stores one image per card number and art index. Both the
// simulator art and the stored illustration images are shrunk to a small
// thumbnail and compared pixel by pixel, tolerating a one pixel shift. Pairs
// are then handed to match.CoAssign so each illustration receives at most one
// art index.
package holodelta
