// Package match pairs newly observed artwork with the illustration slots of a
// card. Assign performs the identifier bind, eligibility, tolerance gate and
// greedy assignment; CoAssign is the many-to-one helper used by passes that
// attach third-party references to existing illustrations.
package match
