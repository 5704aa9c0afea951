// Package yuyutei pairs marketplace sell pages with illustrations.
//
// Listings are supplied by a Lister (a JSON file in practice). Quick mode is
// meant for routine updates and only fills illustrations without a URL.
// Image mode rebuilds every URL: listings of the same card number and rarity
// are compared to the stored fingerprints and assigned with match.CoAssign at
// zero tolerance.
package yuyutei
