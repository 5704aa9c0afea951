// Package model defines the canonical card database: cards, their artwork
// illustrations and the normalized observation records that source adapters
// hand to the reconciliation engine.
//
// Scalars that distinguish "not yet observed" from "observed as empty" are
// wrapped in Field. Localized text keeps one optional value per language.
// The JSON encoding of every type round-trips losslessly, including the
// order of a card's illustrations.
package model
