// Package sources defines the adapter contract for upstream card data and
// the shared pieces the adapters use: a paced HTTP client with retries and
// the error markers used to classify failures.
//
// Adapters live in sub-packages (decklog, sheet, holodelta, yuyutei, official). Each
// maps its own format into model observations; none of them touches the card
// store directly except the enrichment passes, which run after the engine.
package sources
