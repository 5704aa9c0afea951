// Package reconcile runs source batches through the matcher and the merger.
//
// A batch is split per card number. Each card is handled by one worker:
// its images are hashed outside the store lock, then matched, placed and
// merged inside a single linked store update, so identifier moves between
// cards stay atomic. The curated override pass runs once every card is done.
// Bad records are reported per item and never stop the batch.
package reconcile
