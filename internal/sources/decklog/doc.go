// Package decklog reads card records from the official deck-building site.
//
// The search endpoint is paged per deck type (N, OSHI, YELL). Each result
// becomes a Japanese observation and, when it carries a manage_id, an image
// reference without bytes that the engine places by identifier. The API sends
// numbers as either JSON numbers or strings, so those fields decode through a
// tolerant type.
package decklog
