// Package official records illustrator credits from the official card list.
//
// Credits are supplied by a Lister (a JSON or YAML file in practice) and are
// keyed by the Japanese manage_id the official site uses for its card pages.
// A credit with an empty illustrator is stored as known-empty so the page is
// not looked up again, and illustrations that already carry a credit are
// left alone.
package official
