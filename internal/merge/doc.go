// Package merge folds normalized source observations into canonical card
// records.
//
// Scalar fields are first-writer-wins once a card is released; later sources
// can only raise warnings. Collections (oshi skills, keywords, arts, tags,
// extra) are merged positionally, either replacing only one language's text
// or replacing the structure while carrying the other language's text over.
// Warnings go to a WarningSink so the CLI can log them and write them to a
// review file. Place implements the identifier placement rule used for image
// references that come without image bytes.
package merge
