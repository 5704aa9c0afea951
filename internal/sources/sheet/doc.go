// Package sheet reads the community translation spreadsheet from CSV
// exports.
//
// Each card row yields an English text-only observation: the name is split
// from the "JP\n(EN)" cell and the text cell is cut into oshi skill, keyword,
// arts and extra sections, with whatever remains kept as ability text. Image
// cells are downloaded and handed to the engine as unreleased artwork, and
// are optionally saved below the "unreleased" folder of the images
// directory for their language.
package sheet
