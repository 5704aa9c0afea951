// Package artwork keeps the image trees in step with the card database.
//
// Downloader refreshes official artwork: a HEAD request compares
// Last-Modified with the stored img_last_modified and only changed images are
// fetched, decoded, saved under their img_path and fingerprinted. Zip packs an
// image tree for distribution and Collect removes files no illustration
// references.
package artwork
