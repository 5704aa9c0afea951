// Package imagehash computes perceptual fingerprints of card artwork and the
// distance between two fingerprints.
//
// A fingerprint is four base64 channel hashes (red, green, blue, inverse
// saturation) joined by "|". Each channel hash is a 64-bit horizontal
// gradient over the low-frequency DCT block of a small resampled image.
package imagehash
