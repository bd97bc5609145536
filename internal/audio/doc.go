// Package audio accumulates raw PCM16 per participant into fixed-duration
// windows and wraps completed windows into WAV containers for classification.
package audio
