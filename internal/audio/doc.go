// Package audio plays the attention chime isled sounds when an activity asks
// for attention. It uses the beep library to play WAV, OGG and MP3 files,
// or a synthesized two-note chime when no file is configured.
package audio
