package services

import (
	"fmt"
	"net/url"
)

var (
	imageBaseURL string
	audioBaseURL string
)

var allowedImageSizes = map[int]bool{256: true, 512: true, 768: true, 1024: true}

var allowedVoices = map[string]bool{
	"alloy": true, "echo": true, "fable": true,
	"nova": true, "onyx": true, "shimmer": true,
}

// InitGeneration wires the URL-based image/audio provider endpoints from
// config.
func InitGeneration(imageBase, audioBase string) {
	imageBaseURL = imageBase
	audioBaseURL = audioBase
}

// BuildImageURL validates the requested dimensions and returns the provider
// URL the client fetches directly. No inference happens server-side.
func BuildImageURL(prompt string, width, height int) (string, error) {
	if width == 0 {
		width = 512
	}
	if height == 0 {
		height = 512
	}
	if !allowedImageSizes[width] || !allowedImageSizes[height] {
		return "", validationError("width and height must be one of 256, 512, 768, 1024")
	}
	return fmt.Sprintf("%s/%s?width=%d&height=%d", imageBaseURL, url.PathEscape(prompt), width, height), nil
}

// BuildAudioURL validates the voice and returns the provider URL for a
// text-to-speech rendition of the prompt.
func BuildAudioURL(prompt, voice string) (string, error) {
	if voice == "" {
		voice = "alloy"
	}
	if !allowedVoices[voice] {
		return "", validationError("unknown voice %q", voice)
	}
	return fmt.Sprintf("%s/%s?model=openai-audio&voice=%s", audioBaseURL, url.PathEscape(prompt), url.QueryEscape(voice)), nil
}
