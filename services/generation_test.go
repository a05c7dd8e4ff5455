package services

import (
	"errors"
	"testing"
)

func TestBuildImageURL(t *testing.T) {
	InitGeneration("https://image.example/prompt", "https://audio.example/prompt")

	t.Run("defaults", func(t *testing.T) {
		got, err := BuildImageURL("a red fox", 0, 0)
		if err != nil {
			t.Fatalf("BuildImageURL() error = %v", err)
		}
		want := "https://image.example/prompt/a%20red%20fox?width=512&height=512"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("explicit size", func(t *testing.T) {
		got, err := BuildImageURL("fox", 1024, 768)
		if err != nil {
			t.Fatalf("BuildImageURL() error = %v", err)
		}
		want := "https://image.example/prompt/fox?width=1024&height=768"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("rejects odd sizes", func(t *testing.T) {
		if _, err := BuildImageURL("fox", 500, 512); !errors.Is(err, ErrValidation) {
			t.Errorf("got %v, want a validation error", err)
		}
	})
}

func TestBuildAudioURL(t *testing.T) {
	InitGeneration("https://image.example/prompt", "https://audio.example/prompt")

	t.Run("default voice", func(t *testing.T) {
		got, err := BuildAudioURL("hello world", "")
		if err != nil {
			t.Fatalf("BuildAudioURL() error = %v", err)
		}
		want := "https://audio.example/prompt/hello%20world?model=openai-audio&voice=alloy"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("named voice", func(t *testing.T) {
		got, err := BuildAudioURL("hi", "shimmer")
		if err != nil {
			t.Fatalf("BuildAudioURL() error = %v", err)
		}
		want := "https://audio.example/prompt/hi?model=openai-audio&voice=shimmer"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("rejects unknown voice", func(t *testing.T) {
		if _, err := BuildAudioURL("hi", "hal9000"); !errors.Is(err, ErrValidation) {
			t.Errorf("got %v, want a validation error", err)
		}
	})
}
