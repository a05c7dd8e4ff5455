package services

import (
	"errors"
	"testing"

	"promptarena/models"
	"promptarena/structs"
)

func TestConvertMessages(t *testing.T) {
	msgs, err := convertMessages([]structs.MessageInput{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello", Model: "gemini-2.5-flash", Type: models.TypeText},
		{Role: models.RoleAssistant, Type: models.TypeImage, ImageURL: "https://img.example/x.png"},
	})
	if err != nil {
		t.Fatalf("convertMessages() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, m := range msgs {
		if m.Timestamp.IsZero() {
			t.Errorf("message %d: timestamp not stamped", i)
		}
	}
	if msgs[2].ImageURL != "https://img.example/x.png" {
		t.Errorf("imageUrl not carried: %+v", msgs[2])
	}
}

func TestConvertMessagesRejections(t *testing.T) {
	tests := []struct {
		name  string
		input structs.MessageInput
	}{
		{"bad role", structs.MessageInput{Role: "system", Content: "x"}},
		{"bad type", structs.MessageInput{Role: models.RoleUser, Type: "video"}},
		{"both urls", structs.MessageInput{
			Role: models.RoleAssistant, Type: models.TypeImage,
			ImageURL: "https://a", AudioURL: "https://b",
		}},
		{"imageUrl without image type", structs.MessageInput{
			Role: models.RoleAssistant, Type: models.TypeText, ImageURL: "https://a",
		}},
		{"audioUrl without audio type", structs.MessageInput{
			Role: models.RoleAssistant, Type: models.TypeText, AudioURL: "https://a",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convertMessages([]structs.MessageInput{tt.input})
			if !errors.Is(err, ErrValidation) {
				t.Errorf("got %v, want a validation error", err)
			}
		})
	}
}

func TestValidateType(t *testing.T) {
	for _, ok := range []string{models.TypeText, models.TypeImage, models.TypeAudio} {
		if err := validateType(ok); err != nil {
			t.Errorf("validateType(%q) = %v, want nil", ok, err)
		}
	}
	if err := validateType("video"); !errors.Is(err, ErrValidation) {
		t.Errorf("validateType(video) = %v, want a validation error", err)
	}
}
