package utils

import "testing"

func TestValidEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.domain.co",
		"UPPER_case-99@example.io",
	}
	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false, want true", e)
		}
	}

	invalid := []string{
		"",
		"plainaddress",
		"@no-local.com",
		"user@",
		"user@no-tld",
		"user @example.com",
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true, want false", e)
		}
	}
}

func TestIsDisposableEmail(t *testing.T) {
	SetDisposableDomains([]string{"mailinator.com", " TempMail.com "})

	if !IsDisposableEmail("throwaway@mailinator.com") {
		t.Error("blocked domain not detected")
	}
	if !IsDisposableEmail("x@TEMPMAIL.COM") {
		t.Error("blocklist must match case-insensitively")
	}
	if IsDisposableEmail("user@example.com") {
		t.Error("regular domain flagged as disposable")
	}
	if IsDisposableEmail("no-at-sign") {
		t.Error("malformed address flagged as disposable")
	}
}

func TestExtractNameFromEmail(t *testing.T) {
	if got := ExtractNameFromEmail("alice@example.com"); got != "alice" {
		t.Errorf("got %q, want alice", got)
	}
	if got := ExtractNameFromEmail("no-at-sign"); got != "no-at-sign" {
		t.Errorf("got %q, want the input unchanged", got)
	}
}
