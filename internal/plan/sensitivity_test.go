package plan

import "testing"

func TestIsSensitiveBaseKeywords(t *testing.T) {
	sensitive := []string{
		"Please review this invoice",
		"PAYMENT due on Friday",
		"wire the money today",
		"bank statement attached",
		"quarterly financial report",
		"prepayment schedule", // substring match is intentional
	}
	for _, content := range sensitive {
		if !IsSensitive(content, false) {
			t.Errorf("expected sensitive: %q", content)
		}
	}

	harmless := []string{
		"meeting notes from Tuesday",
		"photo of the whiteboard",
		"grocery list",
		"salary discussion", // extended keyword, base set must not match
		"this is urgent",
	}
	for _, content := range harmless {
		if IsSensitive(content, false) {
			t.Errorf("expected not sensitive with base set: %q", content)
		}
	}
}

func TestIsSensitiveExtendedKeywords(t *testing.T) {
	extended := []string{
		"salary discussion",
		"confidential memo",
		"keep this private",
		"sensitive subject",
		"this is urgent",
		"critical incident",
	}
	for _, content := range extended {
		if !IsSensitive(content, true) {
			t.Errorf("expected sensitive with extended set: %q", content)
		}
	}

	if IsSensitive("meeting notes from Tuesday", true) {
		t.Error("plain content must not trip the extended set")
	}
}
