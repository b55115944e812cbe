package action

import "testing"

func TestParseRenderRoundTrip(t *testing.T) {
	rec := Record{
		Path: "/vault/Needs_Action/ACTION_report.md",
		Meta: FrontMatter{
			Type:     "data_analysis",
			Priority: "high",
			Status:   StatusPending,
			Created:  "2026-09-01T10:00:00Z",
			Source:   "report.csv",
		},
		Body:  "# Action Required: report\n",
		Valid: true,
	}

	data, err := Render(rec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	parsed := Parse(rec.Path, data)
	if !parsed.Valid {
		t.Fatal("expected rendered record to parse as valid")
	}
	if parsed.Meta != rec.Meta {
		t.Errorf("front matter: got %+v, want %+v", parsed.Meta, rec.Meta)
	}
	if parsed.Body != rec.Body {
		t.Errorf("body: got %q, want %q", parsed.Body, rec.Body)
	}
}

func TestParseMalformedFrontMatter(t *testing.T) {
	cases := map[string]string{
		"no header":   "just some text\n",
		"unclosed":    "---\ntype: x\nnever closed",
		"broken yaml": "---\ntype: [unbalanced\n---\nbody",
		"empty file":  "",
		"header only": "---",
	}

	for name, content := range cases {
		rec := Parse("/x/ACTION_test.md", []byte(content))
		if rec.Valid {
			t.Errorf("%s: expected invalid front matter", name)
		}
		if rec.Body != content {
			t.Errorf("%s: body should be the raw content", name)
		}
	}
}

func TestTransition(t *testing.T) {
	valid := []struct{ from, to Status }{
		{StatusPending, StatusProcessing},
		{StatusProcessing, StatusDone},
		{StatusProcessing, StatusFailed},
	}
	for _, tt := range valid {
		got, err := Transition(tt.from, tt.to)
		if err != nil {
			t.Errorf("Transition(%s, %s) unexpected error: %v", tt.from, tt.to, err)
		}
		if got != tt.to {
			t.Errorf("Transition(%s, %s) = %s", tt.from, tt.to, got)
		}
	}

	invalid := []struct{ from, to Status }{
		{StatusPending, StatusDone},
		{StatusDone, StatusPending},
		{StatusDone, StatusProcessing},
		{StatusFailed, StatusProcessing},
		{StatusFailed, StatusDone},
	}
	for _, tt := range invalid {
		got, err := Transition(tt.from, tt.to)
		if err == nil {
			t.Errorf("Transition(%s, %s) should fail", tt.from, tt.to)
		}
		if got != tt.from {
			t.Errorf("failed transition should keep %s, got %s", tt.from, got)
		}
	}
}

func TestRecordChannel(t *testing.T) {
	tests := map[string]string{
		"/v/Needs_Action/ACTION_x.md":   "inbox",
		"/v/Needs_Action/EMAIL_x.md":    "email",
		"/v/Needs_Action/WHATSAPP_x.md": "whatsapp",
		"/v/Needs_Action/LINKEDIN_x.md": "linkedin",
	}
	for path, want := range tests {
		if got := (Record{Path: path}).Channel(); got != want {
			t.Errorf("Channel(%s) = %q, want %q", path, got, want)
		}
	}
}

func TestHasActionPrefix(t *testing.T) {
	if !HasActionPrefix("ACTION_report.md") || !HasActionPrefix("EMAIL_hi.md") {
		t.Error("expected recognized prefixes to match")
	}
	if HasActionPrefix("notes.md") || HasActionPrefix("PLAN_x.md") {
		t.Error("expected unrecognized prefixes to be rejected")
	}
}
