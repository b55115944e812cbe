package action

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		ext      string
		wantType string
		wantPrio string
	}{
		{".pdf", "document_review", "medium"},
		{".doc", "document_review", "medium"},
		{".docx", "document_review", "medium"},
		{".jpg", "image_review", "low"},
		{".png", "image_review", "low"},
		{".gif", "image_review", "low"},
		{".csv", "data_analysis", "high"},
		{".xlsx", "data_analysis", "high"},
		{".txt", "general_file", "medium"},
		{".zip", "general_file", "medium"},
		{"", "general_file", "medium"},
		{".PDF", "document_review", "medium"},
		{"csv", "data_analysis", "high"},
	}

	for _, tt := range tests {
		got := Classify(tt.ext)
		if got.Type != tt.wantType {
			t.Errorf("Classify(%q).Type = %q, want %q", tt.ext, got.Type, tt.wantType)
		}
		if got.Priority != tt.wantPrio {
			t.Errorf("Classify(%q).Priority = %q, want %q", tt.ext, got.Priority, tt.wantPrio)
		}
	}
}
