package action

import "strings"

// Classification pairs an action type with its execution priority.
type Classification struct {
	Type     string
	Priority string
}

// Classify maps a file extension to an action classification. Unknown
// extensions fall through to general_file at medium priority.
func Classify(ext string) Classification {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf", "doc", "docx":
		return Classification{Type: "document_review", Priority: "medium"}
	case "jpg", "png", "gif":
		return Classification{Type: "image_review", Priority: "low"}
	case "csv", "xlsx":
		return Classification{Type: "data_analysis", Priority: "high"}
	default:
		return Classification{Type: "general_file", Priority: "medium"}
	}
}
