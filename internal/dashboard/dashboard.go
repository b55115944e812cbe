// Package dashboard maintains Dashboard.md, the human-facing status board at
// the vault root. The file is patched in place so manual edits elsewhere in
// it survive.
package dashboard

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

const initialContent = `# VaultPilot Dashboard

**Last Update**: %s

## Quick Stats
- Pending actions: 0
- Completed today: 0
- Failed actions: 0

## Recent Activity
- %s System initialized

## Notes
Drop files into Inbox/ and they will show up here.
`

var (
	lastUpdateRe = regexp.MustCompile(`(?m)^\*\*Last Update\*\*: .*$`)
	statsRe      = regexp.MustCompile(`(?m)^- (Pending actions|Completed today|Failed actions): \d+$`)
)

// Board reads and patches one dashboard file.
type Board struct {
	path string
}

// New creates a Board over the given file path.
func New(path string) *Board {
	return &Board{path: path}
}

// Init writes the starter dashboard if none exists yet. An existing file is
// left alone.
func (b *Board) Init() error {
	if _, err := os.Stat(b.path); err == nil {
		return nil
	}
	now := time.Now()
	content := fmt.Sprintf(initialContent, now.Format("2006-01-02 15:04:05"), now.Format("15:04"))
	if err := os.WriteFile(b.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("initializing dashboard: %w", err)
	}
	return nil
}

// AppendActivity inserts a line at the top of the Recent Activity section.
// The same line is never inserted twice; the section is capped at 20 entries.
func (b *Board) AppendActivity(line string) error {
	content, err := b.read()
	if err != nil {
		return err
	}

	entry := fmt.Sprintf("- %s %s", time.Now().Format("15:04"), line)
	if strings.Contains(content, entry) {
		return nil
	}

	const header = "## Recent Activity"
	idx := strings.Index(content, header)
	if idx < 0 {
		content = strings.TrimRight(content, "\n") + "\n\n" + header + "\n" + entry + "\n"
		return b.write(content)
	}

	head := content[:idx+len(header)]
	rest := strings.TrimLeft(content[idx+len(header):], "\n")

	var entries []string
	var tail string
	for i, l := range strings.Split(rest, "\n") {
		if strings.HasPrefix(l, "- ") {
			entries = append(entries, l)
			continue
		}
		tail = strings.Join(strings.Split(rest, "\n")[i:], "\n")
		break
	}

	entries = append([]string{entry}, entries...)
	if len(entries) > 20 {
		entries = entries[:20]
	}

	content = head + "\n" + strings.Join(entries, "\n") + "\n" + tail
	return b.write(content)
}

// TouchLastUpdate patches the Last Update line to now.
func (b *Board) TouchLastUpdate() error {
	content, err := b.read()
	if err != nil {
		return err
	}
	stamp := "**Last Update**: " + time.Now().Format("2006-01-02 15:04:05")
	if !lastUpdateRe.MatchString(content) {
		return nil
	}
	return b.write(lastUpdateRe.ReplaceAllString(content, stamp))
}

// UpdateStats patches the Quick Stats counters.
func (b *Board) UpdateStats(pending, completedToday, failed int) error {
	content, err := b.read()
	if err != nil {
		return err
	}
	content = statsRe.ReplaceAllStringFunc(content, func(line string) string {
		switch {
		case strings.HasPrefix(line, "- Pending actions"):
			return fmt.Sprintf("- Pending actions: %d", pending)
		case strings.HasPrefix(line, "- Completed today"):
			return fmt.Sprintf("- Completed today: %d", completedToday)
		default:
			return fmt.Sprintf("- Failed actions: %d", failed)
		}
	})
	return b.write(content)
}

// Content returns the raw dashboard markdown.
func (b *Board) Content() (string, error) {
	return b.read()
}

func (b *Board) read() (string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return "", fmt.Errorf("reading dashboard: %w", err)
	}
	return string(data), nil
}

func (b *Board) write(content string) error {
	if err := os.WriteFile(b.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing dashboard: %w", err)
	}
	return nil
}
