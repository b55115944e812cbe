package action

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/vaultpilot/internal/audit"
	"github.com/ziadkadry99/vaultpilot/internal/db"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
)

// ErrSourceVanished is returned when a detected payload disappears before it
// can be converted into an action. Callers skip the file and move on.
var ErrSourceVanished = errors.New("source file vanished before processing")

// Store manages action records in Needs_Action and their archival into Done.
// The directory tree is authoritative; the SQLite manifest is a queryable
// index kept in step with it.
type Store struct {
	vault *vault.Vault
	db    *db.DB
	trail *audit.Trail
}

// NewStore creates a Store. db and trail may be nil in tests that only
// exercise file behavior.
func NewStore(v *vault.Vault, database *db.DB, trail *audit.Trail) *Store {
	return &Store{vault: v, db: database, trail: trail}
}

// ListPending rescans Needs_Action and returns the action records found
// there. Only .md files with a recognized prefix count; .original. payload
// siblings and dotfiles are skipped. The scan is fresh on every call, so
// files dropped in by other processes are picked up.
func (s *Store) ListPending() ([]Record, error) {
	entries, err := os.ReadDir(s.vault.NeedsAction())
	if err != nil {
		return nil, fmt.Errorf("scanning Needs_Action: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if filepath.Ext(name) != ".md" || strings.Contains(name, ".original.") {
			continue
		}
		if !HasActionPrefix(name) {
			continue
		}

		path := filepath.Join(s.vault.NeedsAction(), name)
		raw, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		records = append(records, Parse(path, raw))
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// CreateAction converts a detected payload file into an action record: it
// writes ACTION_<stem>.md in Needs_Action, relocates the payload to an
// .original.<ext> sibling, and inserts a manifest row. A payload that
// vanished in the meantime yields ErrSourceVanished after an audit event.
func (s *Store) CreateAction(payloadPath string) (Record, error) {
	if _, err := os.Stat(payloadPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.append(audit.Event{
				EventType:   audit.EventFileDetected,
				Description: "detected file vanished before action creation",
				Actor:       audit.ActorWatcher,
				Target:      filepath.Base(payloadPath),
				Result:      audit.ResultFailed,
			})
			return Record{}, ErrSourceVanished
		}
		return Record{}, fmt.Errorf("inspecting payload: %w", err)
	}

	ext := filepath.Ext(payloadPath)
	stem := strings.TrimSuffix(filepath.Base(payloadPath), ext)
	classification := Classify(ext)

	rec := Record{
		Path:  filepath.Join(s.vault.NeedsAction(), "ACTION_"+stem+".md"),
		Meta:  NewFrontMatter(classification, filepath.Base(payloadPath)),
		Body:  actionBody(stem, classification),
		Valid: true,
	}

	content, err := Render(rec)
	if err != nil {
		return Record{}, err
	}
	if err := os.WriteFile(rec.Path, content, 0o644); err != nil {
		return Record{}, fmt.Errorf("writing action file: %w", err)
	}

	originalPath := filepath.Join(s.vault.NeedsAction(), "ACTION_"+stem+".original"+ext)
	if err := os.Rename(payloadPath, originalPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			os.Remove(rec.Path)
			s.append(audit.Event{
				EventType:   audit.EventFileDetected,
				Description: "detected file vanished during action creation",
				Actor:       audit.ActorWatcher,
				Target:      filepath.Base(payloadPath),
				Result:      audit.ResultFailed,
			})
			return Record{}, ErrSourceVanished
		}
		return Record{}, fmt.Errorf("relocating payload: %w", err)
	}

	if err := s.insertManifest(rec, filepath.Base(originalPath)); err != nil {
		return Record{}, err
	}

	s.append(audit.Event{
		EventType:   audit.EventActionCreated,
		Description: fmt.Sprintf("created %s action for %s", classification.Type, filepath.Base(payloadPath)),
		Actor:       audit.ActorSystem,
		Target:      filepath.Base(rec.Path),
		Result:      audit.ResultSuccess,
		Parameters:  map[string]any{"type": classification.Type, "priority": classification.Priority},
	})

	return rec, nil
}

// MarkProcessed moves the record to processing status and appends a
// processing-log line to its body. The file stays in Needs_Action.
func (s *Store) MarkProcessed(rec Record, note string) (Record, error) {
	status := rec.Meta.Status
	switch status {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
	default:
		// Hand-dropped files without parseable front matter carry a
		// zero-value status. They are pending work all the same.
		status = StatusPending
	}
	next, err := Transition(status, StatusProcessing)
	if err != nil {
		return rec, err
	}
	rec.Meta.Status = next

	if !strings.Contains(rec.Body, "## Processing Log") {
		rec.Body = strings.TrimRight(rec.Body, "\n") + "\n\n## Processing Log\n"
	}
	rec.Body += fmt.Sprintf("- %s %s\n", time.Now().Format("2006-01-02 15:04:05"), note)

	content, err := Render(rec)
	if err != nil {
		return rec, err
	}
	if err := os.WriteFile(rec.Path, content, 0o644); err != nil {
		return rec, fmt.Errorf("updating action file: %w", err)
	}

	s.updateManifest(rec.Path, rec.Path, StatusProcessing)
	return rec, nil
}

// Archive relocates a record and its .original. payload sibling to Done. On
// name collision the incoming file gets a timestamp suffix; an archived file
// is never overwritten. The manifest row moves to done.
func (s *Store) Archive(rec Record) (Record, error) {
	status := rec.Meta.Status
	if status == StatusPending {
		status = StatusProcessing
	}
	next, err := Transition(status, StatusDone)
	if err != nil {
		return rec, err
	}
	rec.Meta.Status = next

	content, err := Render(rec)
	if err != nil {
		return rec, err
	}
	if err := os.WriteFile(rec.Path, content, 0o644); err != nil {
		return rec, fmt.Errorf("updating action file: %w", err)
	}

	oldPath := rec.Path
	dest, err := s.archivePath(filepath.Base(rec.Path))
	if err != nil {
		return rec, err
	}
	if err := os.Rename(rec.Path, dest); err != nil {
		return rec, fmt.Errorf("archiving action: %w", err)
	}
	rec.Path = dest

	if sibling, ok := s.originalSibling(oldPath); ok {
		siblingDest, err := s.archivePath(filepath.Base(sibling))
		if err == nil {
			os.Rename(sibling, siblingDest)
		}
	}

	s.updateManifest(oldPath, rec.Path, StatusDone)

	s.append(audit.Event{
		EventType:   audit.EventActionArchived,
		Description: "archived completed action",
		Actor:       audit.ActorSystem,
		Target:      filepath.Base(rec.Path),
		Result:      audit.ResultSuccess,
	})

	return rec, nil
}

// archivePath picks a destination in Done for the given filename, appending a
// timestamp suffix when the name is taken.
func (s *Store) archivePath(name string) (string, error) {
	dest := filepath.Join(s.vault.Done(), name)
	if _, err := os.Stat(dest); errors.Is(err, fs.ErrNotExist) {
		return dest, nil
	} else if err != nil {
		return "", fmt.Errorf("checking archive destination: %w", err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	now := time.Now()
	suffixed := fmt.Sprintf("%s_%s_%09d%s", stem, now.Format("20060102_150405"), now.Nanosecond(), ext)
	return filepath.Join(s.vault.Done(), suffixed), nil
}

// originalSibling finds the ACTION file's payload sibling, if any.
func (s *Store) originalSibling(actionPath string) (string, bool) {
	stem := strings.TrimSuffix(filepath.Base(actionPath), filepath.Ext(actionPath))
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(actionPath), stem+".original.*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

func (s *Store) insertManifest(rec Record, originalName string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec(`
		INSERT INTO actions (path, type, priority, status, created, original_payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		rec.Path, rec.Meta.Type, rec.Meta.Priority, string(rec.Meta.Status),
		rec.Meta.Created, originalName, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting manifest row: %w", err)
	}
	return nil
}

func (s *Store) updateManifest(oldPath, newPath string, status Status) {
	if s.db == nil {
		return
	}
	s.db.Exec(`UPDATE actions SET path = ?, status = ?, updated_at = ? WHERE path = ?`,
		newPath, string(status), time.Now().Format(time.RFC3339), oldPath)
}

func (s *Store) append(event audit.Event) {
	if s.trail != nil {
		s.trail.Append(event)
	}
}

func actionBody(stem string, c Classification) string {
	return fmt.Sprintf(`# Action Required: %s

A new file needs review.

## Details
- **Type**: %s
- **Priority**: %s

## Suggested Steps
- [ ] Review the original file
- [ ] Decide what to do with it
- [ ] Mark this action complete
`, stem, c.Type, c.Priority)
}
