package inbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/store"
)

const messageExt = ".json"

// Store keeps one JSON file per message in dir.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir. The directory is created lazily on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the directory holding message files.
func (s *Store) Dir() string { return s.dir }

// Add persists msg as a new undelivered message and returns it with its
// generated id and timestamp.
func (s *Store) Add(msg Message) (Message, error) {
	if strings.TrimSpace(msg.Type) == "" {
		return Message{}, errors.NewStructuralError(errors.CodeMissingField, "inbox: message type is required").WithField("type")
	}
	if strings.TrimSpace(msg.Detail) == "" {
		return Message{}, errors.NewStructuralError(errors.CodeMissingField, "inbox: message detail is required").WithField("detail")
	}
	if msg.Priority == "" {
		msg.Priority = PriorityNormal
	}
	if !msg.Priority.Valid() {
		_, err := ParsePriority(string(msg.Priority))
		return Message{}, err
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}
	msg.ID = generateID(msg.Timestamp)
	msg.Delivered = false
	msg.DeliveredAt = nil

	if err := s.write(msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Get reads one message.
func (s *Store) Get(id string) (Message, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return Message{}, errors.NewNotFoundError("message", id)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Message{}, errors.NewNotFoundError("message", id)
		}
		return Message{}, errors.NewIOError("read", s.path(id), err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, errors.NewIOError("decode", s.path(id), err)
	}
	return msg, nil
}

// List returns messages matching opts, critical first, then oldest first.
// Unreadable files are skipped.
func (s *Store) List(opts ListOptions) ([]Message, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Message{}, nil
		}
		return nil, errors.NewIOError("list", s.dir, err)
	}

	messages := []Message{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "msg-") || filepath.Ext(name) != messageExt {
			continue
		}
		msg, err := s.Get(strings.TrimSuffix(name, messageExt))
		if err != nil {
			continue
		}
		if opts.UndeliveredOnly && msg.Delivered {
			continue
		}
		if opts.Priority != "" && msg.Priority != opts.Priority {
			continue
		}
		messages = append(messages, msg)
	}
	sortMessages(messages)
	return messages, nil
}

// Deliver marks each id delivered. Missing ids are collected rather than
// aborting, so one bad id does not block the rest.
func (s *Store) Deliver(ids ...string) (DeliverResult, error) {
	res := DeliverResult{Delivered: []string{}}
	now := s.now().UTC()
	for _, id := range ids {
		msg, err := s.Get(id)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				res.NotFound = append(res.NotFound, id)
				continue
			}
			return res, err
		}
		if msg.Delivered {
			res.AlreadyDelivered = append(res.AlreadyDelivered, id)
			continue
		}
		msg.Delivered = true
		msg.DeliveredAt = &now
		if err := s.write(msg); err != nil {
			return res, err
		}
		res.Delivered = append(res.Delivered, id)
	}
	return res, nil
}

// Clear removes delivered messages, or every message with ClearAll, and
// returns the removed ids.
func (s *Store) Clear(mode ClearMode) ([]string, error) {
	messages, err := s.List(ListOptions{})
	if err != nil {
		return nil, err
	}
	removed := []string{}
	for _, msg := range messages {
		if mode != ClearAll && !msg.Delivered {
			continue
		}
		if err := os.Remove(s.path(msg.ID)); err != nil && !os.IsNotExist(err) {
			return removed, errors.NewIOError("remove", s.path(msg.ID), err)
		}
		removed = append(removed, msg.ID)
	}
	return removed, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+messageExt)
}

func (s *Store) write(msg Message) error {
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("inbox: marshal message: %w", err)
	}
	return store.WriteFileAtomic(s.path(msg.ID), append(data, '\n'), 0o644)
}

// generateID produces "msg-<unixnano>-<8 hex>". The timestamp prefix keeps
// file names roughly chronological; the uuid fragment makes them unique
// across processes.
func generateID(t time.Time) string {
	return fmt.Sprintf("msg-%d-%s", t.UnixNano(), uuid.NewString()[:8])
}

// sortMessages orders by priority, then timestamp, then id.
func sortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		pi, pj := priorityRank[msgs[i].Priority], priorityRank[msgs[j].Priority]
		if pi != pj {
			return pi < pj
		}
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
