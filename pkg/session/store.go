package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/automerge/automerge-go"
)

// ErrRejected is returned by Store.Append when the raw input is not a valid
// contribution for the store's mode. Nothing is mutated in that case.
var ErrRejected = errors.New("contribution rejected")

// TextPath is where the shared text lives inside the backing document.
var TextPath = []interface{}{"text"}

// Snapshot is the full shared text at one point in time. Version counts the
// contributions applied so far and only ever grows.
type Snapshot struct {
	Text    string
	Version uint64
}

// Store holds the single shared text of a session. Every accepted contribution
// is committed as its own change on an automerge document so the history can
// be archived and rendered later.
type Store struct {
	mode Mode

	mu      sync.Mutex // protects the fields below
	doc     *automerge.Doc
	text    *automerge.Text
	current Snapshot
}

func NewStore(mode Mode) (*Store, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	doc := automerge.New()
	_ = doc.SetActorID(hex.EncodeToString([]byte(fmt.Sprintf("%d", os.Getpid()))))
	if err := doc.Path(TextPath...).Set(automerge.NewText("")); err != nil {
		return nil, fmt.Errorf("failed to create text: %w", err)
	}
	if _, err := doc.Commit("seed", automerge.CommitOptions{AllowEmpty: true}); err != nil {
		return nil, fmt.Errorf("failed to commit seed: %w", err)
	}
	return &Store{
		mode: mode,
		doc:  doc,
		text: doc.Path(TextPath...).Text(),
	}, nil
}

func (s *Store) Mode() Mode {
	return s.mode
}

// Append validates raw and, if it is acceptable, appends it to the shared
// text. The returned snapshot is the state right after this contribution.
func (s *Store) Append(raw string) (Snapshot, error) {
	contribution, ok := s.mode.Validate(raw)
	if !ok {
		return Snapshot{}, ErrRejected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.text.Append(s.mode.piece(s.current.Text, contribution)); err != nil {
		s.resync()
		return Snapshot{}, fmt.Errorf("failed to append: %w", err)
	}
	if _, err := s.doc.Commit(contribution, automerge.CommitOptions{AllowEmpty: true}); err != nil {
		s.resync()
		return Snapshot{}, fmt.Errorf("failed to commit: %w", err)
	}
	text, err := s.text.Get()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read text: %w", err)
	}
	s.current = Snapshot{Text: text, Version: s.current.Version + 1}
	return s.current, nil
}

// resync makes the snapshot match the document again after a failed append
// may have left text behind. Callers hold mu.
func (s *Store) resync() {
	text, err := s.text.Get()
	if err != nil || text == s.current.Text {
		return
	}
	s.current = Snapshot{Text: text, Version: s.current.Version + 1}
}

func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Checkpoint returns the current snapshot together with the serialized
// document it was read from.
func (s *Store) Checkpoint() (Snapshot, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.doc.Save()
}

// Fork returns an independent copy of the backing document.
func (s *Store) Fork() (*automerge.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Fork()
}
