package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"hocgassets/internal/fileutil"
	"hocgassets/internal/logging"
	"hocgassets/internal/model"
)

var (
	// ErrLocked is returned by Open when another run holds the database lock.
	ErrLocked = errors.New("card database is locked by another run")
	// ErrUnchanged may be returned by an update function that decided not to
	// touch the card. The update reports success and a new card is dropped.
	ErrUnchanged = errors.New("card unchanged")
)

// Options controls how Open loads the database.
type Options struct {
	Path string
	// LockPath defaults to Path + ".lock".
	LockPath string
	// Clean starts from an empty database instead of reading Path.
	Clean  bool
	Logger *slog.Logger
}

// Store guards the canonical card database. Reads run concurrently; every
// read-decide-write unit holds the write lock for its whole duration.
type Store struct {
	mu     sync.RWMutex
	db     model.Database
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// New wraps an in-memory database. The store is not backed by a file, so
// Save fails.
func New(db model.Database) *Store {
	if db == nil {
		db = model.Database{}
	}
	return &Store{db: db, logger: logging.NewNop()}
}

// Open acquires the database lock and loads the card file. A missing file
// yields an empty database.
func Open(opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, errors.New("store: database path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "store")

	lockPath := strings.TrimSpace(opts.LockPath)
	if lockPath == "" {
		lockPath = path + ".lock"
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, lockPath)
	}

	s := &Store{db: model.Database{}, path: path, lock: lock, logger: logger}
	if opts.Clean {
		logger.Info("starting from an empty card database", logging.String("path", path))
		return s, nil
	}
	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read card database: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	db := model.Database{}
	if err := json.Unmarshal(data, &db); err != nil {
		return fmt.Errorf("parse card database %s: %w", s.path, err)
	}
	for number, card := range db {
		if card == nil {
			delete(db, number)
			continue
		}
		if card.CardNumber == "" {
			card.CardNumber = number
		}
	}
	s.db = db
	s.logger.Debug("loaded card database",
		logging.Int("card_count", len(db)),
		logging.String("path", s.path))
	return nil
}

// Save writes the database atomically as indented JSON with sorted keys.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("store: no database path configured")
	}
	s.mu.RLock()
	data, err := json.MarshalIndent(s.db, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal card database: %w", err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save card database: %w", err)
	}
	s.logger.Info("card database saved", logging.String("path", s.path), logging.Int("card_count", s.Len()))
	return nil
}

// Close releases the database lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Path returns the backing file, or "" for in-memory stores.
func (s *Store) Path() string { return s.path }

// Get returns a copy of the card.
func (s *Store) Get(number string) (*model.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.db[number]
	if !ok {
		return nil, false
	}
	return card.Clone(), true
}

// Update runs fn on the card under the write lock, creating the card when it
// does not exist yet. Illustrations are re-sorted afterwards. When fn fails a
// newly created card is discarded; changes fn made to an existing card before
// failing are kept. ErrUnchanged from fn is not reported as a failure.
func (s *Store) Update(number string, fn func(*model.Card) error) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return errors.New("store: empty card number")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(number, fn)
}

// Link gives an update function access to the cards other than the one being
// updated. It is only valid inside the function it was passed to.
type Link struct {
	db     model.Database
	except string
	dirty  map[string]struct{}
}

// Holder returns the other card holding identifier id for lang.
func (l *Link) Holder(lang model.Language, id uint32) (string, bool) {
	return holder(l.db, lang, id, l.except)
}

// Strip removes identifier id for lang from every other card and returns the
// card numbers that lost it.
func (l *Link) Strip(lang model.Language, id uint32) []string {
	var touched []string
	for _, number := range l.db.Numbers() {
		if number == l.except {
			continue
		}
		if l.db[number].StripID(lang, id, -1) > 0 {
			touched = append(touched, number)
			l.dirty[number] = struct{}{}
		}
	}
	return touched
}

// UpdateLinked is Update for changes that may also strip identifiers from
// other cards. The whole unit runs under the write lock.
func (s *Store) UpdateLinked(number string, fn func(*model.Card, *Link) error) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return errors.New("store: empty card number")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	link := &Link{db: s.db, except: number, dirty: map[string]struct{}{}}
	err := s.update(number, func(card *model.Card) error { return fn(card, link) })
	for other := range link.dirty {
		if card, ok := s.db[other]; ok {
			card.SortIllustrations()
		}
	}
	return err
}

func (s *Store) update(number string, fn func(*model.Card) error) error {
	card, exists := s.db[number]
	if !exists {
		card = model.NewCard(number)
	}
	if err := fn(card); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		return err
	}
	card.SortIllustrations()
	s.db[number] = card
	return nil
}

// UpdateAll runs fn with exclusive access to the whole database, for changes
// that span several cards.
func (s *Store) UpdateAll(fn func(model.Database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.db); err != nil {
		return err
	}
	for _, card := range s.db {
		card.SortIllustrations()
	}
	return nil
}

// Range calls fn with a copy of each card in card-number order until fn
// returns false.
func (s *Store) Range(fn func(*model.Card) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, number := range s.db.Numbers() {
		if !fn(s.db[number].Clone()) {
			return
		}
	}
}

// Snapshot returns a deep copy of the database.
func (s *Store) Snapshot() model.Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Clone()
}

// Len returns the number of cards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.db)
}

// Holder returns the card number holding identifier id for lang on any card
// other than except.
func (s *Store) Holder(lang model.Language, id uint32, except string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return holder(s.db, lang, id, except)
}

func holder(db model.Database, lang model.Language, id uint32, except string) (string, bool) {
	for _, number := range db.Numbers() {
		if number == except {
			continue
		}
		if db[number].FindByID(lang, id) >= 0 {
			return number, true
		}
	}
	return "", false
}
