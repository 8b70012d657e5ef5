package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"

	"poemEval/domain"
	"poemEval/pkg/logger"
)

// UserRepository contract interface
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (domain.User, error)
	Save(ctx context.Context, user *domain.User) error
}

// TouchStatus reports how a login attempt resolved against the ledger.
type TouchStatus string

const (
	TouchNew     TouchStatus = "new"
	TouchResumed TouchStatus = "resumed"
)

type entry struct {
	mu         sync.Mutex
	loaded     bool
	user       domain.User
	seenTitles map[string]struct{}
	seenPaths  map[string]struct{}
}

// Service tracks identity, consumption and duplicate-avoidance state per
// user. Mutations for one user serialize on that user's entry; different
// users do not block each other.
type Service struct {
	mu      sync.Mutex
	entries map[string]*entry
	repo    UserRepository
}

func NewService(repo UserRepository) *Service {
	return &Service{
		entries: make(map[string]*entry),
		repo:    repo,
	}
}

func (s *Service) entryFor(userID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &entry{
			seenTitles: make(map[string]struct{}),
			seenPaths:  make(map[string]struct{}),
		}
		s.entries[userID] = e
	}
	return e
}

// loadLocked populates the entry from the store on first use. Missing users
// stay unloaded so Touch can decide between create and resume.
func (s *Service) loadLocked(ctx context.Context, e *entry, userID string) (bool, error) {
	if e.loaded {
		return true, nil
	}

	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StorageError{Op: "load user", Err: err}
	}

	e.user = user
	for _, t := range user.SeenTitles {
		e.seenTitles[t] = struct{}{}
	}
	for _, p := range user.SeenPaths {
		e.seenPaths[p] = struct{}{}
	}
	e.loaded = true
	return true, nil
}

func (s *Service) saveLocked(ctx context.Context, e *entry) error {
	titles := make([]string, 0, len(e.seenTitles))
	for t := range e.seenTitles {
		titles = append(titles, t)
	}
	paths := make([]string, 0, len(e.seenPaths))
	for p := range e.seenPaths {
		paths = append(paths, p)
	}
	e.user.SeenTitles = titles
	e.user.SeenPaths = paths

	if err := s.repo.Save(ctx, &e.user); err != nil {
		return &domain.StorageError{Op: "save user", Err: err}
	}
	return nil
}

// Touch resolves a login. A fresh username creates a record with the given
// demographics. An existing username resumes only when age, gender and
// education all match the stored record after normalization; any mismatch is
// rejected without mutating anything.
func (s *Service) Touch(ctx context.Context, userID string, age int, gender, education string) (domain.User, TouchStatus, error) {
	gender = strings.TrimSpace(gender)
	education = strings.TrimSpace(education)

	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := s.loadLocked(ctx, e, userID)
	if err != nil {
		return domain.User{}, "", err
	}

	if !exists {
		e.user = domain.User{
			UserID:    userID,
			Age:       age,
			Gender:    gender,
			Education: education,
			Limit:     domain.DefaultEvalLimit,
		}
		if err := s.saveLocked(ctx, e); err != nil {
			e.user = domain.User{}
			return domain.User{}, "", err
		}
		e.loaded = true
		logger.Info("user created", "user_id", userID)
		return e.user, TouchNew, nil
	}

	if e.user.Age != age ||
		strings.TrimSpace(e.user.Gender) != gender ||
		strings.TrimSpace(e.user.Education) != education {
		logger.Warn("demographics mismatch on login", "user_id", userID)
		return domain.User{}, "", domain.ErrIdentityMismatch
	}

	return e.user, TouchResumed, nil
}

// RecordSeen adds the item's title and path to the user's permanent seen
// sets. Idempotent; entries are never removed.
func (s *Service) RecordSeen(ctx context.Context, userID string, item domain.Item) error {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if exists, err := s.loadLocked(ctx, e, userID); err != nil {
		return err
	} else if !exists {
		return domain.ErrUserNotFound
	}

	if _, haveTitle := e.seenTitles[item.PoemTitle]; haveTitle {
		if _, havePath := e.seenPaths[item.ImagePath]; havePath {
			return nil
		}
	}

	e.seenTitles[item.PoemTitle] = struct{}{}
	e.seenPaths[item.ImagePath] = struct{}{}
	if err := s.saveLocked(ctx, e); err != nil {
		delete(e.seenTitles, item.PoemTitle)
		delete(e.seenPaths, item.ImagePath)
		return err
	}
	return nil
}

// IncrementCompleted counts one finished evaluation.
func (s *Service) IncrementCompleted(ctx context.Context, userID string) error {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if exists, err := s.loadLocked(ctx, e, userID); err != nil {
		return err
	} else if !exists {
		return domain.ErrUserNotFound
	}

	e.user.CompletedCount++
	if err := s.saveLocked(ctx, e); err != nil {
		e.user.CompletedCount--
		return err
	}
	return nil
}

// ExtendLimit grants the one-time extension. Permitted only when the user
// has fully consumed the original default; there is exactly one extension
// opportunity per user.
func (s *Service) ExtendLimit(ctx context.Context, userID string) (int, error) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if exists, err := s.loadLocked(ctx, e, userID); err != nil {
		return 0, err
	} else if !exists {
		return 0, domain.ErrUserNotFound
	}

	if e.user.CompletedCount != domain.DefaultEvalLimit || e.user.Limit != domain.DefaultEvalLimit {
		return e.user.Limit, domain.ErrExtensionUnavailable
	}

	e.user.Limit = domain.DefaultEvalLimit + domain.LimitExtension
	if err := s.saveLocked(ctx, e); err != nil {
		e.user.Limit = domain.DefaultEvalLimit
		return e.user.Limit, err
	}

	logger.Info("limit extended", "user_id", userID, "new_limit", e.user.Limit)
	return e.user.Limit, nil
}

// Profile returns the stored user record.
func (s *Service) Profile(ctx context.Context, userID string) (domain.User, error) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := s.loadLocked(ctx, e, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !exists {
		return domain.User{}, domain.ErrUserNotFound
	}
	return e.user, nil
}

// Remaining reports the user's completed count and personal limit.
func (s *Service) Remaining(ctx context.Context, userID string) (completed, limit int, err error) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := s.loadLocked(ctx, e, userID)
	if err != nil {
		return 0, 0, err
	}
	if !exists {
		return 0, 0, domain.ErrUserNotFound
	}
	return e.user.CompletedCount, e.user.Limit, nil
}

// SeenSets returns copies of the user's seen sets for the allocation scan.
func (s *Service) SeenSets(ctx context.Context, userID string) (titles, paths map[string]struct{}, err error) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := s.loadLocked(ctx, e, userID)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, domain.ErrUserNotFound
	}

	titles = make(map[string]struct{}, len(e.seenTitles))
	for t := range e.seenTitles {
		titles[t] = struct{}{}
	}
	paths = make(map[string]struct{}, len(e.seenPaths))
	for p := range e.seenPaths {
		paths[p] = struct{}{}
	}
	return titles, paths, nil
}
