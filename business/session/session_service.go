package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"poemEval/business/ledger"
	"poemEval/domain"
	"poemEval/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ---- collaborator contracts ----

// Allocator is the allocation engine surface the session flow depends on.
type Allocator interface {
	Acquire(userID string, seenTitles, seenPaths map[string]struct{}) (domain.Reservation, bool)
	ReservationFor(userID string) (domain.Reservation, bool)
	Complete(userID string) (domain.Reservation, bool)
	Release(userID string) bool
}

// Ledger is the user ledger surface the session flow depends on.
type Ledger interface {
	Touch(ctx context.Context, userID string, age int, gender, education string) (domain.User, TouchStatus, error)
	RecordSeen(ctx context.Context, userID string, item domain.Item) error
	IncrementCompleted(ctx context.Context, userID string) error
	ExtendLimit(ctx context.Context, userID string) (int, error)
	Profile(ctx context.Context, userID string) (domain.User, error)
	Remaining(ctx context.Context, userID string) (completed, limit int, err error)
	SeenSets(ctx context.Context, userID string) (titles, paths map[string]struct{}, err error)
}

// TouchStatus mirrors the ledger's login resolution.
type TouchStatus = ledger.TouchStatus

// CatalogRepository supplies the read-only poem/image universe.
type CatalogRepository interface {
	Poem(title string) (domain.Poem, bool)
	Decoys(title string) []string
	Titles() []string
}

// QuestionCatalog supplies the fixed phase-2 questionnaire.
type QuestionCatalog interface {
	RequiredIDs() []string
	Questions() map[string]domain.Question
}

// EvaluationRepository persists finalized evaluation records.
type EvaluationRepository interface {
	Create(ctx context.Context, record *domain.EvaluationRecord) error
}

// ---- state machine ----

type phase int

const (
	phaseNone phase = iota
	phase1Pending
	phase1Revealed
	phaseLimitExhausted
)

func (p phase) String() string {
	switch p {
	case phase1Pending:
		return "phase1_pending"
	case phase1Revealed:
		return "phase1_revealed"
	case phaseLimitExhausted:
		return "limit_exhausted"
	default:
		return "logged_out"
	}
}

type activeSession struct {
	state            phase
	item             domain.Item
	rotationRank     int
	options          []PoemOption
	targetLetter     string
	phase1Choice     string
	phase1Correct    bool
	phase1StartedAt  time.Time
	revealedAt       time.Time
	phase1ResponseMs int64
}

// Service drives one user's evaluation lifecycle from login through the
// two-phase flow to submission. Session state is process-local; durable
// facts live behind the ledger and the evaluation repository.
type Service struct {
	mu        sync.Mutex
	sessions  map[string]*activeSession
	alloc     Allocator
	ledger    Ledger
	catalog   CatalogRepository
	questions QuestionCatalog
	evalRepo  EvaluationRepository
	validate  *validator.Validate
	rng       *rand.Rand
	now       func() time.Time
}

func NewService(
	alloc Allocator,
	ledger Ledger,
	catalog CatalogRepository,
	questions QuestionCatalog,
	evalRepo EvaluationRepository,
	validate *validator.Validate,
) *Service {
	return &Service{
		sessions:  make(map[string]*activeSession),
		alloc:     alloc,
		ledger:    ledger,
		catalog:   catalog,
		questions: questions,
		evalRepo:  evalRepo,
		validate:  validate,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// Start validates the login fields, resolves identity via the ledger and
// enters the assignment flow. Limit-reached and no-items are reported as
// expected outcomes, not errors.
func (s *Service) Start(ctx context.Context, userID string, age int, gender, education string) (StartResult, error) {
	if err := s.validate.Var(userID, "required"); err != nil {
		return StartResult{}, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if age <= 0 {
		return StartResult{}, &domain.ValidationError{Field: "age", Reason: "must be a positive number"}
	}
	if err := s.validate.Var(gender, "required"); err != nil {
		return StartResult{}, &domain.ValidationError{Field: "gender", Reason: "must not be empty"}
	}
	if err := s.validate.Var(education, "required"); err != nil {
		return StartResult{}, &domain.ValidationError{Field: "education", Reason: "must not be empty"}
	}

	_, touchStatus, err := s.ledger.Touch(ctx, userID, age, gender, education)
	if err != nil {
		return StartResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, assignment, completed, limit, err := s.beginAssignmentLocked(ctx, userID)
	if err != nil {
		return StartResult{}, err
	}

	logger.Info("session started",
		"user_id", userID,
		"touch", string(touchStatus),
		"status", string(status),
		"completed", completed,
		"limit", limit,
	)

	return StartResult{
		Status:      status,
		TouchStatus: string(touchStatus),
		Assignment:  assignment,
		Completed:   completed,
		Limit:       limit,
	}, nil
}

// Reveal checks the phase-1 choice against the target letter (informational
// only), records the reveal timestamp and opens phase 2.
func (s *Service) Reveal(ctx context.Context, userID, phase1Choice string) (RevealResult, error) {
	if phase1Choice == "" {
		return RevealResult{}, &domain.ValidationError{Field: "phase1_choice", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok || sess.state != phase1Pending {
		return RevealResult{}, &domain.WrongPhaseError{Op: "reveal", State: s.stateOf(userID)}
	}

	if !validLetter(phase1Choice, len(sess.options)) {
		return RevealResult{}, &domain.ValidationError{Field: "phase1_choice", Reason: "must be one of the displayed letters"}
	}

	now := s.now()
	sess.phase1Choice = phase1Choice
	sess.phase1Correct = phase1Choice == sess.targetLetter
	sess.phase1ResponseMs = now.Sub(sess.phase1StartedAt).Milliseconds()
	sess.revealedAt = now
	sess.state = phase1Revealed

	return RevealResult{
		Correct:          sess.phase1Correct,
		TargetLetter:     sess.targetLetter,
		Poem:             s.fullPoem(sess.item.PoemTitle),
		Questions:        s.questions.Questions(),
		Phase1ResponseMs: sess.phase1ResponseMs,
	}, nil
}

// Submit finalizes the evaluation: validates answer completeness, persists
// the record, converts the reservation into permanent seen facts and
// immediately re-enters the assignment flow for the next item.
func (s *Service) Submit(ctx context.Context, userID string, phase2Answers map[string]string) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok || sess.state != phase1Revealed {
		return SubmitResult{}, &domain.WrongPhaseError{Op: "submit", State: s.stateOf(userID)}
	}

	for _, id := range s.questions.RequiredIDs() {
		if phase2Answers[id] == "" {
			return SubmitResult{}, &domain.ValidationError{
				Field:  id,
				Reason: "answer required",
			}
		}
	}

	res, held := s.alloc.ReservationFor(userID)
	if !held || res.Item != sess.item {
		// Reclaimed by the timeout sweep before the user came back.
		delete(s.sessions, userID)
		return SubmitResult{}, domain.ErrReservationExpired
	}

	user, err := s.ledger.Profile(ctx, userID)
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.now()
	answers := make(map[string]any, len(phase2Answers))
	for k, v := range phase2Answers {
		answers[k] = v
	}

	record := &domain.EvaluationRecord{
		ID:               uuid.NewString(),
		UserID:           userID,
		UserAge:          user.Age,
		UserGender:       user.Gender,
		UserEducation:    user.Education,
		PoemTitle:        sess.item.PoemTitle,
		ImagePath:        sess.item.ImagePath,
		SourceType:       sess.item.SourceType,
		TargetLetter:     sess.targetLetter,
		Phase1Choice:     sess.phase1Choice,
		Phase1Correct:    sess.phase1Correct,
		Phase1ResponseMs: sess.phase1ResponseMs,
		Phase2Answers:    answers,
		Phase2ResponseMs: now.Sub(sess.revealedAt).Milliseconds(),
		TotalResponseMs:  now.Sub(sess.phase1StartedAt).Milliseconds(),
	}

	if err := s.evalRepo.Create(ctx, record); err != nil {
		// Reservation and rotations untouched; the client may retry.
		return SubmitResult{}, &domain.StorageError{Op: "save evaluation", Err: err}
	}

	if err := s.ledger.RecordSeen(ctx, userID, sess.item); err != nil {
		return SubmitResult{}, err
	}
	if err := s.ledger.IncrementCompleted(ctx, userID); err != nil {
		return SubmitResult{}, err
	}

	// Engine mutation last: the item rejoins its rotation for other users
	// only once the durable writes are in.
	s.alloc.Complete(userID)

	logger.Info("evaluation submitted",
		"user_id", userID,
		"poem_title", sess.item.PoemTitle,
		"image_type", string(sess.item.SourceType),
		"phase1_correct", sess.phase1Correct,
	)

	status, assignment, completed, limit, err := s.beginAssignmentLocked(ctx, userID)
	if err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{
		Status:     status,
		Assignment: assignment,
		Completed:  completed,
		Limit:      limit,
	}, nil
}

// IncreaseLimit grants the one-time +5 extension and re-attempts the
// assignment flow. Valid only once the user's limit is exhausted.
func (s *Service) IncreaseLimit(ctx context.Context, userID string) (IncreaseLimitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok || sess.state != phaseLimitExhausted {
		return IncreaseLimitResult{}, &domain.WrongPhaseError{Op: "increase limit", State: s.stateOf(userID)}
	}

	newLimit, err := s.ledger.ExtendLimit(ctx, userID)
	if err != nil {
		return IncreaseLimitResult{}, err
	}

	status, assignment, completed, limit, err := s.beginAssignmentLocked(ctx, userID)
	if err != nil {
		return IncreaseLimitResult{}, err
	}

	return IncreaseLimitResult{
		NewLimit:   newLimit,
		Status:     status,
		Assignment: assignment,
		Completed:  completed,
		Limit:      limit,
	}, nil
}

// Remaining reports (completed, limit) for a user.
func (s *Service) Remaining(ctx context.Context, userID string) (completed, limit int, err error) {
	return s.ledger.Remaining(ctx, userID)
}

// beginAssignmentLocked is the shared tail of Start, Submit and
// IncreaseLimit: consult the limit, acquire the next item, build the
// randomized four-option display.
func (s *Service) beginAssignmentLocked(ctx context.Context, userID string) (Status, *Assignment, int, int, error) {
	completed, limit, err := s.ledger.Remaining(ctx, userID)
	if err != nil {
		return "", nil, 0, 0, err
	}

	if completed >= limit {
		s.sessions[userID] = &activeSession{state: phaseLimitExhausted}
		return StatusLimitReached, nil, completed, limit, nil
	}

	titles, paths, err := s.ledger.SeenSets(ctx, userID)
	if err != nil {
		return "", nil, 0, 0, err
	}

	res, ok := s.alloc.Acquire(userID, titles, paths)
	if !ok {
		delete(s.sessions, userID)
		return StatusNoItems, nil, completed, limit, nil
	}

	decoys := s.pickDecoys(res.Item.PoemTitle)
	if len(decoys) < 3 {
		s.alloc.Release(userID)
		return "", nil, 0, 0, fmt.Errorf("not enough poems for decoys: have %d", len(decoys))
	}

	options, targetLetter := s.buildOptions(res.Item.PoemTitle, decoys)

	s.sessions[userID] = &activeSession{
		state:           phase1Pending,
		item:            res.Item,
		rotationRank:    res.RotationRank,
		options:         options,
		targetLetter:    targetLetter,
		phase1StartedAt: s.now(),
	}

	assignment := &Assignment{
		ImagePath:    res.Item.ImagePath,
		SourceType:   res.Item.SourceType,
		Options:      options,
		TargetLetter: targetLetter,
	}
	return StatusAssigned, assignment, completed, limit, nil
}

func (s *Service) stateOf(userID string) string {
	if sess, ok := s.sessions[userID]; ok {
		return sess.state.String()
	}
	return phaseNone.String()
}

func validLetter(choice string, optionCount int) bool {
	for i := 0; i < optionCount && i < len(optionLetters); i++ {
		if choice == optionLetters[i] {
			return true
		}
	}
	return false
}
