package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"poemEval/business/allocation"
	"poemEval/business/ledger"
	"poemEval/domain"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.UserID] = *user
	return nil
}

type fakeCatalog struct {
	poems  map[string]domain.Poem
	titles []string
}

func (c *fakeCatalog) Poem(title string) (domain.Poem, bool) {
	p, ok := c.poems[title]
	return p, ok
}

func (c *fakeCatalog) Decoys(title string) []string {
	return c.poems[title].Decoys
}

func (c *fakeCatalog) Titles() []string {
	return c.titles
}

type fakeQuestions struct{}

func (fakeQuestions) RequiredIDs() []string { return []string{"q1", "q2"} }

func (fakeQuestions) Questions() map[string]domain.Question {
	return map[string]domain.Question{
		"q0": {ID: "q0", Text: "Why did you pick this poem?"},
		"q1": {ID: "q1", Text: "How well does the image match the poem?", Options: []string{"1", "2", "3", "4", "5"}},
		"q2": {ID: "q2", Text: "How appealing is the image on its own?", Options: []string{"1", "2", "3", "4", "5"}},
	}
}

type fakeEvalRepo struct {
	mu      sync.Mutex
	records []*domain.EvaluationRecord
	fail    error
}

func (r *fakeEvalRepo) Create(_ context.Context, record *domain.EvaluationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail != nil {
		return r.fail
	}
	r.records = append(r.records, record)
	return nil
}

// ---- fixture ----

type fixture struct {
	svc    *Service
	engine *allocation.Engine
	evals  *fakeEvalRepo
}

func newFixture(titles int) *fixture {
	cat := &fakeCatalog{poems: make(map[string]domain.Poem)}
	var items []domain.Item
	for i := 0; i < titles; i++ {
		title := fmt.Sprintf("poem-%02d", i)
		cat.poems[title] = domain.Poem{Title: title, Author: "anon", Content: "line one\nline two"}
		cat.titles = append(cat.titles, title)
		items = append(items, domain.Item{
			PoemTitle:  title,
			ImagePath:  fmt.Sprintf("/img/%s_gpt.png", title),
			SourceType: domain.SourceGPT,
		})
	}

	engine := allocation.NewEngine(items, 10*time.Minute)
	ledgerService := ledger.NewService(newFakeUserRepo())
	evals := &fakeEvalRepo{}
	svc := NewService(engine, ledgerService, cat, fakeQuestions{}, evals, validator.New())

	return &fixture{svc: svc, engine: engine, evals: evals}
}

func answers() map[string]string {
	return map[string]string{"q1": "4", "q2": "5"}
}

// assignedTitle recovers the reserved poem title from the display options.
func assignedTitle(t *testing.T, a *Assignment) string {
	t.Helper()
	require.NotNil(t, a)
	for _, opt := range a.Options {
		if opt.Letter == a.TargetLetter {
			return opt.Title
		}
	}
	t.Fatalf("target letter %s not among options", a.TargetLetter)
	return ""
}

// ---- tests ----

func TestStartValidation(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	cases := []struct {
		name   string
		userID string
		age    int
		gender string
		edu    string
		field  string
	}{
		{"empty user id", "", 30, "F", "Masters", "user_id"},
		{"zero age", "alice", 0, "F", "Masters", "age"},
		{"negative age", "alice", -1, "F", "Masters", "age"},
		{"empty gender", "alice", 30, "", "Masters", "gender"},
		{"empty education", "alice", 30, "F", "", "education"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Start(ctx, tc.userID, tc.age, tc.gender, tc.edu)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestStartAssignsNewUser(t *testing.T) {
	f := newFixture(6)

	result, err := f.svc.Start(context.Background(), "alice", 30, "F", "Masters")
	require.NoError(t, err)

	assert.Equal(t, StatusAssigned, result.Status)
	assert.Equal(t, "new", string(result.TouchStatus))
	assert.Equal(t, 0, result.Completed)
	assert.Equal(t, domain.DefaultEvalLimit, result.Limit)

	require.NotNil(t, result.Assignment)
	require.Len(t, result.Assignment.Options, 4)

	seen := make(map[string]struct{})
	for _, opt := range result.Assignment.Options {
		_, dup := seen[opt.Title]
		assert.False(t, dup, "option titles must be distinct")
		seen[opt.Title] = struct{}{}
		assert.NotEmpty(t, opt.Content)
	}

	title := assignedTitle(t, result.Assignment)
	assert.Equal(t, fmt.Sprintf("/img/%s_gpt.png", title), result.Assignment.ImagePath)

	completed, limit, err := f.svc.Remaining(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, completed)
	assert.Equal(t, domain.DefaultEvalLimit, limit)
}

func TestStartRejectsIdentityMismatch(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, "alice", 31, "F", "Masters")
	assert.ErrorIs(t, err, domain.ErrIdentityMismatch)
}

func TestRevealFlow(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)
	title := assignedTitle(t, start.Assignment)

	reveal, err := f.svc.Reveal(ctx, "alice", start.Assignment.TargetLetter)
	require.NoError(t, err)
	assert.True(t, reveal.Correct)
	assert.Equal(t, start.Assignment.TargetLetter, reveal.TargetLetter)
	assert.Equal(t, title, reveal.Poem.Title)
	assert.Contains(t, reveal.Questions, "q1")

	// A second reveal is out of order.
	_, err = f.svc.Reveal(ctx, "alice", start.Assignment.TargetLetter)
	var wpErr *domain.WrongPhaseError
	assert.ErrorAs(t, err, &wpErr)
}

func TestRevealRejectsBadChoice(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)

	var vErr *domain.ValidationError
	_, err = f.svc.Reveal(ctx, "alice", "")
	require.ErrorAs(t, err, &vErr)

	_, err = f.svc.Reveal(ctx, "alice", "Z")
	require.ErrorAs(t, err, &vErr)

	// Bad choices do not burn the pending phase.
	_, err = f.svc.Reveal(ctx, "alice", "A")
	assert.NoError(t, err)
}

func TestRevealWithoutSession(t *testing.T) {
	f := newFixture(6)

	_, err := f.svc.Reveal(context.Background(), "alice", "A")
	var wpErr *domain.WrongPhaseError
	require.ErrorAs(t, err, &wpErr)
	assert.Equal(t, "logged_out", wpErr.State)
}

func TestSubmitBeforeRevealIsRejected(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "alice", answers())
	var wpErr *domain.WrongPhaseError
	assert.ErrorAs(t, err, &wpErr)
}

func TestSubmitRequiresAllAnswers(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)
	_, err = f.svc.Reveal(ctx, "alice", start.Assignment.TargetLetter)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "alice", map[string]string{"q1": "4"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "q2", vErr.Field)

	// The session survives the rejection; a complete submission goes through.
	result, err := f.svc.Submit(ctx, "alice", answers())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)
}

func TestSubmitPersistsRecordAndAdvances(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)
	firstTitle := assignedTitle(t, start.Assignment)

	_, err = f.svc.Reveal(ctx, "alice", start.Assignment.TargetLetter)
	require.NoError(t, err)

	result, err := f.svc.Submit(ctx, "alice", answers())
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, result.Status)
	assert.Equal(t, 1, result.Completed)

	// The next item never repeats a rated title.
	assert.NotEqual(t, firstTitle, assignedTitle(t, result.Assignment))

	require.Len(t, f.evals.records, 1)
	rec := f.evals.records[0]
	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, 30, rec.UserAge)
	assert.Equal(t, firstTitle, rec.PoemTitle)
	assert.Equal(t, domain.SourceGPT, rec.SourceType)
	assert.True(t, rec.Phase1Correct)
	assert.Equal(t, "4", rec.Phase2Answers["q1"])
	assert.NotEmpty(t, rec.ID)
}

func TestSubmitAfterReservationReclaimed(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)
	_, err = f.svc.Reveal(ctx, "alice", start.Assignment.TargetLetter)
	require.NoError(t, err)

	// Simulate the timeout sweep taking the item back.
	require.True(t, f.engine.Release("alice"))

	_, err = f.svc.Submit(ctx, "alice", answers())
	assert.ErrorIs(t, err, domain.ErrReservationExpired)
	assert.Empty(t, f.evals.records)

	// The session is gone; the user has to start over.
	_, err = f.svc.Submit(ctx, "alice", answers())
	var wpErr *domain.WrongPhaseError
	require.ErrorAs(t, err, &wpErr)
	assert.Equal(t, "logged_out", wpErr.State)
}

func TestSubmitStorageFailureKeepsReservation(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)
	_, err = f.svc.Reveal(ctx, "alice", start.Assignment.TargetLetter)
	require.NoError(t, err)

	f.evals.fail = errors.New("connection reset")
	_, err = f.svc.Submit(ctx, "alice", answers())
	var stErr *domain.StorageError
	require.ErrorAs(t, err, &stErr)

	// Nothing was consumed; the retry succeeds.
	f.evals.fail = nil
	result, err := f.svc.Submit(ctx, "alice", answers())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)
	assert.Len(t, f.evals.records, 1)
}

func TestIncreaseLimitOutsideExhaustionIsRejected(t *testing.T) {
	f := newFixture(6)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)

	_, err = f.svc.IncreaseLimit(ctx, "alice")
	var wpErr *domain.WrongPhaseError
	assert.ErrorAs(t, err, &wpErr)
}

func TestLimitAndOneTimeExtension(t *testing.T) {
	f := newFixture(20)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)
	assignment := start.Assignment

	ratedTitles := make(map[string]struct{})

	submitRound := func() SubmitResult {
		t.Helper()
		title := assignedTitle(t, assignment)
		_, dup := ratedTitles[title]
		require.False(t, dup, "title %s assigned twice", title)
		ratedTitles[title] = struct{}{}

		_, err := f.svc.Reveal(ctx, "alice", assignment.TargetLetter)
		require.NoError(t, err)
		result, err := f.svc.Submit(ctx, "alice", answers())
		require.NoError(t, err)
		assignment = result.Assignment
		return result
	}

	var last SubmitResult
	for i := 0; i < domain.DefaultEvalLimit; i++ {
		last = submitRound()
	}
	assert.Equal(t, StatusLimitReached, last.Status)
	assert.Equal(t, domain.DefaultEvalLimit, last.Completed)
	assert.Nil(t, last.Assignment)

	// A fresh login lands in the same place.
	again, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)
	assert.Equal(t, StatusLimitReached, again.Status)
	assert.Equal(t, "resumed", string(again.TouchStatus))

	extended, err := f.svc.IncreaseLimit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEvalLimit+domain.LimitExtension, extended.NewLimit)
	assert.Equal(t, StatusAssigned, extended.Status)
	assignment = extended.Assignment

	for i := 0; i < domain.LimitExtension; i++ {
		last = submitRound()
	}
	assert.Equal(t, StatusLimitReached, last.Status)
	assert.Equal(t, domain.DefaultEvalLimit+domain.LimitExtension, last.Completed)

	_, err = f.svc.IncreaseLimit(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrExtensionUnavailable)

	assert.Len(t, f.evals.records, domain.DefaultEvalLimit+domain.LimitExtension)
}

func TestNoItemsWhenCatalogExhaustedForUser(t *testing.T) {
	// Four poems is the minimum display set; the user can rate each once and
	// then the pool is personally exhausted long before the limit.
	f := newFixture(4)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "alice", 30, "F", "Masters")
	require.NoError(t, err)
	assignment := start.Assignment

	var last SubmitResult
	for i := 0; i < 4; i++ {
		_, err := f.svc.Reveal(ctx, "alice", assignment.TargetLetter)
		require.NoError(t, err)
		last, err = f.svc.Submit(ctx, "alice", answers())
		require.NoError(t, err)
		assignment = last.Assignment
	}

	assert.Equal(t, StatusNoItems, last.Status)
	assert.Nil(t, last.Assignment)
	assert.Equal(t, 4, last.Completed)
}
