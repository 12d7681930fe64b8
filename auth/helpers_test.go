package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/daromanx/qa-tracker/database"
	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	subject, body, to string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, subject, body, to string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{subject: subject, body: body, to: to})
	return nil
}

func (n *fakeNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no notification sent")
	}
	return n.sent[len(n.sent)-1]
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeRecorder struct {
	mu            sync.Mutex
	lockouts      map[string]int
	notifyFailed  int
	tokensIssued  map[string]int
	lastOutcomeBy map[string]Outcome
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		lockouts:      map[string]int{},
		tokensIssued:  map[string]int{},
		lastOutcomeBy: map[string]Outcome{},
	}
}

func (r *fakeRecorder) Attempt(stage string, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOutcomeBy[stage] = o
}

func (r *fakeRecorder) Lockout(track string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockouts[track]++
}

func (r *fakeRecorder) TokenIssued(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokensIssued[kind]++
}

func (r *fakeRecorder) NotificationFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifyFailed++
}

type fixture struct {
	db       *gorm.DB
	store    *repository.GormStore
	clock    *fakeClock
	mail     *fakeNotifier
	recorder *fakeRecorder
	svc      *Service

	mu    sync.Mutex
	codes []string
	seq   int
}

// newFixture wires a Service against an in-memory sqlite database with a
// fixed clock. Codes come from f.codes, then default to 041238.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db, err := database.NewSQLiteClient(":memory:")
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}
	if err := database.Seed(context.Background(), db, database.AdminSeed{}); err != nil {
		t.Fatalf("failed seeding: %v", err)
	}

	f := &fixture{
		db:       db,
		store:    repository.NewGormStore(db),
		clock:    &fakeClock{now: t0},
		mail:     &fakeNotifier{},
		recorder: newFakeRecorder(),
	}
	base := []Option{
		WithClock(f.clock.Now),
		WithCodeGenerator(f.nextCode),
		WithTokenGenerator(f.nextToken),
		WithRecorder(f.recorder),
		WithBcryptCost(bcrypt.MinCost),
		WithBaseURL("https://qa.test"),
	}
	f.svc = NewService(f.store, f.mail, append(base, opts...)...)
	return f
}

func (f *fixture) nextCode() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return "041238", nil
	}
	code := f.codes[0]
	f.codes = f.codes[1:]
	return code, nil
}

func (f *fixture) nextToken() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%064d", f.seq), nil
}

func (f *fixture) queueCodes(codes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, codes...)
}

const testPassword = "correct-horse-battery"

func (f *fixture) createAccount(t *testing.T, email string, active bool) *models.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	nick := email[:len(email)-len(domainOf(email))-1]
	account := &models.Account{
		Email:        email,
		Nick:         nick,
		Slug:         nick,
		PasswordHash: string(hash),
		IsActive:     active,
		CreatedAt:    f.clock.Now(),
	}
	if err := f.store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func (f *fixture) reload(t *testing.T, id uint) *models.Account {
	t.Helper()
	account, err := f.store.AccountByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload account %d: %v", id, err)
	}
	return account
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (f *fixture) login(t *testing.T, email, password string) *Result {
	t.Helper()
	res, err := f.svc.SubmitCredentials(context.Background(), LoginInput{
		Email: email, Password: password, IP: "203.0.113.5", UserAgent: "go-test",
	})
	if err != nil {
		t.Fatalf("SubmitCredentials: %v", err)
	}
	return res
}

func (f *fixture) submitCode(t *testing.T, accountID uint, code string) *Result {
	t.Helper()
	res, err := f.svc.SubmitMFACode(context.Background(), MFAInput{AccountID: accountID, Code: code})
	if err != nil {
		t.Fatalf("SubmitMFACode: %v", err)
	}
	return res
}

func expectOutcome(t *testing.T, res *Result, want Outcome) {
	t.Helper()
	if res.Outcome != want {
		t.Fatalf("outcome = %s (%q), want %s", res.Outcome, res.Message, want)
	}
}

var errSMTPDown = errors.New("smtp down")
