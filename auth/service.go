// Package auth implements the account security flows: two-step login with
// progressive lockout, account activation, password reset and registration.
package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/daromanx/qa-tracker/logger"
	"github.com/daromanx/qa-tracker/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Notifier delivers a plain-text message to one address. Delivery is best
// effort: the flows log a failure and carry on.
type Notifier interface {
	Send(ctx context.Context, subject, body, to string) error
}

// Recorder receives auth events for metrics.
type Recorder interface {
	Attempt(stage string, outcome Outcome)
	Lockout(track string)
	TokenIssued(kind string)
	NotificationFailed(kind string)
}

// PasswordCheck validates a candidate password. userInputs are values the
// password must not resemble (nick, email).
type PasswordCheck func(password string, userInputs ...string) error

type Service struct {
	store      repository.Store
	notifier   Notifier
	recorder   Recorder
	logger     *zap.Logger
	policy     Policy
	now        Clock
	newCode    CodeGenerator
	newToken   TokenGenerator
	checkPass  PasswordCheck
	bcryptCost int

	baseURL         string
	restrictDomains bool

	tokens     *TokenIssuer
	challenges *ChallengeManager
}

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.now = c }
}

func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Service) { s.newCode = g }
}

func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Service) { s.newToken = g }
}

func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithPasswordCheck(c PasswordCheck) Option {
	return func(s *Service) { s.checkPass = c }
}

// WithBaseURL sets the absolute prefix used for links sent by email.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithDomainRestriction limits registration to the allowed_domains table.
func WithDomainRestriction(on bool) Option {
	return func(s *Service) { s.restrictDomains = on }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(store repository.Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:      store,
		notifier:   notifier,
		recorder:   nopRecorder{},
		logger:     zap.NewNop(),
		policy:     DefaultPolicy(),
		now:        SystemClock,
		newCode:    RandomCode,
		newToken:   RandomToken,
		bcryptCost: bcrypt.DefaultCost,
		baseURL:    "http://localhost:3000",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = NewTokenIssuer(s.policy, s.now, s.newToken)
	s.challenges = NewChallengeManager(s.policy, s.now, s.newCode)
	return s
}

func (s *Service) Policy() Policy {
	return s.policy
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnPasswordCheck spends a bcrypt comparison for unknown emails so the
// response time does not reveal whether the account exists.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("qa-tracker-dummy"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

type notification struct {
	kind    string
	to      string
	subject string
	body    string
}

// deliver runs after the transaction committed. Failures never change the
// outcome already decided.
func (s *Service) deliver(ctx context.Context, n *notification) {
	if n == nil || s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n.subject, n.body, n.to); err != nil {
		s.recorder.NotificationFailed(n.kind)
		logger.FromContext(ctx, s.logger).Warn("notification delivery failed",
			zap.String("kind", n.kind),
			zap.String("to", logger.MaskEmail(n.to)),
			zap.Error(err),
		)
	}
}

type nopRecorder struct{}

func (nopRecorder) Attempt(string, Outcome)   {}
func (nopRecorder) Lockout(string)            {}
func (nopRecorder) TokenIssued(string)        {}
func (nopRecorder) NotificationFailed(string) {}
