package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/validators"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "  John.Doe@Gmail.com ", "John Doe")
	expectOutcome(t, res, OutcomeSuccess)

	got := f.reload(t, res.Account.ID)
	if got.Email != "john.doe@gmail.com" || got.IsActive || got.Slug != "john-doe" {
		t.Fatalf("account = %+v", got)
	}
	if !got.HasRole(DefaultRole) {
		t.Errorf("roles = %+v, want %s", got.Roles, DefaultRole)
	}
	if got.PasswordHash == testPassword || got.PasswordHash == "" {
		t.Error("password stored in clear")
	}

	mail := f.mail.last(t)
	if mail.to != "john.doe@gmail.com" || !strings.Contains(mail.body, "John Doe") {
		t.Errorf("welcome mail = %+v", mail)
	}
	if n := f.count(t, &models.Token{}, "account_id = ? AND kind = ?", got.ID, models.TokenActivation); n != 1 {
		t.Errorf("activation tokens = %d, want 1", n)
	}

	expectOutcome(t, f.login(t, "john.doe@gmail.com", testPassword), OutcomeInactive)
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "taken@gmail.com", "taken")

	res := f.register(t, "TAKEN@gmail.com", "other")
	expectOutcome(t, res, OutcomeConflict)
	if res.Field != "email" {
		t.Errorf("field = %s, want email", res.Field)
	}

	res = f.register(t, "fresh@gmail.com", "Taken")
	expectOutcome(t, res, OutcomeConflict)
	if res.Field != "nick" {
		t.Errorf("field = %s, want nick", res.Field)
	}
	if n := f.count(t, &models.Account{}, "1 = 1"); n != 1 {
		t.Errorf("accounts = %d, want 1", n)
	}
}

func TestRegisterSlugCollision(t *testing.T) {
	f := newFixture(t)
	first := f.register(t, "a@gmail.com", "john_doe")
	second := f.register(t, "b@gmail.com", "john__doe")
	third := f.register(t, "c@gmail.com", "John-Doe!")

	slugs := []string{first.Account.Slug, second.Account.Slug, third.Account.Slug}
	want := []string{"john-doe", "john-doe-1", "john-doe-2"}
	for i := range want {
		if slugs[i] != want[i] {
			t.Errorf("slug %d = %s, want %s", i, slugs[i], want[i])
		}
	}
}

func TestRegisterDomainRestriction(t *testing.T) {
	f := newFixture(t, WithDomainRestriction(true))

	res := f.register(t, "someone@corp.example", "someone")
	expectOutcome(t, res, OutcomeValidationError)
	if res.Field != "email" {
		t.Errorf("field = %s", res.Field)
	}
	expectOutcome(t, f.register(t, "someone@gmail.com", "someone"), OutcomeSuccess)
}

func TestRegisterPasswordPolicy(t *testing.T) {
	f := newFixture(t, WithPasswordCheck(validators.DefaultPasswordPolicy().Validate))

	for _, pw := range []string{"", "short", "12345678901", "weakuser1"} {
		res, err := f.svc.Register(context.Background(), RegisterInput{Email: "weakuser@gmail.com", Nick: "weakuser", Password: pw})
		if err != nil {
			t.Fatalf("Register(%q): %v", pw, err)
		}
		expectOutcome(t, res, OutcomeValidationError)
		if res.Field != "password" {
			t.Errorf("password %q: field = %s", pw, res.Field)
		}
	}
	if n := f.count(t, &models.Account{}, "1 = 1"); n != 0 {
		t.Fatalf("accounts = %d, want 0", n)
	}
	expectOutcome(t, f.register(t, "weakuser@gmail.com", "weakuser"), OutcomeSuccess)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("horse-battery-", 6)

	res, err := f.svc.Register(context.Background(), RegisterInput{Email: "long@gmail.com", Nick: "long", Password: long})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	expectOutcome(t, res, OutcomeValidationError)
	if res.Field != "password" {
		t.Errorf("field = %s, want password", res.Field)
	}

	res, err = f.svc.Register(context.Background(), RegisterInput{Email: "long@gmail.com", Nick: "long", Password: long[:MaxPasswordBytes]})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	expectOutcome(t, res, OutcomeSuccess)
}

func TestRegisterRequiresNick(t *testing.T) {
	f := newFixture(t)
	for _, nick := range []string{"", "   ", "!!!"} {
		res, err := f.svc.Register(context.Background(), RegisterInput{Email: "nick@gmail.com", Nick: nick, Password: testPassword})
		if err != nil {
			t.Fatalf("Register(%q): %v", nick, err)
		}
		expectOutcome(t, res, OutcomeValidationError)
		if res.Field != "nick" {
			t.Errorf("nick %q: field = %s, want nick", nick, res.Field)
		}
	}
	if n := f.count(t, &models.Account{}, "1 = 1"); n != 0 {
		t.Fatalf("accounts = %d, want 0", n)
	}
}
