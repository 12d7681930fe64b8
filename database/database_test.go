package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/daromanx/qa-tracker/models"
	"github.com/redis/go-redis/v9"
)

func TestMigrateAndSeedIsIdempotent(t *testing.T) {
	db, err := NewSQLiteClient(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	admin := AdminSeed{Email: "Admin@QA.test", Nick: "admin", Password: "s3cure-Admin-pass"}
	for i := 0; i < 2; i++ {
		if err := Seed(context.Background(), db, admin); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}

	var roles int64
	db.Model(&models.Role{}).Count(&roles)
	if roles != int64(len(DefaultRoles)) {
		t.Errorf("roles = %d, want %d", roles, len(DefaultRoles))
	}
	var domains int64
	db.Model(&models.AllowedDomain{}).Count(&domains)
	if domains != int64(len(DefaultAllowedDomains)) {
		t.Errorf("domains = %d, want %d", domains, len(DefaultAllowedDomains))
	}

	var account models.Account
	if err := db.Preload("Roles").Where("email = ?", "admin@qa.test").First(&account).Error; err != nil {
		t.Fatalf("admin not seeded: %v", err)
	}
	if !account.IsActive || !account.IsSuperuser || account.Slug != "admin" {
		t.Errorf("unexpected admin row: %+v", account)
	}
	if !account.HasRole("User") {
		t.Error("admin should carry the User role")
	}
}

func TestSeedAdminRequiresPassword(t *testing.T) {
	db, err := NewSQLiteClient(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Seed(context.Background(), db, AdminSeed{Email: "admin@qa.test", Nick: "admin"}); err == nil {
		t.Fatal("expected an error without admin password")
	}
}

func TestSeedAdminResolvesSlugCollisions(t *testing.T) {
	db, err := NewSQLiteClient(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	existing := models.Account{Email: "someone@qa.test", Nick: "admin_x", Slug: "admin", PasswordHash: "x"}
	if err := db.Omit("Roles").Create(&existing).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}

	seeds := []struct {
		seed AdminSeed
		slug string
	}{
		{AdminSeed{Email: "admin@qa.test", Nick: "Admin", Password: "s3cure-Admin-pass"}, "admin-1"},
		{AdminSeed{Email: "root@qa.test", Nick: "", Password: "s3cure-Admin-pass"}, "user"},
	}
	for _, tt := range seeds {
		if err := Seed(context.Background(), db, tt.seed); err != nil {
			t.Fatalf("seed %s: %v", tt.seed.Email, err)
		}
		var account models.Account
		if err := db.Where("email = ?", tt.seed.Email).First(&account).Error; err != nil {
			t.Fatalf("admin %s not seeded: %v", tt.seed.Email, err)
		}
		if account.Slug != tt.slug {
			t.Errorf("%s slug = %q, want %q", tt.seed.Email, account.Slug, tt.slug)
		}
	}
}

func TestRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	if err := rc.SetSession(ctx, "tok-1", 42, time.Hour); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	id, err := rc.GetSession(ctx, "tok-1")
	if err != nil || id != 42 {
		t.Fatalf("GetSession = %d, %v", id, err)
	}
	if ttl := mr.TTL("session:tok-1"); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := rc.GetSession(ctx, "tok-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expired session err = %v, want ErrSessionNotFound", err)
	}

	_ = rc.SetSession(ctx, "tok-2", 7, time.Hour)
	if err := rc.DeleteSession(ctx, "tok-2"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := rc.GetSession(ctx, "tok-2"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("deleted session err = %v", err)
	}
}

func TestGetRedisClientPings(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	rc, err := GetRedisClient(addr, "", 0)
	if err != nil {
		t.Fatalf("GetRedisClient: %v", err)
	}
	defer rc.Close()

	mr.Close()
	if _, err := GetRedisClient(addr, "", 0); err == nil {
		t.Error("expected ping failure against a stopped server")
	}
}
