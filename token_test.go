package goSession

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return token
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	expired := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	live := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	soon := signedToken(t, jwt.MapClaims{"exp": now.Add(5 * time.Second).Unix()})
	noExp := signedToken(t, jwt.MapClaims{"sub": "u1"})

	cases := []struct {
		name   string
		token  string
		leeway time.Duration
		want   bool
	}{
		{"expired jwt", expired, 0, true},
		{"live jwt", live, 0, false},
		{"within leeway", soon, 10 * time.Second, true},
		{"outside leeway", soon, 0, false},
		{"no exp claim", noExp, 0, false},
		{"opaque token", "not-a-jwt", 0, false},
		{"empty token", "", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tokenExpired(tc.token, tc.leeway, now); got != tc.want {
				t.Fatalf("tokenExpired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEnsureFreshTokenLocalExpiryTriggersRefresh(t *testing.T) {
	api := newFakeAPI()
	store := credstore.NewMemoryStore()
	m := newTestManager(t, api, store)

	// Hydrate the session with an already-expired JWT as its access token.
	expired := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	seedStore(t, store, expired, "stored-refresh", "")
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	got, err := m.EnsureFreshToken(context.Background())
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if got == expired {
		t.Fatal("expected a rotated token for an expired JWT")
	}
	if calls := api.refreshCalls.Load(); calls != 1 {
		t.Fatalf("expected one upstream refresh, got %d", calls)
	}
}
