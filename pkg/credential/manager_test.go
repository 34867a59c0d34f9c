package credential

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func validCredential(id string, priority int) *Credential {
	return &Credential{
		ID:           id,
		Priority:     priority,
		RefreshToken: "rt-" + id,
		AccessToken:  "at-" + id,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func newTestManager(t *testing.T, refresh RefreshFunc, creds ...*Credential) *Manager {
	t.Helper()
	store := NewStore()
	for _, c := range creds {
		if err := store.Add(c); err != nil {
			t.Fatalf("Add(%s) error = %v", c.ID, err)
		}
	}
	return NewManager(store, refresh, ManagerConfig{}, nil)
}

func TestAcquirePriorityOrder(t *testing.T) {
	m := newTestManager(t, nil,
		validCredential("low", 10),
		validCredential("high", 1),
		validCredential("mid", 5),
	)
	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c.ID != "high" {
		t.Errorf("Acquire() = %q, want high", c.ID)
	}
}

func TestAcquireInsertionOrderTieBreak(t *testing.T) {
	m := newTestManager(t, nil,
		validCredential("first", 1),
		validCredential("second", 1),
	)
	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c.ID != "first" {
		t.Errorf("Acquire() = %q, want first (insertion order breaks the tie)", c.ID)
	}
}

func TestAcquireSkipsIneligible(t *testing.T) {
	disabled := validCredential("disabled", 0)
	disabled.Disabled = true
	cooling := validCredential("cooling", 1)
	healthy := validCredential("healthy", 2)

	m := newTestManager(t, nil, disabled, cooling, healthy)
	m.Cooldowns().Trigger("cooling", ReasonRateLimit, 0)

	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c.ID != "healthy" {
		t.Errorf("Acquire() = %q, want healthy", c.ID)
	}
}

func TestAcquireExhaustedEnumeratesReasons(t *testing.T) {
	disabled := validCredential("disabled", 0)
	disabled.Disabled = true
	expired := validCredential("expired", 1)
	expired.ExpiresAt = time.Now().Add(-time.Hour)

	m := newTestManager(t, nil, disabled, expired)
	_, err := m.Acquire(context.Background())

	var noElig *NoEligibleError
	if !errors.As(err, &noElig) {
		t.Fatalf("Acquire() error = %v, want NoEligibleError", err)
	}
	if noElig.Reasons["disabled"] != "disabled" {
		t.Errorf("reason for disabled = %q", noElig.Reasons["disabled"])
	}
	if noElig.Reasons["expired"] != "token expired" {
		t.Errorf("reason for expired = %q", noElig.Reasons["expired"])
	}
}

func TestAcquireEmptyPool(t *testing.T) {
	m := newTestManager(t, nil)
	_, err := m.Acquire(context.Background())
	var noElig *NoEligibleError
	if !errors.As(err, &noElig) {
		t.Fatalf("Acquire() error = %v, want NoEligibleError", err)
	}
	if len(noElig.Reasons) != 0 {
		t.Errorf("Reasons = %v, want empty", noElig.Reasons)
	}
}

func TestAcquireRefreshesExpiredToken(t *testing.T) {
	expired := validCredential("c1", 0)
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	refresh := func(ctx context.Context, c Credential) (*TokenSet, error) {
		return &TokenSet{AccessToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	m := newTestManager(t, refresh, expired)

	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c.AccessToken != "fresh" {
		t.Errorf("AccessToken = %q, want the refreshed token", c.AccessToken)
	}
}

func TestAcquireAdvancesPastFailedRefresh(t *testing.T) {
	broken := validCredential("broken", 0)
	broken.ExpiresAt = time.Now().Add(-time.Minute)
	healthy := validCredential("healthy", 1)

	refresh := func(ctx context.Context, c Credential) (*TokenSet, error) {
		return nil, errors.New("invalid_grant")
	}
	m := newTestManager(t, refresh, broken, healthy)

	c, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c.ID != "healthy" {
		t.Errorf("Acquire() = %q, want healthy", c.ID)
	}
	// The failed credential is now disabled.
	got, _ := m.Store().Get("broken")
	if !got.Disabled {
		t.Error("credential with failed refresh was not disabled")
	}
}

func TestRefreshSingleFlight(t *testing.T) {
	expired := validCredential("c1", 0)
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	refresh := func(ctx context.Context, c Credential) (*TokenSet, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return &TokenSet{AccessToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	m := newTestManager(t, refresh, expired)

	const concurrency = 10
	var wg sync.WaitGroup
	errs := make([]error, concurrency)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = m.Refresh(context.Background(), "c1")
	}()
	<-entered

	// Everyone arriving while the first refresh is in flight must join
	// it rather than start another.
	for i := 1; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Refresh(context.Background(), "c1")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("upstream refresh calls = %d, want 1", got)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d error = %v", i, err)
		}
	}
	c, _ := m.Store().Get("c1")
	if c.AccessToken != "fresh" {
		t.Errorf("AccessToken = %q after refresh", c.AccessToken)
	}
}

func TestRefreshSkipsWhenTokenStillValid(t *testing.T) {
	var calls atomic.Int32
	refresh := func(ctx context.Context, c Credential) (*TokenSet, error) {
		calls.Add(1)
		return &TokenSet{AccessToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	m := newTestManager(t, refresh, validCredential("c1", 0))

	if err := m.Refresh(context.Background(), "c1"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("upstream calls = %d for a still-valid token, want 0", calls.Load())
	}
}

func TestReportFailureClassification(t *testing.T) {
	m := newTestManager(t, nil,
		validCredential("auth", 0),
		validCredential("limited", 1),
		validCredential("flaky", 2),
	)

	m.ReportFailure("auth", FailureAuth, 0)
	c, _ := m.Store().Get("auth")
	if !c.Disabled {
		t.Error("auth failure did not disable the credential")
	}

	m.ReportFailure("limited", FailureRateLimited, 30*time.Second)
	if rem := m.Cooldowns().Remaining("limited"); rem <= 0 || rem > 30*time.Second {
		t.Errorf("rate-limit cooldown = %v", rem)
	}

	// Transient failures only disable at the threshold.
	m.ReportFailure("flaky", FailureTransient, 0)
	m.ReportFailure("flaky", FailureTransient, 0)
	c, _ = m.Store().Get("flaky")
	if c.Disabled {
		t.Error("disabled before threshold")
	}
	m.ReportFailure("flaky", FailureTransient, 0)
	c, _ = m.Store().Get("flaky")
	if !c.Disabled {
		t.Error("not disabled at threshold")
	}
}

func TestTransientThresholdDisables(t *testing.T) {
	m := newTestManager(t, nil, validCredential("a", 0), validCredential("b", 1))

	for i := 0; i < 3; i++ {
		m.ReportFailure("a", FailureTransient, 0)
	}

	c, _ := m.Store().Get("a")
	if !c.Disabled {
		t.Fatal("credential still enabled after three consecutive transient failures")
	}

	// A disabled credential stays out of rotation until an operator
	// resets it; it must not re-enter on its own.
	got, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got.ID != "b" {
		t.Errorf("Acquire() = %q, want %q", got.ID, "b")
	}

	if !m.ResetHealth("a") {
		t.Fatal("ResetHealth() = false")
	}
	c, _ = m.Store().Get("a")
	if c.Disabled || c.ConsecutiveFailures != 0 {
		t.Error("reset did not restore the credential")
	}
}

func TestReportSuccessResetsCounter(t *testing.T) {
	m := newTestManager(t, nil, validCredential("c1", 0))
	m.ReportFailure("c1", FailureTransient, 0)
	m.ReportSuccess("c1")
	c, _ := m.Store().Get("c1")
	if c.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", c.ConsecutiveFailures)
	}
}

func TestReportSuccessKeepsActiveCooldown(t *testing.T) {
	m := newTestManager(t, nil, validCredential("c1", 0))
	m.ReportFailure("c1", FailureRateLimited, time.Minute)
	m.ReportSuccess("c1")
	if m.Cooldowns().Remaining("c1") == 0 {
		t.Error("an unelapsed cooldown was cleared by success")
	}
}

func TestResetHealth(t *testing.T) {
	m := newTestManager(t, nil, validCredential("c1", 0))
	m.ReportFailure("c1", FailureAuth, 0)
	m.ReportFailure("c1", FailureRateLimited, time.Hour)

	if !m.ResetHealth("c1") {
		t.Fatal("ResetHealth() = false")
	}
	c, _ := m.Store().Get("c1")
	if c.Disabled || m.Cooldowns().Remaining("c1") != 0 {
		t.Error("health state survived reset")
	}
}

func TestAcquireHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newTestManager(t, nil, validCredential("c1", 0))
	if _, err := m.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}
