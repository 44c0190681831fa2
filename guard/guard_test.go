package guard

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	hash    string
	at      time.Time
	found   bool
	readErr error

	saved     []string
	saveErr   error
	saveCalls int
}

func (f *fakeStore) LastSubmission(ctx context.Context, ip string) (string, time.Time, bool, error) {
	return f.hash, f.at, f.found, f.readErr
}

func (f *fakeStore) SaveSubmission(ctx context.Context, ip, fileHash string) error {
	f.saveCalls++
	f.saved = append(f.saved, fileHash)
	return f.saveErr
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("same content"))
	b := Fingerprint([]byte("same content"))
	c := Fingerprint([]byte("other content"))

	if a != b {
		t.Errorf("identical content produced different fingerprints: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different content produced identical fingerprints")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestCheckSize(t *testing.T) {
	g := New(nil, 10, time.Hour, false)

	if err := g.CheckSize(10 * 1024 * 1024); err != nil {
		t.Errorf("CheckSize(10MB) = %v, want nil", err)
	}

	err := g.CheckSize(10*1024*1024 + 1)
	var tooLarge *PayloadTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("CheckSize(>10MB) = %v, want PayloadTooLargeError", err)
	}
	if tooLarge.MaxMB != 10 {
		t.Errorf("MaxMB = %d, want 10", tooLarge.MaxMB)
	}
}

func TestAdmitFirstSubmission(t *testing.T) {
	store := &fakeStore{}
	g := New(store, 10, time.Hour, false)

	if err := g.Admit(context.Background(), "203.0.113.7", "hash-a"); err != nil {
		t.Fatalf("Admit() = %v, want nil", err)
	}
	if store.saveCalls != 0 {
		t.Error("Admit must not persist; recording happens on acceptance")
	}

	g.Record(context.Background(), "203.0.113.7", "hash-a")
	if store.saveCalls != 1 || store.saved[0] != "hash-a" {
		t.Errorf("submission not recorded: %+v", store)
	}
}

func TestAdmitDuplicateRejected(t *testing.T) {
	store := &fakeStore{hash: "hash-a", at: time.Now().Add(-time.Minute), found: true}
	g := New(store, 10, time.Hour, false)

	err := g.Admit(context.Background(), "203.0.113.7", "hash-a")
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("Admit() = %v, want ErrDuplicateSubmission", err)
	}
	if store.saveCalls != 0 {
		t.Error("rejected submission was recorded")
	}
}

func TestAdmitDuplicateAllowedWithRetry(t *testing.T) {
	store := &fakeStore{hash: "hash-a", at: time.Now().Add(-time.Minute), found: true}
	g := New(store, 10, time.Hour, true)

	if err := g.Admit(context.Background(), "203.0.113.7", "hash-a"); err != nil {
		t.Fatalf("Admit() = %v, want nil with retry-same-file enabled", err)
	}
}

func TestAdmitDifferentFileRateLimited(t *testing.T) {
	store := &fakeStore{hash: "hash-a", at: time.Now().Add(-time.Minute), found: true}

	// Rate limiting applies whether or not same-file retries are allowed.
	for _, allowRetry := range []bool{false, true} {
		g := New(store, 10, time.Hour, allowRetry)
		err := g.Admit(context.Background(), "203.0.113.7", "hash-b")
		if !errors.Is(err, ErrRateLimited) {
			t.Errorf("allowRetry=%v: Admit() = %v, want ErrRateLimited", allowRetry, err)
		}
	}
}

func TestAdmitAfterCooldown(t *testing.T) {
	store := &fakeStore{hash: "hash-a", at: time.Now().Add(-2 * time.Hour), found: true}
	g := New(store, 10, time.Hour, false)

	if err := g.Admit(context.Background(), "203.0.113.7", "hash-a"); err != nil {
		t.Fatalf("Admit() = %v, want nil once the cooldown has passed", err)
	}
}

func TestAdmitDegradesOnStoreFailure(t *testing.T) {
	store := &fakeStore{readErr: errors.New("connection refused")}
	g := New(store, 10, time.Hour, false)

	if err := g.Admit(context.Background(), "203.0.113.7", "hash-a"); err != nil {
		t.Fatalf("Admit() = %v, want nil when the store is down", err)
	}
}

func TestAdmitWithNilStore(t *testing.T) {
	g := New(nil, 10, time.Hour, false)

	if err := g.Admit(context.Background(), "203.0.113.7", "hash-a"); err != nil {
		t.Fatalf("Admit() = %v, want nil with no store configured", err)
	}
}

func TestRecordToleratesSaveFailure(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("connection refused")}
	g := New(store, 10, time.Hour, false)

	// Record must not panic or surface the write failure.
	g.Record(context.Background(), "203.0.113.7", "hash-a")
	if store.saveCalls != 1 {
		t.Errorf("saveCalls = %d, want 1", store.saveCalls)
	}
}

func TestRecordWithNilStore(t *testing.T) {
	g := New(nil, 10, time.Hour, false)
	g.Record(context.Background(), "203.0.113.7", "hash-a")
}
