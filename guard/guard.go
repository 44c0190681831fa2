package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
)

var (
	// ErrDuplicateSubmission is returned when a client resubmits the exact
	// file it already submitted within the cooldown window.
	ErrDuplicateSubmission = errors.New("this file was already submitted, please wait for your report")

	// ErrRateLimited is returned when a client submits again too soon after
	// a prior submission.
	ErrRateLimited = errors.New("too many submissions, please try again later")
)

// PayloadTooLargeError rejects uploads above the configured ceiling.
type PayloadTooLargeError struct {
	MaxMB int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("file too large, maximum size is %d MB", e.MaxMB)
}

// Store persists past submissions keyed by client IP. A failing store must
// not block admission; the guard degrades to always-admit.
type Store interface {
	LastSubmission(ctx context.Context, ip string) (fileHash string, at time.Time, found bool, err error)
	SaveSubmission(ctx context.Context, ip, fileHash string) error
}

// Guard throttles repeat and duplicate uploads by client IP and file
// content fingerprint.
type Guard struct {
	store              Store
	maxUploadBytes     int64
	maxUploadMB        int
	cooldown           time.Duration
	allowRetrySameFile bool
	now                func() time.Time
}

// New builds a Guard. store may be nil, in which case every submission is
// admitted (the degraded mode used when the database is unavailable).
func New(store Store, maxUploadMB int, cooldown time.Duration, allowRetrySameFile bool) *Guard {
	return &Guard{
		store:              store,
		maxUploadBytes:     int64(maxUploadMB) * 1024 * 1024,
		maxUploadMB:        maxUploadMB,
		cooldown:           cooldown,
		allowRetrySameFile: allowRetrySameFile,
		now:                time.Now,
	}
}

// Fingerprint returns the hex sha256 content fingerprint of an upload.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// CheckSize rejects payloads above the configured byte ceiling. Runs before
// any parsing to bound memory use.
func (g *Guard) CheckSize(size int64) error {
	if size > g.maxUploadBytes {
		return &PayloadTooLargeError{MaxMB: g.maxUploadMB}
	}
	return nil
}

// Admit decides whether a submission from ip with the given content
// fingerprint may enter the pipeline. Store failures are logged and the
// submission is admitted. Admit only checks; call Record once the
// submission is actually accepted, so a rejected enqueue does not start
// the cooldown window.
func (g *Guard) Admit(ctx context.Context, ip, fileHash string) error {
	if g.store == nil {
		log.Warnf("submission store unavailable, admitting %s without throttling", ip)
		return nil
	}

	lastHash, at, found, err := g.store.LastSubmission(ctx, ip)
	if err != nil {
		log.Warnf("submission store read failed, admitting %s: %v", ip, err)
		return nil
	}

	if found && g.now().Sub(at) < g.cooldown {
		if lastHash == fileHash {
			if !g.allowRetrySameFile {
				return ErrDuplicateSubmission
			}
		} else {
			return ErrRateLimited
		}
	}

	return nil
}

// Record persists an accepted submission so later uploads from the same
// client are throttled against it. Write failures are logged, not surfaced.
func (g *Guard) Record(ctx context.Context, ip, fileHash string) {
	if g.store == nil {
		return
	}
	if err := g.store.SaveSubmission(ctx, ip, fileHash); err != nil {
		log.Warnf("submission store write failed for %s: %v", ip, err)
	}
}
