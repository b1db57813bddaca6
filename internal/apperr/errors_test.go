package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndMessage(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{Validation("title must be at least %d characters", 6), http.StatusBadRequest, "title must be at least 6 characters"},
		{Blocked(`content contains prohibited language: "heck"`), http.StatusBadRequest, `content contains prohibited language: "heck"`},
		{Unauthenticated(), http.StatusUnauthorized, "authentication required"},
		{Forbidden("user %s is not host of %s", "u1", "e1"), http.StatusForbidden, "forbidden"},
		{VerificationRequired("email verification required to create events"), http.StatusForbidden, "email verification required to create events"},
		{NotFound("event not found"), http.StatusNotFound, "event not found"},
		{Conflict("event is already cancelled"), http.StatusConflict, "event is already cancelled"},
		{Capacity("this event is at full capacity"), http.StatusConflict, "this event is at full capacity"},
		{RateLimited("at most %d per day", 3), http.StatusTooManyRequests, "at most 3 per day"},
		{fmt.Errorf("get event: %w", sql.ErrConnDone), http.StatusInternalServerError, "an unexpected error occurred"},
	}
	for _, c := range cases {
		if got := Status(c.err); got != c.status {
			t.Errorf("Status(%v) = %d, want %d", c.err, got, c.status)
		}
		if got := PublicMessage(c.err); got != c.msg {
			t.Errorf("PublicMessage(%v) = %q, want %q", c.err, got, c.msg)
		}
	}
}

func TestWrappedKindsStillMatch(t *testing.T) {
	err := fmt.Errorf("rsvp: %w", Capacity("full"))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatal("wrapped error lost its kind")
	}
	if Status(err) != http.StatusConflict {
		t.Fatalf("Status = %d", Status(err))
	}
}
