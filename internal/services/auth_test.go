package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos/testutil"
	types "github.com/yungbote/weave-backend/internal/domain"
)

func TestAuthRoundTrip(t *testing.T) {
	svc := NewAuthService(testutil.Logger(t), "s3cret")
	uid := uuid.New()
	tok, err := SignToken("s3cret", uid, time.Minute)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	ctx, err := svc.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	got, err := svc.CurrentActor(ctx)
	if err != nil || got != uid {
		t.Fatalf("CurrentActor: got=%s err=%v", got, err)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(testutil.Logger(t), "s3cret")
	uid := uuid.New()

	wrongKey, _ := SignToken("other", uid, time.Minute)
	expired, _ := SignToken("s3cret", uid, -time.Minute)
	for name, tok := range map[string]string{"empty": "", "garbage": "abc.def", "wrong key": wrongKey, "expired": expired} {
		if _, err := svc.SetContextFromToken(context.Background(), tok); !types.IsCode(err, types.CodeUnauthenticated) {
			t.Fatalf("%s: want unauthenticated, got %v", name, err)
		}
	}
	if _, err := svc.CurrentActor(context.Background()); !types.IsCode(err, types.CodeUnauthenticated) {
		t.Fatalf("no actor: want unauthenticated, got %v", err)
	}
}
