package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
	"github.com/kaiwa-dev/kaiwa/pkg/opcount"
	"github.com/kaiwa-dev/kaiwa/pkg/query"
	"github.com/kaiwa-dev/kaiwa/pkg/repository"
	"github.com/kaiwa-dev/kaiwa/pkg/requestid"
	"github.com/kaiwa-dev/kaiwa/pkg/session"
)

type fixture struct {
	service  *Service
	counters *opcount.Registry
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	counters := opcount.NewRegistry()
	repo, err := repository.New(repository.NewMemoryStore(), "dev_", counters, logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc, err := NewService(repo, session.NewInMemoryCache(logger.NewNop()), logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := &fixture{service: svc, counters: counters, clock: time.UnixMilli(1700000000000)}
	svc.WithClock(func() time.Time { return f.clock })
	return f
}

// tick advances the fixture clock so consecutive messages get distinct ids.
func (f *fixture) tick() {
	f.clock = f.clock.Add(time.Millisecond)
}

func TestCreateAndFindByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(created.ID, "CHAT-") {
		t.Fatalf("id = %q, want CHAT- prefix", created.ID)
	}

	found, ok, err := f.service.FindByID(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v %v", ok, err)
	}
	if found != created {
		t.Fatalf("round trip mismatch: %+v vs %+v", found, created)
	}

	if _, ok, err := f.service.FindByID(ctx, "CHAT-missing"); err != nil || ok {
		t.Fatalf("missing chat: ok=%v err=%v", ok, err)
	}
}

func TestInitChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chat, err := f.service.InitChat(ctx, "general", "welcome")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, err := f.service.FindAllMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	first := messages[0]
	if first.Message != "welcome" || first.ChatID != chat.ID {
		t.Fatalf("wrong first message: %+v", first)
	}
	if first.ID != strconv.FormatInt(f.clock.UnixMilli(), 10) {
		t.Fatalf("message id = %q, want millisecond timestamp", first.ID)
	}
}

func TestAddMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chat, err := f.service.Create(ctx, "general")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, text := range []string{"first", "second", "third"} {
		f.tick()
		if _, err := f.service.AddMessage(ctx, chat.ID, text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	messages, err := f.service.FindAllMessages(ctx, chat.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Message != want {
			t.Fatalf("message %d = %q, want %q (send order)", i, messages[i].Message, want)
		}
	}

	if _, err := f.service.AddMessage(ctx, "CHAT-missing", "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMessagesAreScopedToTheirChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.service.InitChat(ctx, "a", "in-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.tick()
	b, err := f.service.InitChat(ctx, "b", "in-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forA, err := f.service.FindAllMessages(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	forB, err := f.service.FindAllMessages(ctx, b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forA) != 1 || forA[0].Message != "in-a" {
		t.Fatalf("chat a messages: %+v", forA)
	}
	if len(forB) != 1 || forB[0].Message != "in-b" {
		t.Fatalf("chat b messages: %+v", forB)
	}
}

func TestFindPaged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := f.service.Create(ctx, "chat"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	page, err := f.service.FindPaged(ctx, query.ConditionalQuery{Size: 2, Page: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 5 || page.PageCount != 3 || len(page.Rows) != 1 {
		t.Fatalf("page mismatch: %+v", page)
	}
}

func TestMembersCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, found, err := f.service.Members(ctx, "CHAT-1"); err != nil || found {
		t.Fatalf("expected no cached members: %v %v", found, err)
	}

	if err := f.service.SetMembers(ctx, "CHAT-1", []string{"USER-1", "USER-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	members, found, err := f.service.Members(ctx, "CHAT-1")
	if err != nil || !found {
		t.Fatalf("unexpected result: %v %v", found, err)
	}
	if len(members) != 2 || members[0] != "USER-1" || members[1] != "USER-2" {
		t.Fatalf("members = %v", members)
	}
}

func TestOperationAccounting(t *testing.T) {
	f := newFixture(t)
	ctx := requestid.WithRequestID(context.Background(), "req-1")

	chat, err := f.service.InitChat(ctx, "general", "welcome")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.service.FindAllMessages(ctx, chat.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := f.counters.Discard("req-1")
	if count.Writes != 2 {
		t.Fatalf("Writes = %d, want chat plus first message", count.Writes)
	}
	if count.Reads != 1 {
		t.Fatalf("Reads = %d, want the one message", count.Reads)
	}
	if len(count.Trace) != 3 || count.Trace[0] != "chat.create" {
		t.Fatalf("Trace = %v", count.Trace)
	}
}
