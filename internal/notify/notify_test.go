package notify_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/fieldtask/internal/notify"
)

func TestPublishAndListFor(t *testing.T) {
	s := notify.New(time.Hour)

	if _, err := s.Publish("u-1", "spam", "x", ""); !errors.Is(err, notify.ErrInvalidKind) {
		t.Fatalf("Publish(kind inválido) = %v, want ErrInvalidKind", err)
	}

	n1, err := s.Publish("u-1", notify.KindTaskAssigned, "Nueva tarea: bomba 3", "t-1")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	s.Publish("u-2", notify.KindStatusUpdate, "otra persona", "t-2")

	got := s.ListFor("u-1")
	if len(got) != 1 || got[0].ID != n1.ID {
		t.Errorf("ListFor(u-1) = %v, want solo la propia", got)
	}
	if got[0].Read {
		t.Error("una notificación nueva nace no leída")
	}
}

func TestUnreadAndMarkRead(t *testing.T) {
	s := notify.New(time.Hour)
	n1, _ := s.Publish("u-1", notify.KindTaskAssigned, "a", "t-1")
	s.Publish("u-1", notify.KindStatusUpdate, "b", "t-2")

	if got := s.Unread("u-1"); got != 2 {
		t.Fatalf("Unread() = %d, want 2", got)
	}

	if err := s.MarkRead(n1.ID, "u-1"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if got := s.Unread("u-1"); got != 1 {
		t.Errorf("Unread() tras MarkRead = %d, want 1", got)
	}

	// No se puede marcar la notificación de otro usuario.
	if err := s.MarkRead(n1.ID, "u-2"); !errors.Is(err, notify.ErrNotFound) {
		t.Errorf("MarkRead() ajeno = %v, want ErrNotFound", err)
	}
	if err := s.MarkRead("nope", "u-1"); !errors.Is(err, notify.ErrNotFound) {
		t.Errorf("MarkRead(id inexistente) = %v, want ErrNotFound", err)
	}
}

func TestDeadlineRemindersExpire(t *testing.T) {
	s := notify.New(20 * time.Millisecond)
	s.Publish("u-1", notify.KindDeadline, "vence pronto", "t-1")
	s.Publish("u-1", notify.KindTaskAssigned, "permanente", "t-2")

	time.Sleep(40 * time.Millisecond)

	got := s.ListFor("u-1")
	if len(got) != 1 || got[0].Kind != notify.KindTaskAssigned {
		t.Errorf("ListFor() tras TTL = %v, want solo la permanente", got)
	}
}
