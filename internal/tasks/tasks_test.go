package tasks_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/fieldtask/internal/tasks"
)

func TestCreate_DefaultsToNew(t *testing.T) {
	s := tasks.New()

	tk, err := s.Create("Revisar bomba 3", "presión baja", "u-2", "u-admin", time.Time{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tk.Status != tasks.StatusNew {
		t.Errorf("Status = %q, want new", tk.Status)
	}
	if tk.ID == "" || tk.CreatedAt.IsZero() {
		t.Errorf("Create() no completó id/timestamps: %+v", tk)
	}

	if _, err := s.Create("   ", "", "", "u-admin", time.Time{}); !errors.Is(err, tasks.ErrEmptyTitle) {
		t.Errorf("Create() con título vacío = %v, want ErrEmptyTitle", err)
	}
}

func TestList_Filters(t *testing.T) {
	s := tasks.New()
	a, _ := s.Create("a", "", "u-1", "adm", time.Time{})
	b, _ := s.Create("b", "", "u-2", "adm", time.Time{})
	if _, err := s.UpdateStatus(b.ID, tasks.StatusInProgress); err != nil {
		t.Fatal(err)
	}

	if got := s.List(tasks.Filter{}); len(got) != 2 {
		t.Fatalf("List() sin filtro = %d tareas, want 2", len(got))
	}
	got := s.List(tasks.Filter{AssigneeID: "u-1"})
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("List(assignee u-1) = %v, want solo la tarea a", got)
	}
	got = s.List(tasks.Filter{Status: tasks.StatusInProgress})
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("List(in_progress) = %v, want solo la tarea b", got)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := tasks.New()
	tk, _ := s.Create("a", "", "", "adm", time.Time{})

	got, err := s.UpdateStatus(tk.ID, tasks.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if got.Status != tasks.StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}

	if _, err := s.UpdateStatus(tk.ID, "archived"); !errors.Is(err, tasks.ErrInvalidStatus) {
		t.Errorf("UpdateStatus(estado inválido) = %v, want ErrInvalidStatus", err)
	}
	if _, err := s.UpdateStatus("nope", tasks.StatusNew); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("UpdateStatus(id inexistente) = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := tasks.New()
	tk, _ := s.Create("a", "", "", "adm", time.Time{})

	if err := s.Delete(tk.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(tk.ID); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("segundo Delete() = %v, want ErrNotFound", err)
	}
}

func TestCountByStatus(t *testing.T) {
	s := tasks.New()
	s.Create("a", "", "", "adm", time.Time{})
	b, _ := s.Create("b", "", "", "adm", time.Time{})
	s.UpdateStatus(b.ID, tasks.StatusCompleted)

	counts := s.CountByStatus()
	if counts[tasks.StatusNew] != 1 || counts[tasks.StatusCompleted] != 1 || counts[tasks.StatusInProgress] != 0 {
		t.Errorf("CountByStatus() = %v", counts)
	}
}

func TestDueWithin(t *testing.T) {
	s := tasks.New()
	soon := time.Now().UTC().Add(2 * time.Hour)
	far := time.Now().UTC().Add(72 * time.Hour)

	a, _ := s.Create("pronto", "", "u-1", "adm", soon)
	s.Create("lejos", "", "u-1", "adm", far)
	done, _ := s.Create("hecha", "", "u-1", "adm", soon)
	s.UpdateStatus(done.ID, tasks.StatusCompleted)

	got := s.DueWithin(24 * time.Hour)
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("DueWithin(24h) = %v, want solo la tarea próxima no completada", got)
	}
}
