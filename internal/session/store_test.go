package session

import (
	"errors"
	"testing"
	"time"

	"protoval/domain/core"
	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/ports"
)

func testSession(st *Store) *Session {
	doc := protocol.NewDocument(protocol.Phase1)
	doc.Set("objectives", "The primary objective is to assess safety.")
	return st.Create("protocol.md", doc, &validation.Report{ID: "r1"})
}

func TestCreateAndGet(t *testing.T) {
	st := NewStore(time.Hour)
	sess := testSession(st)

	got, err := st.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Filename != "protocol.md" {
		t.Errorf("Filename = %q", got.Filename)
	}
	if got.Report.ID != "r1" {
		t.Errorf("Report.ID = %q", got.Report.ID)
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}
}

func TestGetUnknownSession(t *testing.T) {
	st := NewStore(time.Hour)
	if _, err := st.Get(core.NewSessionID()); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestGetExpiredSession(t *testing.T) {
	st := NewStore(time.Millisecond)
	sess := testSession(st)

	time.Sleep(5 * time.Millisecond)
	if _, err := st.Get(sess.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
	if st.Len() != 0 {
		t.Errorf("expired session still stored")
	}
}

func TestPutStoresRevision(t *testing.T) {
	st := NewStore(time.Hour)
	sess := testSession(st)

	doc := sess.Document.WithSection("objectives", "Revised objectives text.")
	rev := Revision{
		Section:   "objectives",
		Audit:     ports.GenerationAudit{GeneratorType: "heuristic"},
		AppliedAt: time.Now(),
	}
	st.Put(sess.WithRevision(doc, &validation.Report{ID: "r2"}, rev))

	got, err := st.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Report.ID != "r2" {
		t.Errorf("Report.ID = %q, want r2", got.Report.ID)
	}
	if len(got.History) != 1 || got.History[0].Section != "objectives" {
		t.Errorf("History = %+v", got.History)
	}
	if len(sess.History) != 0 {
		t.Errorf("WithRevision mutated the original session")
	}
}

func TestPutIgnoresDeletedSession(t *testing.T) {
	st := NewStore(time.Hour)
	sess := testSession(st)

	st.Delete(sess.ID)
	st.Put(sess)
	if _, err := st.Get(sess.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("Put resurrected a deleted session")
	}
}

func TestCleanupExpired(t *testing.T) {
	st := NewStore(time.Hour)
	stale := testSession(st)
	fresh := testSession(st)

	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	if n := st.CleanupExpired(); n != 1 {
		t.Fatalf("CleanupExpired = %d, want 1", n)
	}
	if _, err := st.Get(stale.ID); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("stale session survived the sweep")
	}
	if _, err := st.Get(fresh.ID); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
}

func TestJanitorEvicts(t *testing.T) {
	st := NewStore(time.Millisecond)
	testSession(st)

	stop := st.StartJanitor(2 * time.Millisecond)
	defer stop()

	deadline := time.Now().Add(2 * time.Second)
	for st.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor never evicted the session")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
