package quera

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/erfnzdeh/edusync/internal/errs"
)

const coursePage = `<html><body>
<h2>مهلت تمرین‌های پیش رو</h2>
<div class="css-ardi2f">
  <span class="css-lvorr0">۲۵</span>
  <span class="css-itvw0n">اردیبهشت</span>
  <a class="css-15qlil8" href="/course/assignments/85830/problems">تمرین سری دوم</a>
  <span class="css-x4152s">ساختمان داده</span>
</div>
<div class="css-ardi2f">
  <span class="css-lvorr0">۳</span>
  <span class="css-itvw0n">خرداد</span>
  <a class="css-15qlil8" href="/course/assignments/90211/problems">پروژه پایانی</a>
  <span class="css-x4152s">طراحی الگوریتم</span>
</div>
<div class="css-ardi2f">
  <span class="css-lvorr0">۷</span>
  <span class="css-itvw0n">خرداد</span>
  <!-- no title link: must be skipped -->
  <span class="css-x4152s">مدار منطقی</span>
</div>
</body></html>`

func TestClient_FetchAssignments(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "sess-1" {
			t.Errorf("missing session cookie: %v", err)
		}
		_, _ = w.Write([]byte(coursePage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	raws, err := c.FetchAssignments(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("FetchAssignments: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("want 2 assignments, got %d", len(raws))
	}
	first := raws[0]
	if first.Title != "تمرین سری دوم" || first.Course != "ساختمان داده" {
		t.Fatalf("unexpected first tuple: %+v", first)
	}
	if first.DateText != "۲۵ اردیبهشت" {
		t.Fatalf("unexpected date text: %q", first.DateText)
	}
	if first.Link != srv.URL+"/course/assignments/85830/problems" {
		t.Fatalf("unexpected link: %q", first.Link)
	}
}

func TestClient_FetchAssignments_SessionInvalid(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			_, _ = w.Write([]byte("<html>login</html>"))
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	_, err := c.FetchAssignments(context.Background(), "stale")
	if !errors.Is(err, errs.ErrSessionInvalid) {
		t.Fatalf("want ErrSessionInvalid, got %v", err)
	}
}

func TestClient_FetchAssignments_RetriesTransient(t *testing.T) {
	t.Parallel()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(coursePage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	raws, err := c.FetchAssignments(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("FetchAssignments after retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("want 2 calls, got %d", calls)
	}
	if len(raws) != 2 {
		t.Fatalf("want 2 assignments, got %d", len(raws))
	}
}

func TestClient_ValidateSession(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, _ := r.Cookie(sessionCookie); c != nil && c.Value == "good" {
			_, _ = w.Write([]byte(coursePage))
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	if err := c.ValidateSession(context.Background(), "good"); err != nil {
		t.Fatalf("valid session rejected: %v", err)
	}
	if err := c.ValidateSession(context.Background(), "bad"); !errors.Is(err, errs.ErrSessionInvalid) {
		t.Fatalf("want ErrSessionInvalid, got %v", err)
	}
}
