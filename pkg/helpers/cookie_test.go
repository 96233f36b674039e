package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestCookieSetPairAndClear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewCookie("", true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	m.SetPair(c, "acc", time.Now().Add(time.Minute), "ref", time.Now().Add(time.Hour))

	cookies := map[string]*http.Cookie{}
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck
	}
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck, ok := cookies[name]
		if !ok {
			t.Fatalf("missing cookie %s", name)
		}
		if !ck.HttpOnly || !ck.Secure {
			t.Fatalf("cookie %s must be http-only and secure", name)
		}
	}
	if cookies[AccessCookie].Value != "acc" || cookies[RefreshCookie].Value != "ref" {
		t.Fatal("unexpected cookie values")
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	m.Clear(c)
	for _, ck := range w.Result().Cookies() {
		if ck.Value != "" || ck.MaxAge >= 0 {
			t.Fatalf("cookie %s not cleared: %+v", ck.Name, ck)
		}
	}
}
