package httpx

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewImageClient_SetsUserAgent(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewImageClient("", 5*time.Second)
	if err != nil {
		t.Fatalf("NewImageClient 失败：%v", err)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET 失败：%v", err)
	}
	_ = resp.Body.Close()

	ua, _ := gotUA.Load().(string)
	if ua == "" {
		t.Fatalf("请求未携带 User-Agent")
	}
}

func TestNewImageClient_InvalidTimeout(t *testing.T) {
	if _, err := NewImageClient("", 0); err == nil {
		t.Fatalf("timeout=0 应报错")
	}
}

func TestNewImageClient_InvalidProxy(t *testing.T) {
	if _, err := NewImageClient("://bad", 5*time.Second); err == nil {
		t.Fatalf("非法 proxy 应报错")
	}
}

func TestTransport_RetriesTransientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			// 第一次直接断连，制造可重试的传输层错误。
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatalf("ResponseWriter 不支持 Hijack")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("Hijack 失败：%v", err)
			}
			_ = conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewImageClient("", 5*time.Second)
	if err != nil {
		t.Fatalf("NewImageClient 失败：%v", err)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("期望重试后成功，实际失败：%v", err)
	}
	_ = resp.Body.Close()
	if got := atomic.LoadInt32(&calls); got < 2 {
		t.Fatalf("期望至少 2 次尝试，实际 %d", got)
	}
}
