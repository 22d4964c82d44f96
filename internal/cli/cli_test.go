package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamed0406/online/internal/domain"
)

func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ONLINE_CONFIG", "PRIMARY_TARGET", "BACKUP_TARGET", "CHECK_TIMEOUT", "CHECK_STRATEGY", "PROXY_URL",
		"PUBLIC_API_KEYS", "ADMIN_API_KEYS", "ALLOWED_ORIGINS", "SLACK_WEBHOOK", "API_BASE", "API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := Run(context.Background(), append(args, "--no-color"), &out, &errb)
	return code, out.String(), errb.String()
}

func listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	return ln.Addr().String()
}

func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestCheck_Online(t *testing.T) {
	cleanEnv(t)
	up := listen(t)

	code, out, _ := run(t, "--primary", up, "--backup", closedAddr(t), "--timeout", "2")
	require.Equal(t, 0, code)
	require.Contains(t, out, "✔ primary")
	require.Contains(t, out, up)
	require.Contains(t, out, "Online? true")
}

func TestCheck_BackupAnswers(t *testing.T) {
	cleanEnv(t)
	up := listen(t)

	code, out, _ := run(t, "--primary", closedAddr(t), "--backup", up, "--strategy", "async", "--timeout", "1500ms")
	require.Equal(t, 0, code)
	require.Contains(t, out, "✔ backup")
}

func TestCheck_Offline(t *testing.T) {
	cleanEnv(t)
	primary := closedAddr(t)

	code, out, _ := run(t, "--primary", primary, "--backup", closedAddr(t), "--timeout", "2")
	require.Equal(t, 2, code)
	require.Contains(t, out, "✘ refused")
	require.Contains(t, out, primary)
	require.Contains(t, out, "Online? false")
}

func TestCheck_ZeroTimeout(t *testing.T) {
	cleanEnv(t)

	code, out, errOut := run(t, "--timeout", "0")
	require.Equal(t, 1, code)
	require.Empty(t, out)
	require.Contains(t, errOut, "cannot set a 0 duration timeout")
}

func TestCheck_BadFlags(t *testing.T) {
	cleanEnv(t)

	code, _, errOut := run(t, "--strategy", "threads")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "threads")

	code, _, errOut = run(t, "--count", "0", "--delay", "0s")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "--delay")

	code, _, _ = run(t, "--proxy", "socks5://127.0.0.1:1080")
	require.Equal(t, 1, code, "a proxy needs the clock strategy")
}

func TestCheck_JSONCount(t *testing.T) {
	cleanEnv(t)
	up := listen(t)

	code, out, _ := run(t, "--primary", up, "--backup", up, "--count", "3", "--delay", "1ms", "--json")
	require.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		var cr domain.CheckResult
		require.NoError(t, json.Unmarshal([]byte(l), &cr))
		require.True(t, cr.Online)
		require.Equal(t, up, cr.Target)
	}
}

func TestCheck_StopOnSuccess(t *testing.T) {
	cleanEnv(t)
	up := listen(t)

	code, out, _ := run(t, "--primary", up, "--backup", up, "--count", "5", "--delay", "1ms", "--stop")
	require.Equal(t, 0, code)
	require.Equal(t, 1, strings.Count(out, "✔"))
}

func TestCheck_ConfigFileWithFlagOverride(t *testing.T) {
	cleanEnv(t)
	up := listen(t)
	path := t.TempDir() + "/online.yaml"
	doc := "primary: " + closedAddr(t) + "\nbackup: " + closedAddr(t) + "\ntimeout: \"2\"\n"
	require.NoError(t, writeFile(path, doc))

	code, _, _ := run(t, "--config", path)
	require.Equal(t, 2, code)

	code, out, _ := run(t, "--config", path, "--backup", up)
	require.Equal(t, 0, code)
	require.Contains(t, out, "✔ backup")
}

func TestStatus(t *testing.T) {
	cleanEnv(t)
	var (
		status = http.StatusOK
		body   = domain.CheckResult{ID: 7, Online: true, Target: "clients3.google.com:80", Role: "primary", LatencyMS: 12, CheckedAt: time.Now().UTC()}
		gotKey string
		gotURL string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotURL = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusNotFound {
			_, _ = w.Write([]byte(`{"error":"no checks yet"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer ts.Close()

	code, out, _ := run(t, "status", "--api", ts.URL, "--key", "pub_test")
	require.Equal(t, 0, code)
	require.Equal(t, "pub_test", gotKey)
	require.Equal(t, "/api/status", gotURL)
	require.Contains(t, out, "✔ primary")
	require.Contains(t, out, "Online? true")

	code, _, _ = run(t, "status", "--api", ts.URL, "--live")
	require.Equal(t, 0, code)
	require.Equal(t, "/api/online", gotURL)

	status = http.StatusServiceUnavailable
	body = domain.CheckResult{Online: false, Kind: "timed_out", Reason: "offline: probe x: connect timed out"}
	code, out, _ = run(t, "status", "--api", ts.URL)
	require.Equal(t, 2, code)
	require.Contains(t, out, "✘ timed_out")

	status = http.StatusNotFound
	code, _, errOut := run(t, "status", "--api", ts.URL)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "not recorded any check")
}

func TestStatus_Unauthorized(t *testing.T) {
	cleanEnv(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer ts.Close()

	code, _, errOut := run(t, "status", "--api", ts.URL)
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unauthorized")
}

func TestPreflight(t *testing.T) {
	cleanEnv(t)

	code, out, _ := run(t, "preflight")
	require.Equal(t, 1, code)
	require.Contains(t, out, "API is open to anyone")
	require.Contains(t, out, "preflight failed")

	t.Setenv("PUBLIC_API_KEYS", "pub1")
	t.Setenv("ADMIN_API_KEYS", "adm1")
	code, out, _ = run(t, "preflight")
	require.Equal(t, 0, code)
	require.Contains(t, out, "✔ preflight passed")
	require.Contains(t, out, "⚠ SLACK_WEBHOOK empty")

	t.Setenv("CHECK_TIMEOUT", "0")
	code, out, _ = run(t, "preflight")
	require.Equal(t, 1, code)
	require.Contains(t, out, "✖ cannot set a 0 duration timeout")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
