package share

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		locale   string
		code     string
		contains []string
	}{
		{"rupees", "en-IN", "INR", []string{"March 2024 Report\nTotal: ", "₹", "1,234.50"}},
		{"dollars", "en-US", "USD", []string{"Total: ", "$", "1,234.50"}},
		{"bad locale falls back to English", "not a locale!", "USD", []string{"$", "1,234.50"}},
		{"unknown currency is plain", "en-IN", "NOPE", []string{"Total: 1234.50"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summary("March 2024 Report", core.Money{Cents: 123450}, tt.locale, tt.code)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.True(t, strings.HasPrefix(got, "March 2024 Report\n"))
		})
	}
}

type fakeTarget struct {
	err      error
	payloads []Payload
}

func (f *fakeTarget) Name() string { return "fake" }

func (f *fakeTarget) Share(_ context.Context, p Payload) error {
	f.payloads = append(f.payloads, p)
	return f.err
}

func TestSharer(t *testing.T) {
	p := Payload{Text: "This Week Report\nTotal: ₹ 10.00"}

	t.Run("no target falls back", func(t *testing.T) {
		s := NewSharer(nil, nil)
		assert.False(t, s.Available())
		res := s.Share(context.Background(), p)
		assert.False(t, res.Shared)
		assert.Equal(t, p.Text, res.Fallback)
	})

	t.Run("target succeeds", func(t *testing.T) {
		target := &fakeTarget{}
		s := NewSharer(target, nil)
		res := s.Share(context.Background(), p)
		assert.True(t, res.Shared)
		assert.Equal(t, "fake", res.Target)
		assert.Empty(t, res.Fallback)
		require.Len(t, target.payloads, 1)
	})

	t.Run("target failure falls back", func(t *testing.T) {
		target := &fakeTarget{err: errors.New("chat not found")}
		s := NewSharer(target, nil)
		res := s.Share(context.Background(), p)
		assert.False(t, res.Shared)
		assert.Equal(t, p.Text, res.Fallback)
	})
}

type botCall struct {
	method  string
	chatID  string
	text    string
	caption string
	file    string
}

func newBotServer(t *testing.T) (*httptest.Server, func() []botCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []botCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		method := parts[len(parts)-1]

		call := botCall{method: method, chatID: r.FormValue("chat_id"), text: r.FormValue("text"), caption: r.FormValue("caption")}
		if f, hdr, err := r.FormFile("document"); err == nil {
			b, _ := io.ReadAll(f)
			call.file = hdr.Filename + ":" + string(b)
		}
		mu.Lock()
		calls = append(calls, call)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "getMe":
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"bot"}}`)
		default:
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		}
	}))
	return srv, func() []botCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]botCall(nil), calls...)
	}
}

func TestTelegramTarget(t *testing.T) {
	srv, calls := newBotServer(t)
	defer srv.Close()

	target, err := NewTelegramTargetWithEndpoint("tkn", 42, srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	assert.Equal(t, "telegram", target.Name())

	require.NoError(t, target.Share(context.Background(), Payload{Text: "hello"}))
	require.NoError(t, target.Share(context.Background(), Payload{Text: "cap", FileName: "r.pdf", File: []byte("%PDF")}))

	got := calls()
	require.Len(t, got, 3)
	assert.Equal(t, "getMe", got[0].method)
	assert.Equal(t, botCall{method: "sendMessage", chatID: "42", text: "hello"}, got[1])
	assert.Equal(t, "sendDocument", got[2].method)
	assert.Equal(t, "cap", got[2].caption)
	assert.Equal(t, "r.pdf:%PDF", got[2].file)
}

func TestTelegramTarget_NotConfigured(t *testing.T) {
	_, err := NewTelegramTarget("", 0)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestTelegramTarget_CancelledContext(t *testing.T) {
	srv, calls := newBotServer(t)
	defer srv.Close()
	target, err := NewTelegramTargetWithEndpoint("tkn", 42, srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, target.Share(ctx, Payload{Text: "x"}), context.Canceled)
	assert.Len(t, calls(), 1, "only getMe")
}
