package delivery_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recap/pkg/usecase/delivery"
)

type mockRunner struct {
	runFunc func(ctx context.Context, script string) error
	scripts []string
}

func (m *mockRunner) Run(ctx context.Context, script string) error {
	m.scripts = append(m.scripts, script)
	if m.runFunc != nil {
		return m.runFunc(ctx, script)
	}
	return nil
}

// assertEscaped fails if s has an unescaped quote or backslash, a line break, or non-ASCII byte
func assertEscaped(t *testing.T, s string) {
	t.Helper()
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			if i+1 >= len(s) || (s[i+1] != '\\' && s[i+1] != '"') {
				t.Fatalf("dangling backslash at %d in %q", i, s)
			}
			i++
		case c == '"':
			t.Fatalf("unescaped quote at %d in %q", i, s)
		case c == '\n' || c == '\r':
			t.Fatalf("line break at %d in %q", i, s)
		case c >= 0x80:
			t.Fatalf("non-ASCII byte at %d in %q", i, s)
		}
	}
}

func TestSanitize(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{"plain", "hello world", "hello world"},
		{"accents decomposed", "café naïve", "cafe naive"},
		{"compatibility form", "ﬁle №1", "file No1"},
		{"emoji dropped", "party 🎉 tonight", "party  tonight"},
		{"combining marks", "e\u0301e\u0300", "ee"},
		{"quotes", `say "hi"`, `say \"hi\"`},
		{"backslash", `C:\path`, `C:\\path`},
		{"backslash before quote", `\"`, `\\\"`},
		{"newlines", "- a\n- b\r\n- c\rd", "- a - b - c d"},
		{"japanese dropped", "まとめ summary", " summary"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := delivery.Sanitize(tc.input)
			gt.Equal(t, got, tc.expect)
			assertEscaped(t, got)
		})
	}
}

func TestSanitizeArbitraryInput(t *testing.T) {
	alphabet := []rune("ab Z09\"\\\n\r\té🎉\u0301ß漢ﬁ'`$")
	rnd := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		n := rnd.Intn(40)
		runes := make([]rune, n)
		for j := range runes {
			runes[j] = alphabet[rnd.Intn(len(alphabet))]
		}
		assertEscaped(t, delivery.Sanitize(string(runes)))
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	alphabet := []byte("abcXYZ019 .,-!?\n\t:;()")
	rnd := rand.New(rand.NewSource(2))

	for i := 0; i < 500; i++ {
		b := make([]byte, rnd.Intn(60))
		for j := range b {
			b[j] = alphabet[rnd.Intn(len(alphabet))]
		}
		once := delivery.Sanitize(string(b))
		gt.Equal(t, delivery.Sanitize(once), once)
	}
}

func TestSenderSend(t *testing.T) {
	ctx := context.Background()

	t.Run("script contains sanitized chat and summary", func(t *testing.T) {
		runner := &mockRunner{}
		sender := delivery.New(runner, `Book "club"`, 12)

		gt.NoError(t, sender.Send(ctx, "- Dinner at Café \"Rouge\"\n- Movie night"))
		gt.A(t, runner.scripts).Length(1)

		script := runner.scripts[0]
		gt.S(t, script).Contains(`tell application "Messages"`)
		gt.S(t, script).Contains(`first chat whose name contains "Book \"club\""`)
		gt.S(t, script).Contains(`Summary of last 12 hour(s): - Dinner at Cafe \"Rouge\" - Movie night"`)
		gt.S(t, script).Contains("send messageText to targetChat")
	})

	t.Run("runner failure is returned", func(t *testing.T) {
		runner := &mockRunner{
			runFunc: func(ctx context.Context, script string) error {
				return errors.New("exit status 1")
			},
		}
		sender := delivery.New(runner, "club", 3)

		err := sender.Send(ctx, "summary")
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("exit status 1")
		gt.A(t, runner.scripts).Length(1)
	})
}

func TestSenderScriptHours(t *testing.T) {
	sender := delivery.New(&mockRunner{}, "club", 1)
	script, err := sender.Script("x")
	gt.NoError(t, err)
	gt.True(t, strings.Contains(script, "Summary of last 1 hour(s): x\""))
}
