package delivery

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recap/pkg/adapter"
	"github.com/m-mizutani/recap/pkg/utils/logging"
	"golang.org/x/text/unicode/norm"
)

//go:embed script/send.applescript
var sendScriptRaw string

var sendScriptTmpl = template.Must(template.New("send").Parse(sendScriptRaw))

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
)

// Sanitize makes text safe to embed in an AppleScript string literal.
// Text is decomposed (NFKD) and non-ASCII runes are dropped, so accented
// letters keep their base letter. Backslashes and double quotes are escaped
// and line breaks become spaces.
func Sanitize(text string) string {
	decomposed := norm.NFKD.String(text)

	ascii := strings.Map(func(r rune) rune {
		if r >= utf8.RuneSelf {
			return -1
		}
		return r
	}, decomposed)

	return escaper.Replace(ascii)
}

// Sender posts text into a Messages conversation
type Sender struct {
	runner   adapter.ScriptRunner
	chatName string
	hours    int
}

func New(runner adapter.ScriptRunner, chatName string, hours int) *Sender {
	return &Sender{
		runner:   runner,
		chatName: chatName,
		hours:    hours,
	}
}

// Script renders the AppleScript that sends summary to the chat
func (s *Sender) Script(summary string) (string, error) {
	var buf bytes.Buffer
	if err := sendScriptTmpl.Execute(&buf, map[string]any{
		"ChatName": Sanitize(s.chatName),
		"Hours":    s.hours,
		"Summary":  Sanitize(summary),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute send script template")
	}
	return buf.String(), nil
}

// Send delivers summary to the chat. A failure of the script runner is
// returned as is; Send does not retry.
func (s *Sender) Send(ctx context.Context, summary string) error {
	script, err := s.Script(summary)
	if err != nil {
		return err
	}

	if err := s.runner.Run(ctx, script); err != nil {
		return goerr.Wrap(err, "failed to send summary to chat", goerr.V("chat", s.chatName))
	}

	logging.From(ctx).Info("summary sent", "chat", s.chatName, "length", len(summary))
	return nil
}
