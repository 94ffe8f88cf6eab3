package repository

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recap/pkg/model"
	"github.com/m-mizutani/recap/pkg/utils/logging"

	_ "github.com/mattn/go-sqlite3"
)

const defaultBusyTimeout = 5000

// SQLite reads the Messages database (chat.db). It never writes to the file
// and opens a new read-only connection for each call.
type SQLite struct {
	path        string
	busyTimeout int
}

type SQLiteOption func(*SQLite)

// WithBusyTimeout sets busy timeout in milliseconds
func WithBusyTimeout(ms int) SQLiteOption {
	return func(s *SQLite) {
		s.busyTimeout = ms
	}
}

// NewSQLite creates a new SQLite message store for the database file at path
func NewSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	if path == "" {
		return nil, goerr.New("database path is required")
	}

	s := &SQLite{
		path:        path,
		busyTimeout: defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// dataSource builds a read-only SQLite URI for path. The path is percent-encoded
// so that '?', '#' and '%' in directory names stay part of the file name.
func dataSource(path string, busyTimeout int) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve database path", goerr.V("path", path))
	}

	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(abs),
		RawQuery: url.Values{
			"mode":          {"ro"},
			"_busy_timeout": {strconv.Itoa(busyTimeout)},
		}.Encode(),
	}
	return u.String(), nil
}

func (s *SQLite) open(ctx context.Context) (*sql.DB, error) {
	dsn, err := dataSource(s.path, s.busyTimeout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open message database", goerr.V("path", s.path))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to connect message database", goerr.V("path", s.path))
	}

	return db, nil
}

func closeDB(ctx context.Context, db *sql.DB) {
	if err := db.Close(); err != nil {
		logging.From(ctx).Warn("failed to close message database", "error", err)
	}
}

// likeContains builds a LIKE pattern matching strings that contain fragment literally
func likeContains(fragment string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(fragment) + "%"
}

func (s *SQLite) ResolveChat(ctx context.Context, fragment string) (model.ChatID, error) {
	db, err := s.open(ctx)
	if err != nil {
		return 0, err
	}
	defer closeDB(ctx, db)

	var id model.ChatID
	row := db.QueryRowContext(ctx,
		`SELECT ROWID FROM chat WHERE display_name LIKE ? ESCAPE '\' ORDER BY ROWID LIMIT 1`,
		likeContains(fragment),
	)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, goerr.Wrap(model.ErrChatNotFound, "no chat matches name", goerr.V("fragment", fragment))
		}
		return 0, goerr.Wrap(err, "failed to resolve chat", goerr.V("fragment", fragment))
	}

	return id, nil
}

func (s *SQLite) ListMessages(ctx context.Context, chatID model.ChatID, since time.Time) ([]*model.Message, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer closeDB(ctx, db)

	rows, err := db.QueryContext(ctx, `
		SELECT message.ROWID, message.text, message.date
		FROM message
		JOIN chat_message_join ON message.ROWID = chat_message_join.message_id
		WHERE chat_message_join.chat_id = ?
		  AND message.text IS NOT NULL
		  AND message.date >= ?
		ORDER BY message.date ASC, message.ROWID ASC`,
		chatID, model.ToAppleNano(since),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query messages",
			goerr.V("chat_id", chatID),
			goerr.V("since", since))
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		var (
			msg  model.Message
			date int64
		)
		if err := rows.Scan(&msg.ID, &msg.Text, &date); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message", goerr.V("chat_id", chatID))
		}
		msg.SentAt = model.FromAppleNano(date)
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("chat_id", chatID))
	}

	return messages, nil
}

func (s *SQLite) ListChats(ctx context.Context, fragment string) ([]*model.Chat, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer closeDB(ctx, db)

	rows, err := db.QueryContext(ctx, `
		SELECT ROWID, COALESCE(chat_identifier, ''), COALESCE(display_name, '')
		FROM chat
		WHERE display_name LIKE ? ESCAPE '\'
		ORDER BY ROWID`,
		likeContains(fragment),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query chats", goerr.V("fragment", fragment))
	}
	defer rows.Close()

	var chats []*model.Chat
	for rows.Next() {
		var chat model.Chat
		if err := rows.Scan(&chat.ID, &chat.Identifier, &chat.DisplayName); err != nil {
			return nil, goerr.Wrap(err, "failed to scan chat")
		}
		chats = append(chats, &chat)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate chats")
	}

	return chats, nil
}

// DataSourceForTest exposes dataSource for testing
func DataSourceForTest(path string, busyTimeout int) (string, error) {
	return dataSource(path, busyTimeout)
}

// LikeContainsForTest exposes likeContains for testing
func LikeContainsForTest(fragment string) string {
	return likeContains(fragment)
}
