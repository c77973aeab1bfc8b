package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chatwave/chatwave-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	avatar_url    TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	conv_key    TEXT NOT NULL,
	sender_id   TEXT NOT NULL,
	receiver_id TEXT NOT NULL DEFAULT '',
	group_id    TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	attachments TEXT NOT NULL DEFAULT '[]',
	edited      INTEGER NOT NULL DEFAULT 0,
	edited_at   DATETIME,
	pinned      INTEGER NOT NULL DEFAULT 0,
	pinned_at   DATETIME,
	pinned_by   TEXT NOT NULL DEFAULT '',
	seen        TEXT NOT NULL DEFAULT '[]',
	listened    TEXT NOT NULL DEFAULT '[]',
	saved       TEXT NOT NULL DEFAULT '[]',
	reactions   TEXT NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conv_key, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_group ON messages(group_id, created_at DESC);

CREATE TABLE IF NOT EXISTS groups (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	avatar_url  TEXT NOT NULL DEFAULT '',
	admin_id    TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
	group_id  TEXT NOT NULL,
	user_id   TEXT NOT NULL,
	joined_at DATETIME NOT NULL,
	PRIMARY KEY (group_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members(user_id);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash, displayName string) (*store.User, error) {
	if displayName == "" {
		displayName = username
	}
	id := uuid.NewString()
	query := `
		INSERT INTO users (id, username, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, id, username, passwordHash, displayName, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, display_name, avatar_url, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, display_name, avatar_url, created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// GetProfiles resolves a batch of user IDs to fan-out projections.
func (s *SQLiteStore) GetProfiles(ctx context.Context, ids []string) (map[string]store.ProfileSummary, error) {
	profiles := make(map[string]store.ProfileSummary, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `
		SELECT id, display_name, avatar_url
		FROM users
		WHERE id IN (` + placeholders + `)
	`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p store.ProfileSummary
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles[p.ID] = p
	}
	return profiles, rows.Err()
}

// SearchUsers searches for users by username substring.
func (s *SQLiteStore) SearchUsers(ctx context.Context, queryStr string) ([]*store.User, error) {
	query := `
		SELECT id, username, password_hash, display_name, avatar_url, created_at
		FROM users
		WHERE username LIKE ?
		ORDER BY username
		LIMIT 50
	`
	rows, err := s.db.QueryContext(ctx, query, "%"+queryStr+"%")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.AvatarURL, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// UpdateProfile updates display name and avatar reference.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	query := `UPDATE users SET display_name = ?, avatar_url = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, displayName, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user: %w", store.ErrNotFound)
	}
	return nil
}

// ==== MessageStore implementation ====

const messageColumns = `
	id, conv_key, sender_id, receiver_id, group_id, body, attachments,
	edited, edited_at, pinned, pinned_at, pinned_by,
	seen, listened, saved, reactions, created_at
`

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *SQLiteStore) scanMessage(scan func(dest ...any) error) (*store.Message, error) {
	var (
		m           store.Message
		convKey     string
		attachments string
		seen        string
		listened    string
		saved       string
		reactions   string
		editedAt    sql.NullTime
		pinnedAt    sql.NullTime
	)
	err := scan(
		&m.ID, &convKey, &m.SenderID, &m.ReceiverID, &m.GroupID, &m.Text, &attachments,
		&m.Edited, &editedAt, &m.Pinned, &pinnedAt, &m.PinnedBy,
		&seen, &listened, &saved, &reactions, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if editedAt.Valid {
		t := editedAt.Time
		m.EditedAt = &t
	}
	if pinnedAt.Valid {
		t := pinnedAt.Time
		m.PinnedAt = &t
	}
	for _, field := range []struct {
		raw  string
		dest any
	}{
		{attachments, &m.Attachments},
		{seen, &m.Seen},
		{listened, &m.Listened},
		{saved, &m.Saved},
		{reactions, &m.Reactions},
	} {
		if err := json.Unmarshal([]byte(field.raw), field.dest); err != nil {
			return nil, fmt.Errorf("decode message field: %w", err)
		}
	}
	return &m, nil
}

// CreateMessage persists a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, m *store.Message) error {
	attachments, err := marshalJSON(emptySlice(m.Attachments))
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}
	seen, _ := marshalJSON(emptySlice(m.Seen))
	listened, _ := marshalJSON(emptySlice(m.Listened))
	saved, _ := marshalJSON(emptySlice(m.Saved))
	reactions, _ := marshalJSON(emptySlice(m.Reactions))

	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		m.ID, m.ConversationKey(), m.SenderID, m.ReceiverID, m.GroupID, m.Text, attachments,
		m.Edited, m.EditedAt, m.Pinned, m.PinnedAt, m.PinnedBy,
		seen, listened, saved, reactions, m.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// emptySlice keeps nil slices serialized as [] rather than null.
func emptySlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	m, err := s.scanMessage(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return m, nil
}

// UpdateMessage rewrites the mutable state of a message.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, m *store.Message) error {
	seen, _ := marshalJSON(emptySlice(m.Seen))
	listened, _ := marshalJSON(emptySlice(m.Listened))
	saved, _ := marshalJSON(emptySlice(m.Saved))
	reactions, _ := marshalJSON(emptySlice(m.Reactions))

	query := `
		UPDATE messages
		SET body = ?, edited = ?, edited_at = ?,
		    pinned = ?, pinned_at = ?, pinned_by = ?,
		    seen = ?, listened = ?, saved = ?, reactions = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		m.Text, m.Edited, m.EditedAt,
		m.Pinned, m.PinnedAt, m.PinnedBy,
		seen, listened, saved, reactions,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("message: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteMessage hard-deletes a message.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("message: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteConversation hard-deletes every message of a conversation.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, convKey string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE conv_key = ?`, convKey); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// ListMessages retrieves messages of one conversation, newest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, convKey string, limit int, before *time.Time) ([]*store.Message, error) {
	var (
		query string
		args  []any
	)
	if before != nil {
		query = `
			SELECT ` + messageColumns + `
			FROM messages
			WHERE conv_key = ? AND created_at < ?
			ORDER BY created_at DESC
			LIMIT ?
		`
		args = []any{convKey, before.UTC(), limit}
	} else {
		query = `
			SELECT ` + messageColumns + `
			FROM messages
			WHERE conv_key = ?
			ORDER BY created_at DESC
			LIMIT ?
		`
		args = []any{convKey, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		m, err := s.scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// LastMessage returns the most recent message of a conversation, or nil.
func (s *SQLiteStore) LastMessage(ctx context.Context, convKey string) (*store.Message, error) {
	messages, err := s.ListMessages(ctx, convKey, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return messages[0], nil
}

// PinnedMessage returns the pinned message of a conversation, or nil.
func (s *SQLiteStore) PinnedMessage(ctx context.Context, convKey string) (*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conv_key = ? AND pinned = 1 LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, convKey)
	m, err := s.scanMessage(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query pinned message: %w", err)
	}
	return m, nil
}

// PinExclusive pins the given message and unpins any previously pinned
// message of the same conversation in a single transaction.
func (s *SQLiteStore) PinExclusive(ctx context.Context, convKey, messageID, actorID string, at time.Time) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin pin tx: %w", err)
	}
	defer tx.Rollback()

	var unpinnedID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM messages WHERE conv_key = ? AND pinned = 1`, convKey,
	).Scan(&unpinnedID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("query previous pin: %w", err)
	}
	if unpinnedID == messageID {
		// already pinned; nothing to change
		return "", tx.Commit()
	}

	if unpinnedID != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE messages SET pinned = 0, pinned_at = NULL, pinned_by = '' WHERE id = ?`,
			unpinnedID,
		)
		if err != nil {
			return "", fmt.Errorf("unpin previous: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE messages SET pinned = 1, pinned_at = ?, pinned_by = ? WHERE id = ? AND conv_key = ?`,
		at.UTC(), actorID, messageID, convKey,
	)
	if err != nil {
		return "", fmt.Errorf("pin message: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return "", fmt.Errorf("message: %w", store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit pin tx: %w", err)
	}
	return unpinnedID, nil
}

// ListParticipantMessages retrieves every message the user participates in,
// optionally bounded to messages created at or after since. Newest first.
func (s *SQLiteStore) ListParticipantMessages(ctx context.Context, userID string, groupIDs []string, since *time.Time) ([]*store.Message, error) {
	predicate, args := participantPredicate(userID, groupIDs)
	query := `SELECT ` + messageColumns + ` FROM messages WHERE ` + predicate
	if since != nil {
		query += ` AND created_at >= ?`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query participant messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		m, err := s.scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountConversations counts the distinct non-empty conversations of a user.
func (s *SQLiteStore) CountConversations(ctx context.Context, userID string, groupIDs []string) (int, error) {
	predicate, args := participantPredicate(userID, groupIDs)
	query := `SELECT COUNT(DISTINCT conv_key) FROM messages WHERE ` + predicate

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return count, nil
}

func participantPredicate(userID string, groupIDs []string) (string, []any) {
	predicate := `(sender_id = ? OR receiver_id = ?`
	args := []any{userID, userID}
	if len(groupIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(groupIDs)), ",")
		predicate += ` OR group_id IN (` + placeholders + `)`
		for _, id := range groupIDs {
			args = append(args, id)
		}
	}
	predicate += `)`
	return predicate, args
}

// ==== GroupStore implementation ====

// CreateGroup creates a group owned by its admin.
func (s *SQLiteStore) CreateGroup(ctx context.Context, g *store.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO groups (id, name, description, avatar_url, admin_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, g.ID, g.Name, g.Description, g.AvatarURL, g.AdminID, g.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	now := time.Now().UTC()
	for _, member := range g.Members {
		if member == g.AdminID {
			// admin is never a member row
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
			g.ID, member, now,
		)
		if err != nil {
			return fmt.Errorf("insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit group tx: %w", err)
	}
	return nil
}

// GetGroup retrieves a group with its member list.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*store.Group, error) {
	query := `
		SELECT id, name, description, avatar_url, admin_id, created_at
		FROM groups
		WHERE id = ?
	`
	var g store.Group
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.Description, &g.AvatarURL, &g.AdminID, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query group: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM group_members WHERE group_id = ? ORDER BY joined_at`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		g.Members = append(g.Members, member)
	}
	return &g, rows.Err()
}

// UpdateGroupInfo updates name, description and picture reference.
func (s *SQLiteStore) UpdateGroupInfo(ctx context.Context, id, name, description, avatarURL string) error {
	query := `UPDATE groups SET name = ?, description = ?, avatar_url = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, name, description, avatarURL, id)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("group: %w", store.ErrNotFound)
	}
	return nil
}

// AddMember adds a user to the group's member set; idempotent.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
		groupID, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from the group's member set.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("group member: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteGroup removes the group and its membership rows.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete group tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("delete group members: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("group: %w", store.ErrNotFound)
	}
	return tx.Commit()
}

// ListGroupsForUser lists IDs of groups where the user is admin or member.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT id FROM groups WHERE admin_id = ?
		UNION
		SELECT group_id FROM group_members WHERE user_id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query user groups: %w", err)
	}
	defer rows.Close()

	var groupIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		groupIDs = append(groupIDs, id)
	}
	return groupIDs, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
