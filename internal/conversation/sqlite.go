package conversation

import (
	"context"
	"database/sql"
	"time"

	"github.com/roundtable-ai/roundtable/internal/database"
	"github.com/roundtable-ai/roundtable/internal/types"
)

// SQLiteMessageStore implements MessageStore backed by the
// conversation_messages table. Seq assignment rides on the table's
// AUTOINCREMENT primary key, so append order is durable across restarts.
type SQLiteMessageStore struct {
	db *database.DB
}

// NewSQLiteMessageStore creates a SQLite-backed message store.
func NewSQLiteMessageStore(db *database.DB) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db}
}

const messageColumns = `seq, id, conversation_id, sender_id, sender_type,
	content, intent, confidence, reply_to, created_at`

// Append stores the message and assigns its Seq.
func (s *SQLiteMessageStore) Append(ctx context.Context, m *Message) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var confidence sql.NullFloat64
	if m.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *m.Confidence, Valid: true}
	}

	result, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO conversation_messages
			(id, conversation_id, sender_id, sender_type, content, intent, confidence, reply_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.SenderID, m.SenderType,
		m.Content, m.Intent, confidence, m.ReplyTo, m.CreatedAt.UTC(),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to append message", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to read assigned seq", err)
	}
	m.Seq = seq

	return nil
}

// Recent returns the newest n messages in chronological order.
func (s *SQLiteMessageStore) Recent(ctx context.Context, conversationID types.ID, n int) ([]*Message, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+` FROM conversation_messages
			WHERE conversation_id = ?
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC`,
		conversationID, n,
	)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load recent messages", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// Count returns the total number of messages in the conversation.
func (s *SQLiteMessageStore) Count(ctx context.Context, conversationID types.ID) (int, error) {
	var count int
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_messages WHERE conversation_id = ?`,
		conversationID,
	).Scan(&count)
	if err != nil {
		return 0, types.WrapError(types.DB_QUERY_FAILED, "failed to count messages", err)
	}
	return count, nil
}

// Between returns messages with Seq in (afterSeq, uptoSeq], in order.
func (s *SQLiteMessageStore) Between(ctx context.Context, conversationID types.ID, afterSeq, uptoSeq int64) ([]*Message, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+messageColumns+` FROM conversation_messages
		WHERE conversation_id = ? AND seq > ? AND seq <= ?
		ORDER BY seq ASC`,
		conversationID, afterSeq, uptoSeq,
	)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load message range", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		var (
			m          Message
			confidence sql.NullFloat64
		)
		err := rows.Scan(
			&m.Seq, &m.ID, &m.ConversationID, &m.SenderID, &m.SenderType,
			&m.Content, &m.Intent, &confidence, &m.ReplyTo, &m.CreatedAt,
		)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan message", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			m.Confidence = &c
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating messages", err)
	}

	return messages, nil
}

// SQLiteSummaryStore implements SummaryStore backed by the
// conversation_summaries table.
type SQLiteSummaryStore struct {
	db *database.DB
}

// NewSQLiteSummaryStore creates a SQLite-backed summary store.
func NewSQLiteSummaryStore(db *database.DB) *SQLiteSummaryStore {
	return &SQLiteSummaryStore{db: db}
}

// Get returns the summary for a conversation, or nil if none exists yet.
func (s *SQLiteSummaryStore) Get(ctx context.Context, conversationID types.ID) (*Summary, error) {
	var (
		summary Summary
		lastAt  sql.NullTime
	)
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT conversation_id, summary, last_summary_at, message_count_at_summary
		FROM conversation_summaries WHERE conversation_id = ?`,
		conversationID,
	).Scan(&summary.ConversationID, &summary.Text, &lastAt, &summary.MessageCountAtSummary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load summary", err)
	}
	if lastAt.Valid {
		summary.LastSummaryAt = lastAt.Time
	}
	return &summary, nil
}

// CompareAndSet writes the summary only if the stored token still matches.
func (s *SQLiteSummaryStore) CompareAndSet(ctx context.Context, sum *Summary, expectedCount int) (bool, error) {
	if sum.LastSummaryAt.IsZero() {
		sum.LastSummaryAt = time.Now().UTC()
	}

	var swapped bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT message_count_at_summary FROM conversation_summaries WHERE conversation_id = ?`,
			sum.ConversationID,
		).Scan(&current)
		switch {
		case err == sql.ErrNoRows:
			current = 0
		case err != nil:
			return err
		}

		if current != expectedCount {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversation_summaries
				(conversation_id, summary, last_summary_at, message_count_at_summary)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(conversation_id) DO UPDATE SET
				summary = excluded.summary,
				last_summary_at = excluded.last_summary_at,
				message_count_at_summary = excluded.message_count_at_summary`,
			sum.ConversationID, sum.Text, sum.LastSummaryAt.UTC(), sum.MessageCountAtSummary,
		)
		if err != nil {
			return err
		}
		swapped = true
		return nil
	})
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to update summary", err)
	}

	return swapped, nil
}
