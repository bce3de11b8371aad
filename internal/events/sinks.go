package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	awsclients "mergington-activities/internal/common/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/redis/go-redis/v9"
)

// ==========================
// Redis pub/sub
// ==========================

type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Deliver(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", p.channel, err)
	}
	return nil
}

// ==========================
// SNS topic
// ==========================

type SNSPublisher struct {
	client   awsclients.SNSAPI
	topicARN string
}

func NewSNSPublisher(client awsclients.SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

func (p *SNSPublisher) Name() string { return "sns" }

func (p *SNSPublisher) Deliver(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(data)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Type)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// ==========================
// Postgres audit log
// ==========================

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// AuditLog appends events to a Postgres table. It records history only;
// the registry is never rebuilt from it.
type AuditLog struct {
	db    *sql.DB
	table string
}

func NewAuditLog(db *sql.DB, table string) (*AuditLog, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name: %q", table)
	}
	return &AuditLog{db: db, table: table}, nil
}

func (a *AuditLog) Name() string { return "audit" }

// EnsureSchema creates the audit table when it does not exist.
func (a *AuditLog) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	event_type TEXT NOT NULL,
	activity TEXT NOT NULL,
	email TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
)`, a.table)
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

func (a *AuditLog) Deliver(ctx context.Context, event Event) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (id, event_type, activity, email, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
		a.table,
	)
	_, err := a.db.ExecContext(ctx, query,
		event.ID, string(event.Type), event.Activity, event.Email, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// History returns the most recent events for an activity, newest first.
func (a *AuditLog) History(ctx context.Context, activity string, limit int) ([]Event, error) {
	query := fmt.Sprintf(
		`SELECT id, event_type, activity, email, occurred_at FROM %s WHERE activity = $1 ORDER BY occurred_at DESC LIMIT $2`,
		a.table,
	)
	rows, err := a.db.QueryContext(ctx, query, activity, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e         Event
			eventType string
		)
		if err := rows.Scan(&e.ID, &eventType, &e.Activity, &e.Email, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Type = Type(eventType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ==========================
// SES confirmation mail
// ==========================

type Mailer struct {
	client awsclients.SESAPI
	from   string
}

func NewMailer(client awsclients.SESAPI, from string) *Mailer {
	return &Mailer{client: client, from: from}
}

func (m *Mailer) Name() string { return "mail" }

func (m *Mailer) Deliver(ctx context.Context, event Event) error {
	subject, body := renderMail(event)

	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{event.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", event.Email, err)
	}
	return nil
}

func renderMail(event Event) (string, string) {
	switch event.Type {
	case TypeUnregistered:
		return fmt.Sprintf("You have left %s", event.Activity),
			fmt.Sprintf("Hi,\n\nYou are no longer registered for %s.\n\nMergington High School", event.Activity)
	default:
		return fmt.Sprintf("You are signed up for %s", event.Activity),
			fmt.Sprintf("Hi,\n\nYour spot in %s is confirmed.\n\nMergington High School", event.Activity)
	}
}
