package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

// Mailer is the delivery backend for email tasks; mailingservices.Mailgun
// satisfies it.
type Mailer interface {
	SendMagicLink(email, link string) (string, error)
	SendCompanyInvite(email, companyName, link string) (string, error)
}

const TypeEmailDelivery = "email:deliver"

const (
	EmailKindMagicLink     = "magic_link"
	EmailKindCompanyInvite = "company_invite"
)

// EmailPayload is the task body for a transactional email.
type EmailPayload struct {
	To          string `json:"to"`
	Kind        string `json:"kind"`
	Link        string `json:"link"`
	CompanyName string `json:"company_name,omitempty"`
}

// Client enqueues background tasks onto the redis-backed queue.
type Client struct {
	client *asynq.Client
}

func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// EnqueueEmail schedules an email for delivery with retries. Handlers are
// idempotent so a redelivered task only re-sends the same mail.
func (c *Client) EnqueueEmail(ctx context.Context, p EmailPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeEmailDelivery, payload)
	_, err = c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Queue("mail"))
	return err
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Worker consumes queued tasks. Run blocks until Shutdown.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(redisURL string, mail Mailer) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"mail": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, func(ctx context.Context, t *asynq.Task) error {
		var p EmailPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("email task: bad payload: %w", err)
		}
		switch p.Kind {
		case EmailKindMagicLink:
			_, err := mail.SendMagicLink(p.To, p.Link)
			return err
		case EmailKindCompanyInvite:
			_, err := mail.SendCompanyInvite(p.To, p.CompanyName, p.Link)
			return err
		default:
			log.Printf("email task: unknown kind %q, dropping", p.Kind)
			return nil
		}
	})

	return &Worker{server: server, mux: mux}, nil
}

func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
