package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/campuscore/campuscore/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeWelcomeEmail greets a freshly provisioned account.
	TaskTypeWelcomeEmail = "email:welcome"
	// TaskTypeNoticeBroadcast fans a published notice out to its audience.
	TaskTypeNoticeBroadcast = "notice:broadcast"
	// TaskTypeEnrollmentDigest summarizes enrollment activity for the day.
	TaskTypeEnrollmentDigest = "enrollment:digest"
)

// WelcomeEmailPayload describes the welcome message for one account.
type WelcomeEmailPayload struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// NoticeBroadcastPayload identifies the notice to fan out.
type NoticeBroadcastPayload struct {
	NoticeID int64  `json:"notice_id"`
	Title    string `json:"title"`
	Audience string `json:"audience"`
}

// NewWelcomeEmailTask constructs an Asynq task for the welcome email.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeEmail, data), nil
}

// NewNoticeBroadcastTask constructs an Asynq task for a notice fan-out.
func NewNoticeBroadcastTask(payload NoticeBroadcastPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNoticeBroadcast, data), nil
}

// NewEnrollmentDigestTask constructs the nightly digest task.
func NewEnrollmentDigestTask() *asynq.Task {
	return asynq.NewTask(TaskTypeEnrollmentDigest, nil)
}

// WelcomeEmailJob handles TaskTypeWelcomeEmail. No mail provider is wired,
// so the job logs what it would send.
type WelcomeEmailJob struct {
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewWelcomeEmailJob builds the welcome email handler.
func NewWelcomeEmailJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *WelcomeEmailJob {
	return &WelcomeEmailJob{logger: logger, metrics: metrics}
}

// Handle processes one welcome email task.
func (j *WelcomeEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	track := j.metrics.Track("welcome_email")
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return track.End(asynq.SkipRetry)
	}
	j.logger.Info("welcome email",
		slog.Int64("user_id", payload.UserID),
		slog.String("to", payload.Email))
	return track.End(nil)
}

// NoticeBroadcastJob handles TaskTypeNoticeBroadcast. It counts the active
// recipients for the notice's audience and logs the fan-out.
type NoticeBroadcastJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewNoticeBroadcastJob builds the broadcast handler.
func NewNoticeBroadcastJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *NoticeBroadcastJob {
	return &NoticeBroadcastJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes one notice broadcast task.
func (j *NoticeBroadcastJob) Handle(ctx context.Context, t *asynq.Task) error {
	track := j.metrics.Track("notice_broadcast")
	var payload NoticeBroadcastPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return track.End(asynq.SkipRetry)
	}
	recipients, err := j.countRecipients(ctx, payload.Audience)
	if err != nil {
		return track.End(err)
	}
	j.logger.Info("notice broadcast",
		slog.Int64("notice_id", payload.NoticeID),
		slog.String("audience", payload.Audience),
		slog.Int("recipients", recipients))
	return track.End(nil)
}

func (j *NoticeBroadcastJob) countRecipients(ctx context.Context, audience string) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE is_active`
	switch audience {
	case "faculty":
		query += ` AND role='faculty'`
	case "students":
		query += ` AND role='student'`
	}
	var count int
	err := j.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

// EnrollmentDigestJob handles TaskTypeEnrollmentDigest, summarizing the last
// day of enrollment movement.
type EnrollmentDigestJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewEnrollmentDigestJob builds the digest handler.
func NewEnrollmentDigestJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *EnrollmentDigestJob {
	return &EnrollmentDigestJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes one digest task.
func (j *EnrollmentDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	track := j.metrics.Track("enrollment_digest")
	var enrolled, dropped int
	err := j.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE enrolled_at >= NOW() - INTERVAL '1 day'),
		   COUNT(*) FILTER (WHERE status='dropped' AND updated_at >= NOW() - INTERVAL '1 day')
		 FROM enrollments`).Scan(&enrolled, &dropped)
	if err != nil {
		return track.End(err)
	}
	j.logger.Info("enrollment digest",
		slog.Int("enrolled_last_day", enrolled),
		slog.Int("dropped_last_day", dropped))
	return track.End(nil)
}
