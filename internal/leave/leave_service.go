package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/advisor"
	"go-leave/internal/balance"
	"go-leave/internal/domain"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/notification"
	"go-leave/internal/project"
	"go-leave/internal/shared/audit"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/metrics"
	"go-leave/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const historyLimit = 5

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actor domain.Actor, req SubmitLeaveRequest) (SubmitResult, error)
	GetByID(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error)
	ListMine(ctx context.Context, actor domain.Actor) ([]LeaveResponse, error)
	ListPending(ctx context.Context, actor domain.Actor) ([]LeaveResponse, error)
	Approve(ctx context.Context, actor domain.Actor, id, reviewReason string) (ReviewResult, error)
	Reject(ctx context.Context, actor domain.Actor, id, reviewReason string) (ReviewResult, error)
	NotifyLeads(ctx context.Context, actor domain.Actor, id string) (NotifyResult, error)
	Advise(ctx context.Context, actor domain.Actor, id string) (AdviceResponse, error)
}

// Deps are the collaborators of the leave workflow. Outbox, Advisor, Audit
// and Metrics are optional.
type Deps struct {
	Balances      balance.Service
	Users         user.Repository
	Projects      project.Repository
	Notifications notification.Repository
	Outbox        kafka.OutboxRepository
	Advisor       advisor.Advisor
	Audit         audit.Logger
	Metrics       *metrics.Metrics
}

type service struct {
	db   *sql.DB
	repo Repository
	Deps
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop()
	}
	if deps.Audit == nil {
		deps.Audit = audit.NewStdoutLogger(l)
	}
	return &service{db: db, repo: repo, Deps: deps, logger: l}
}

func (s *service) Submit(ctx context.Context, actor domain.Actor, req SubmitLeaveRequest) (SubmitResult, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit leave requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actor.UserID.String()),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	leaveTypeID, span, err := validateSubmitRequest(req)
	if err != nil {
		s.logger.Warn("submit leave validation failed", zap.Error(err))
		return SubmitResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return SubmitResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	summary, err := s.Balances.WithTx(tx).Compute(ctx, actor.UserID, leaveTypeID)
	if err != nil {
		s.logger.Error("submit leave compute balance failed", zap.Error(err))
		return SubmitResult{}, err
	}

	days := span.Days()
	if err := checkBalance(summary, days); err != nil {
		s.Metrics.LeaveSubmit.WithLabelValues("insufficient_balance").Inc()
		s.logger.Warn("submit leave insufficient balance",
			zap.String("actor_id", actor.UserID.String()),
			zap.Int("requested", days),
			zap.Int("remaining", summary.Remaining),
		)
		return SubmitResult{}, err
	}

	l := &LeaveRequest{
		ID:          uuid.New(),
		UserID:      actor.UserID,
		LeaveTypeID: leaveTypeID,
		StartDate:   span.Start,
		EndDate:     span.End,
		Reason:      strings.TrimSpace(req.Reason),
		Status:      domain.LeavePending,
		AppliedAt:   time.Now().UTC(),
	}
	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return SubmitResult{}, err
	}

	if err := s.enqueue(ctx, tx, events.LeaveSubmitted, l, actor); err != nil {
		s.logger.Error("submit leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
		return SubmitResult{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return SubmitResult{}, err
	}

	s.Metrics.LeaveSubmit.WithLabelValues("created").Inc()
	s.logger.Info("submit leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
		zap.Int("days", days),
	)

	return SubmitResult{Leave: mapToResponse(*l), Balance: summary}, nil
}

func (s *service) GetByID(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error) {
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		return LeaveResponse{}, hideMissing(actor, err)
	}

	if !actor.Is(l.UserID) {
		ok, err := s.canReview(ctx, actor, l.UserID)
		if err != nil {
			s.logger.Error("get leave authorization check failed", zap.Error(err))
			return LeaveResponse{}, err
		}
		if !ok {
			s.logger.Warn("get leave forbidden",
				zap.String("leave_id", id),
				zap.String("actor_id", actor.UserID.String()),
			)
			return LeaveResponse{}, leaveerrors.ErrForbidden
		}
	}

	return mapToResponse(*l), nil
}

func (s *service) ListMine(ctx context.Context, actor domain.Actor) ([]LeaveResponse, error) {
	leaves, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("list my leaves failed", zap.String("actor_id", actor.UserID.String()), zap.Error(err))
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListPending(ctx context.Context, actor domain.Actor) ([]LeaveResponse, error) {
	if !actor.IsHR() && !actor.Role.CanReview() {
		return nil, leaveerrors.ErrForbidden
	}

	var reviewer *uuid.UUID
	if !actor.IsHR() {
		reviewer = &actor.UserID
	}

	leaves, err := s.repo.ListPending(ctx, reviewer)
	if err != nil {
		s.logger.Error("list pending leaves failed", zap.String("actor_id", actor.UserID.String()), zap.Error(err))
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) Approve(ctx context.Context, actor domain.Actor, id, reviewReason string) (ReviewResult, error) {
	return s.review(ctx, actor, id, domain.DecisionApprove, reviewReason)
}

func (s *service) Reject(ctx context.Context, actor domain.Actor, id, reviewReason string) (ReviewResult, error) {
	return s.review(ctx, actor, id, domain.DecisionReject, reviewReason)
}

func (s *service) review(
	ctx context.Context,
	actor domain.Actor,
	id string,
	decision domain.Decision,
	reviewReason string,
) (ReviewResult, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("review leave requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("actor_id", actor.UserID.String()),
		zap.String("decision", string(decision)),
	)

	leaveID, err := uuid.Parse(id)
	if err != nil {
		return ReviewResult{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("review leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return ReviewResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, leaveID)
	if err != nil {
		return ReviewResult{}, hideMissing(actor, err)
	}

	ok, err := s.canReview(ctx, actor, l.UserID)
	if err != nil {
		s.logger.Error("review leave authorization check failed", zap.Error(err))
		return ReviewResult{}, err
	}
	if !ok {
		s.logger.Warn("review leave forbidden",
			zap.String("leave_id", id),
			zap.String("actor_id", actor.UserID.String()),
		)
		return ReviewResult{}, leaveerrors.ErrForbidden
	}

	if l.Status != domain.LeavePending {
		if decision == domain.DecisionApprove && l.Status == domain.LeaveApproved {
			s.Metrics.LeaveDecision.WithLabelValues("already_approved").Inc()
			s.logger.Info("review leave already approved", zap.String("leave_id", id))
			return ReviewResult{
				Leave:           mapToResponse(*l),
				AlreadyApproved: true,
				Message:         "leave request is already approved",
			}, nil
		}
		s.logger.Warn("review leave invalid transition",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status.String()),
			zap.String("to_status", decision.Target().String()),
		)
		return ReviewResult{}, leaveerrors.ErrInvalidStatusTransition
	}

	reviewReason = strings.TrimSpace(reviewReason)
	if reviewReason == "" {
		return ReviewResult{}, leaveerrors.ErrReviewReasonRequired
	}

	calc := s.Balances.WithTx(tx)
	if decision == domain.DecisionApprove {
		// The balance row lock taken here serializes approvals of one
		// (user, leave type) pair.
		before, err := calc.Compute(ctx, l.UserID, l.LeaveTypeID)
		if err != nil {
			s.logger.Error("review leave compute balance failed", zap.Error(err))
			return ReviewResult{}, err
		}
		if err := checkBalance(before, l.Span().Days()); err != nil {
			s.logger.Warn("review leave insufficient balance",
				zap.String("leave_id", id),
				zap.Int("remaining", before.Remaining),
			)
			return ReviewResult{}, err
		}
	}

	now := time.Now().UTC()
	reviewerID := actor.UserID
	l.Status = decision.Target()
	l.ReviewReason = &reviewReason
	l.ReviewedAt = &now
	l.ReviewerID = nil
	if !actor.System {
		l.ReviewerID = &reviewerID
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("review leave persist failed",
			zap.String("leave_id", id),
			zap.String("status", l.Status.String()),
			zap.Error(err),
		)
		return ReviewResult{}, err
	}

	result := ReviewResult{Message: "leave request " + strings.ToLower(l.Status.String())}
	if decision == domain.DecisionApprove {
		summary, err := calc.Compute(ctx, l.UserID, l.LeaveTypeID)
		if err != nil {
			s.logger.Error("review leave recompute balance failed", zap.Error(err))
			return ReviewResult{}, err
		}
		result.Balance = &summary
	}

	eventType := events.LeaveRejected
	if decision == domain.DecisionApprove {
		eventType = events.LeaveApproved
	}
	if err := s.enqueue(ctx, tx, eventType, l, actor); err != nil {
		s.logger.Error("review leave outbox persist failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return ReviewResult{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("review leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return ReviewResult{}, err
	}

	s.Metrics.LeaveDecision.WithLabelValues(strings.ToLower(l.Status.String())).Inc()
	s.Audit.Log(ctx, audit.Entry{
		Action:  "LEAVE_" + l.Status.String(),
		ActorID: actor.UserID.String(),
		Target:  l.ID.String(),
		Message: reviewReason,
		Meta: map[string]any{
			"user_id":       l.UserID.String(),
			"leave_type_id": l.LeaveTypeID.String(),
			"days":          l.Span().Days(),
		},
	})
	s.logger.Info("review leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("status", l.Status.String()),
	)

	result.Leave = mapToResponse(*l)
	return result, nil
}

func (s *service) NotifyLeads(ctx context.Context, actor domain.Actor, id string) (NotifyResult, error) {
	s.logger.Debug("notify leads requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actor.UserID.String()),
		zap.Bool("system", actor.System),
	)

	leaveID, err := uuid.Parse(id)
	if err != nil {
		return NotifyResult{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("notify leads begin tx failed", zap.Error(err))
		return NotifyResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, leaveID)
	if err != nil {
		return NotifyResult{}, hideMissing(actor, err)
	}

	if !actor.Is(l.UserID) {
		ok, err := s.canReview(ctx, actor, l.UserID)
		if err != nil {
			s.logger.Error("notify leads authorization check failed", zap.Error(err))
			return NotifyResult{}, err
		}
		if !ok {
			return NotifyResult{}, leaveerrors.ErrForbidden
		}
	}

	if l.LeadsNotified {
		s.logger.Info("notify leads already done", zap.String("leave_id", id))
		return NotifyResult{AlreadyNotified: true, Message: "project leads were already notified"}, nil
	}

	owner, err := s.Users.FindByID(ctx, l.UserID)
	if err != nil {
		return NotifyResult{}, mapNotFound(err, leaveerrors.ErrUserNotFound)
	}

	projects, err := s.Projects.ProjectsOf(ctx, l.UserID)
	if err != nil {
		s.logger.Error("notify leads load projects failed", zap.Error(err))
		return NotifyResult{}, err
	}

	items := leadNotifications(owner, l, projects)

	var created int64
	if len(items) > 0 {
		created, err = s.Notifications.WithTx(tx).CreateMany(ctx, items)
		if err != nil {
			s.logger.Error("notify leads persist failed", zap.String("leave_id", id), zap.Error(err))
			return NotifyResult{}, err
		}
	}

	if err := qtx.MarkLeadsNotified(ctx, l.ID); err != nil {
		s.logger.Error("notify leads mark failed", zap.String("leave_id", id), zap.Error(err))
		return NotifyResult{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("notify leads commit failed", zap.String("leave_id", id), zap.Error(err))
		return NotifyResult{}, err
	}

	s.logger.Info("notify leads success",
		zap.String("leave_id", id),
		zap.Int64("created", created),
	)
	return NotifyResult{
		Created: int(created),
		Message: fmt.Sprintf("%d project lead(s) notified", created),
	}, nil
}

// leadNotifications builds one message per distinct project lead who is
// neither the requester nor the requester's direct manager.
func leadNotifications(owner *user.User, l *LeaveRequest, projects []project.Project) []notification.Notification {
	seen := make(map[uuid.UUID]bool)
	items := make([]notification.Notification, 0, len(projects))
	for _, p := range projects {
		if p.LeadID == nil {
			continue
		}
		lead := *p.LeadID
		if lead == owner.ID || seen[lead] {
			continue
		}
		if owner.ManagerID != nil && *owner.ManagerID == lead {
			continue
		}
		seen[lead] = true

		leaveID := l.ID
		items = append(items, notification.Notification{
			ID:             uuid.New(),
			RecipientID:    lead,
			LeaveRequestID: &leaveID,
			Message: fmt.Sprintf("%s (project %s) applied for leave from %s to %s: %s",
				owner.Name, p.Name,
				l.StartDate.Format(domain.DateLayout), l.EndDate.Format(domain.DateLayout),
				l.Reason,
			),
		})
	}
	return items
}

func (s *service) Advise(ctx context.Context, actor domain.Actor, id string) (AdviceResponse, error) {
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return AdviceResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		return AdviceResponse{}, hideMissing(actor, err)
	}

	ok, err := s.canReview(ctx, actor, l.UserID)
	if err != nil {
		s.logger.Error("advise leave authorization check failed", zap.Error(err))
		return AdviceResponse{}, err
	}
	if !ok {
		return AdviceResponse{}, leaveerrors.ErrForbidden
	}

	if s.Advisor == nil {
		return AdviceResponse{LeaveID: id, Advisory: advisor.UnavailablePrefix + " advisor not configured"}, nil
	}

	text, err := s.adviceContext(ctx, l)
	if err != nil {
		s.logger.Error("advise leave build context failed", zap.String("leave_id", id), zap.Error(err))
		return AdviceResponse{}, err
	}

	roleHint := "manager"
	if actor.IsHR() {
		roleHint = "hr"
	}
	return AdviceResponse{LeaveID: id, Advisory: s.Advisor.Advise(ctx, text, roleHint)}, nil
}

func (s *service) adviceContext(ctx context.Context, l *LeaveRequest) (string, error) {
	summary, err := s.Balances.Compute(ctx, l.UserID, l.LeaveTypeID)
	if err != nil {
		return "", err
	}
	projects, err := s.Projects.ProjectsOf(ctx, l.UserID)
	if err != nil {
		return "", err
	}
	history, err := s.repo.History(ctx, l.UserID, l.ID, historyLimit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	name := l.UserID.String()
	if l.User != nil {
		name = l.User.Name
	}
	typeName := l.LeaveTypeID.String()
	if l.LeaveType != nil {
		typeName = l.LeaveType.Name
	}
	fmt.Fprintf(&b, "Employee: %s\n", name)
	fmt.Fprintf(&b, "Leave type: %s\n", typeName)
	fmt.Fprintf(&b, "Period: %s to %s (%d days)\n",
		l.StartDate.Format(domain.DateLayout), l.EndDate.Format(domain.DateLayout), l.Span().Days())
	fmt.Fprintf(&b, "Reason: %s\n", l.Reason)
	fmt.Fprintf(&b, "Balance: total %d, used %d, remaining %d\n", summary.Total, summary.Used, summary.Remaining)

	b.WriteString("Projects:")
	if len(projects) == 0 {
		b.WriteString(" none")
	}
	for _, p := range projects {
		fmt.Fprintf(&b, " %s (%s);", p.Name, p.Status)
	}
	b.WriteString("\nPrevious leaves:")
	if len(history) == 0 {
		b.WriteString(" none")
	}
	for _, h := range history {
		fmt.Fprintf(&b, " %s to %s %s;",
			h.StartDate.Format(domain.DateLayout), h.EndDate.Format(domain.DateLayout), h.Status)
	}
	b.WriteString("\n")
	return b.String(), nil
}

// canReview is evaluated against live data on every call: HR, the owner's
// direct manager, or the lead of a project the owner belongs to.
func (s *service) canReview(ctx context.Context, actor domain.Actor, ownerID uuid.UUID) (bool, error) {
	if actor.IsHR() {
		return true, nil
	}
	if !actor.Role.CanReview() || actor.Is(ownerID) {
		return false, nil
	}

	owner, err := s.Users.FindByID(ctx, ownerID)
	if err != nil {
		return false, mapNotFound(err, leaveerrors.ErrUserNotFound)
	}
	if owner.ManagerID != nil && *owner.ManagerID == actor.UserID {
		return true, nil
	}
	return s.Projects.IsLeadOf(ctx, actor.UserID, ownerID)
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, eventType string, l *LeaveRequest, actor domain.Actor) error {
	if s.Outbox == nil {
		return nil
	}
	event := events.LeaveEvent{
		EventType:   eventType,
		LeaveID:     l.ID.String(),
		UserID:      l.UserID.String(),
		LeaveTypeID: l.LeaveTypeID.String(),
		Status:      l.Status.String(),
		OccurredAt:  time.Now().UTC(),
	}
	if !actor.System {
		event.ActorID = actor.UserID.String()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func checkBalance(summary balance.Summary, days int) error {
	details := leaveerrors.BalanceDetails{
		Remaining: summary.Remaining,
		Requested: days,
		Shortfall: days - summary.Remaining,
	}
	if summary.Remaining <= 0 {
		details.Shortfall = days
		return leaveerrors.ErrNoBalanceLeft.WithDetails(details)
	}
	if days > summary.Remaining {
		return leaveerrors.ErrInsufficientBalance.WithDetails(details)
	}
	return nil
}

func validateSubmitRequest(req SubmitLeaveRequest) (uuid.UUID, domain.Span, error) {
	leaveTypeID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return uuid.Nil, domain.Span{}, leaveerrors.ErrInvalidLeaveTypeID
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, domain.Span{}, leaveerrors.ErrInvalidDateFormat
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, domain.Span{}, leaveerrors.ErrInvalidDateFormat
	}
	span := domain.Span{Start: start, End: end}
	if !span.Valid() {
		return uuid.Nil, domain.Span{}, leaveerrors.ErrInvalidDateRange
	}
	return leaveTypeID, span, nil
}

// hideMissing reports a missing leave request as NotFound only to HR, who
// may see every request. Anyone else gets the same Forbidden as an
// unauthorized lookup.
func hideMissing(actor domain.Actor, err error) error {
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if actor.IsHR() {
		return leaveerrors.ErrLeaveNotFound
	}
	return leaveerrors.ErrForbidden
}

func mapNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:            l.ID.String(),
		UserID:        l.UserID.String(),
		LeaveTypeID:   l.LeaveTypeID.String(),
		StartDate:     l.StartDate.Format(domain.DateLayout),
		EndDate:       l.EndDate.Format(domain.DateLayout),
		TotalDays:     l.Span().Days(),
		Reason:        l.Reason,
		Status:        l.Status.String(),
		AppliedAt:     l.AppliedAt.Format(time.RFC3339),
		ReviewReason:  l.ReviewReason,
		LeadsNotified: l.LeadsNotified,
	}
	if l.User != nil {
		resp.UserName = l.User.Name
	}
	if l.LeaveType != nil {
		resp.LeaveTypeName = l.LeaveType.Name
	}
	if l.ReviewerID != nil {
		v := l.ReviewerID.String()
		resp.ReviewerID = &v
	}
	if l.ReviewedAt != nil {
		v := l.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &v
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
