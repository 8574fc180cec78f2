package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/domain"
	"go-leave/internal/leavetype"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/user"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Calculator recomputes and persists one balance. It always writes.
type Calculator interface {
	Compute(ctx context.Context, userID, leaveTypeID uuid.UUID) (Summary, error)
}

type Service interface {
	Calculator
	// WithTx binds the calculator to a caller's transaction so the
	// recompute commits or rolls back with the caller's writes.
	WithTx(tx *sql.Tx) Calculator
	ListForUser(ctx context.Context, actor domain.Actor) ([]BalanceResponse, error)
	Report(ctx context.Context) ([]ReportRow, error)
	ExportReport(ctx context.Context, w io.Writer) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	types  leavetype.Repository
	users  user.Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, types leavetype.Repository, users user.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{db: db, repo: repo, types: types, users: users, logger: l}
}

type txCalculator struct {
	repo   Repository
	types  leavetype.Repository
	logger *zap.Logger
}

func (s *service) WithTx(tx *sql.Tx) Calculator {
	return &txCalculator{repo: s.repo.WithTx(tx), types: s.types.WithTx(tx), logger: s.logger}
}

func (c *txCalculator) Compute(ctx context.Context, userID, leaveTypeID uuid.UUID) (Summary, error) {
	lt, err := c.types.FindByID(ctx, leaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Summary{}, balanceerrors.ErrLeaveTypeNotFound
		}
		return Summary{}, err
	}

	if err := c.repo.Ensure(ctx, userID, leaveTypeID, lt.YearlyLimit); err != nil {
		c.logger.Error("ensure balance failed", zap.String("user_id", userID.String()), zap.Error(err))
		return Summary{}, err
	}

	b, err := c.repo.LockForUpdate(ctx, userID, leaveTypeID)
	if err != nil {
		return Summary{}, err
	}

	spans, err := c.repo.ApprovedSpans(ctx, userID, leaveTypeID)
	if err != nil {
		return Summary{}, err
	}

	sum := Recompute(b.Total, spans)
	b.Used, b.Remaining = sum.Used, sum.Remaining
	if err := c.repo.Save(ctx, b); err != nil {
		c.logger.Error("save balance failed", zap.String("balance_id", b.ID.String()), zap.Error(err))
		return Summary{}, err
	}

	c.logger.Debug("balance recomputed",
		zap.String("user_id", userID.String()),
		zap.String("leave_type_id", leaveTypeID.String()),
		zap.Int("used", sum.Used),
		zap.Int("remaining", sum.Remaining),
	)
	return sum, nil
}

func (s *service) Compute(ctx context.Context, userID, leaveTypeID uuid.UUID) (Summary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("compute balance begin tx failed", zap.Error(err))
		return Summary{}, err
	}
	defer tx.Rollback()

	sum, err := s.WithTx(tx).Compute(ctx, userID, leaveTypeID)
	if err != nil {
		return Summary{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("compute balance commit failed", zap.Error(err))
		return Summary{}, err
	}
	return sum, nil
}

func (s *service) ListForUser(ctx context.Context, actor domain.Actor) ([]BalanceResponse, error) {
	types, err := s.types.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("list balances begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	calc := s.WithTx(tx)
	resp := make([]BalanceResponse, 0, len(types))
	for _, lt := range types {
		sum, err := calc.Compute(ctx, actor.UserID, lt.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, BalanceResponse{
			LeaveTypeID:   lt.ID.String(),
			LeaveTypeName: lt.Name,
			Summary:       sum,
		})
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("list balances commit failed", zap.Error(err))
		return nil, err
	}
	return resp, nil
}

func (s *service) Report(ctx context.Context) ([]ReportRow, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	types, err := s.types.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("balance report begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	calc := s.WithTx(tx)
	rows := make([]ReportRow, 0, len(users)*len(types))
	for _, u := range users {
		for _, lt := range types {
			sum, err := calc.Compute(ctx, u.ID, lt.ID)
			if err != nil {
				return nil, err
			}
			rows = append(rows, ReportRow{
				UserID:        u.ID.String(),
				UserName:      u.Name,
				UserEmail:     u.Email,
				LeaveTypeID:   lt.ID.String(),
				LeaveTypeName: lt.Name,
				Summary:       sum,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("balance report commit failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("balance report success", zap.Int("rows", len(rows)))
	return rows, nil
}

const reportSheet = "Balances"

func (s *service) ExportReport(ctx context.Context, w io.Writer) error {
	rows, err := s.Report(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return exportError(err)
	}

	header := []any{"Employee", "Email", "Leave Type", "Total", "Used", "Remaining"}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return exportError(err)
	}

	for i, r := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []any{r.UserName, r.UserEmail, r.LeaveTypeName, r.Total, r.Used, r.Remaining}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return exportError(err)
		}
	}

	if err := f.Write(w); err != nil {
		s.logger.Error("balance export write failed", zap.Error(err))
		return err
	}
	return nil
}

func exportError(err error) error {
	e := balanceerrors.ErrExportFailed
	return apperror.Wrap(err, e.Code, e.Message, e.HTTPStatus)
}
