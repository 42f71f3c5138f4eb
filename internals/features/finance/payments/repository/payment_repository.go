// internals/features/finance/payments/repository/payment_repository.go
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	feeModel "librarydesk_backend/internals/features/finance/fees/model"
	"librarydesk_backend/internals/features/finance/payments/dto"
	"librarydesk_backend/internals/features/finance/payments/model"
	branchModel "librarydesk_backend/internals/features/libraries/branches/model"
	libModel "librarydesk_backend/internals/features/libraries/libraries/model"
	planModel "librarydesk_backend/internals/features/libraries/plans/model"
	studentModel "librarydesk_backend/internals/features/students/students/model"
	studentRepo "librarydesk_backend/internals/features/students/students/repository"
	subModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
	authModel "librarydesk_backend/internals/features/users/auth/model"
	helper "librarydesk_backend/internals/helpers"
	"librarydesk_backend/internals/helpers/dbtime"
)

// Store is what the payment service needs from persistence.
type Store interface {
	Tx(ctx context.Context, fn func(tx Store) error) error

	Student(ctx context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error)
	Subscription(ctx context.Context, libraryID, id uuid.UUID) (*subModel.SubscriptionModel, error)
	LockFee(ctx context.Context, libraryID, id uuid.UUID) (*feeModel.AdditionalFeeModel, error)
	MarkFeePaid(ctx context.Context, libraryID, feeID uuid.UUID) error
	Library(ctx context.Context, libraryID uuid.UUID) (*libModel.LibraryModel, error)
	Describe(ctx context.Context, p model.PaymentModel) (string, error)

	NextInvoiceNumber(ctx context.Context, libraryID uuid.UUID, at time.Time) (string, error)
	Create(ctx context.Context, p *model.PaymentModel) error
	Save(ctx context.Context, p *model.PaymentModel) error
	LockPayment(ctx context.Context, libraryID, id uuid.UUID) (*model.PaymentModel, error)
	LockByExternalID(ctx context.Context, externalID string) (*model.PaymentModel, error)
}

type GormRepository struct {
	DB *gorm.DB
}

var _ Store = (*GormRepository)(nil)

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) with(ctx context.Context) *gorm.DB { return r.DB.WithContext(ctx) }

func (r *GormRepository) Tx(ctx context.Context, fn func(tx Store) error) error {
	return r.with(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{DB: tx})
	})
}

func (r *GormRepository) Student(ctx context.Context, libraryID, id uuid.UUID) (*studentModel.StudentModel, error) {
	return studentRepo.NewGormRepository(r.DB).Find(ctx, libraryID, id)
}

func (r *GormRepository) Subscription(ctx context.Context, libraryID, id uuid.UUID) (*subModel.SubscriptionModel, error) {
	var m subModel.SubscriptionModel
	if err := r.with(ctx).First(&m, "subscription_id = ? AND subscription_library_id = ?", id, libraryID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) LockFee(ctx context.Context, libraryID, id uuid.UUID) (*feeModel.AdditionalFeeModel, error) {
	var m feeModel.AdditionalFeeModel
	err := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "fee_id = ? AND fee_library_id = ?", id, libraryID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) MarkFeePaid(ctx context.Context, libraryID, feeID uuid.UUID) error {
	return r.with(ctx).Model(&feeModel.AdditionalFeeModel{}).
		Where("fee_id = ? AND fee_library_id = ?", feeID, libraryID).
		Update("fee_status", feeModel.FeePaid).Error
}

func (r *GormRepository) Library(ctx context.Context, libraryID uuid.UUID) (*libModel.LibraryModel, error) {
	var m libModel.LibraryModel
	if err := r.with(ctx).First(&m, "library_id = ?", libraryID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Describe names what a payment was for: the plan with its period, or the fee title.
func (r *GormRepository) Describe(ctx context.Context, p model.PaymentModel) (string, error) {
	if p.PaymentFeeID != nil {
		var title string
		err := r.with(ctx).Model(&feeModel.AdditionalFeeModel{}).Select("fee_title").
			Where("fee_id = ?", *p.PaymentFeeID).Scan(&title).Error
		return title, errors.Wrap(err, "fee title")
	}
	if p.PaymentSubscriptionID == nil {
		return "", nil
	}
	var row struct {
		PlanName string
		Start    time.Time
		End      time.Time
	}
	err := r.with(ctx).Table("subscriptions s").
		Select("pl.plan_name, s.subscription_start_date AS start, s.subscription_end_date AS \"end\"").
		Joins("JOIN plans pl ON pl.plan_id = s.subscription_plan_id").
		Where("s.subscription_id = ?", *p.PaymentSubscriptionID).
		Scan(&row).Error
	if err != nil {
		return "", errors.Wrap(err, "subscription plan")
	}
	return row.PlanName + " (" + row.Start.Format("02 Jan 2006") + " - " + row.End.Format("02 Jan 2006") + ")", nil
}

func (r *GormRepository) NextInvoiceNumber(ctx context.Context, libraryID uuid.UUID, at time.Time) (string, error) {
	return nextInvoiceNumber(ctx, r.DB, libraryID, at)
}

func (r *GormRepository) Create(ctx context.Context, p *model.PaymentModel) error {
	return r.with(ctx).Create(p).Error
}

func (r *GormRepository) Save(ctx context.Context, p *model.PaymentModel) error {
	return r.with(ctx).Save(p).Error
}

func (r *GormRepository) LockPayment(ctx context.Context, libraryID, id uuid.UUID) (*model.PaymentModel, error) {
	var m model.PaymentModel
	err := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "payment_id = ? AND payment_library_id = ?", id, libraryID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) LockByExternalID(ctx context.Context, externalID string) (*model.PaymentModel, error) {
	var m model.PaymentModel
	err := r.with(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "payment_external_id = ?", externalID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

/* ===== Listing ===== */

const rowSelect = `p.*, s.student_name, COALESCE(b.branch_name, '') AS branch_name, u.user_name AS collected_by_name`

func (r *GormRepository) filtered(ctx context.Context, libraryID uuid.UUID, q dto.ListQuery, loc *time.Location) (*gorm.DB, error) {
	db := r.with(ctx).Table("payments p").
		Joins("JOIN students s ON s.student_id = p.payment_student_id").
		Joins("LEFT JOIN branches b ON b.branch_id = p.payment_branch_id").
		Joins("LEFT JOIN users u ON u.user_id = p.payment_collected_by").
		Where("p.payment_library_id = ?", libraryID)

	if q.Status != "" {
		db = db.Where("p.payment_status = ?", q.Status)
	}
	if q.Method != "" {
		db = db.Where("p.payment_method = ?", q.Method)
	}
	if q.StudentID != "" {
		db = db.Where("p.payment_student_id = ?", q.StudentID)
	}
	if q.BranchID != "" {
		db = db.Where("p.payment_branch_id = ?", q.BranchID)
	}
	if q.CollectedBy != "" {
		db = db.Where("p.payment_collected_by = ?", q.CollectedBy)
	}
	if q.From != "" {
		from, err := dbtime.ParseDate(q.From, loc)
		if err != nil {
			return nil, err
		}
		db = db.Where("COALESCE(p.payment_paid_at, p.payment_created_at) >= ?", from)
	}
	if q.To != "" {
		to, err := dbtime.ParseDate(q.To, loc)
		if err != nil {
			return nil, err
		}
		db = db.Where("COALESCE(p.payment_paid_at, p.payment_created_at) < ?", to.AddDate(0, 0, 1))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := helper.LikePattern(s)
		db = db.Where("(s.student_name ILIKE ? OR p.payment_invoice_number ILIKE ? OR p.payment_reference ILIKE ?)", like, like, like)
	}
	return db, nil
}

// List returns one page plus the total count and amount under the same filter.
func (r *GormRepository) List(ctx context.Context, libraryID uuid.UUID, q dto.ListQuery, loc *time.Location, limit, offset int) ([]dto.PaymentRow, int64, decimal.Decimal, error) {
	base, err := r.filtered(ctx, libraryID, q, loc)
	if err != nil {
		return nil, 0, decimal.Zero, err
	}
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, decimal.Zero, errors.Wrap(err, "count payments")
	}
	var sum string
	if err := base.Session(&gorm.Session{}).Select("COALESCE(SUM(p.payment_amount), 0)::text").Scan(&sum).Error; err != nil {
		return nil, 0, decimal.Zero, errors.Wrap(err, "sum payments")
	}
	var rows []dto.PaymentRow
	q2 := base.Session(&gorm.Session{}).Select(rowSelect).
		Order("COALESCE(p.payment_paid_at, p.payment_created_at) DESC")
	if limit > 0 {
		q2 = q2.Limit(limit).Offset(offset)
	}
	if err := q2.Scan(&rows).Error; err != nil {
		return nil, 0, decimal.Zero, errors.Wrap(err, "list payments")
	}
	amount, _ := decimal.NewFromString(sum)
	return rows, total, amount, nil
}

/* ===== Invoice ===== */

func (r *GormRepository) Invoice(ctx context.Context, libraryID, id uuid.UUID, now time.Time) (dto.Invoice, error) {
	var p model.PaymentModel
	if err := r.with(ctx).First(&p, "payment_id = ? AND payment_library_id = ?", id, libraryID).Error; err != nil {
		return dto.Invoice{}, err
	}
	lib, err := r.Library(ctx, libraryID)
	if err != nil {
		return dto.Invoice{}, err
	}
	var st studentModel.StudentModel
	if err := r.with(ctx).First(&st, "student_id = ?", p.PaymentStudentID).Error; err != nil {
		return dto.Invoice{}, err
	}
	var br branchModel.BranchModel
	if err := r.with(ctx).Unscoped().First(&br, "branch_id = ?", p.PaymentBranchID).Error; err != nil {
		return dto.Invoice{}, err
	}

	inv := dto.Invoice{
		InvoiceNumber: p.PaymentInvoiceNumber,
		Status:        string(p.PaymentStatus),
		LibraryName:   lib.LibraryName,
		BranchName:    br.BranchName,
		BranchAddress: br.BranchAddress,
		StudentName:   st.StudentName,
		StudentEmail:  st.StudentEmail,
		StudentPhone:  st.StudentPhone,
		Amount:        p.PaymentAmount.StringFixed(2),
		Method:        string(p.PaymentMethod),
		Reference:     p.PaymentReference,
		PaidAt:        p.PaymentPaidAt,
		IssuedAt:      now,
	}
	if p.PaymentSubscriptionID != nil {
		var sub subModel.SubscriptionModel
		if err := r.with(ctx).First(&sub, "subscription_id = ?", *p.PaymentSubscriptionID).Error; err == nil {
			inv.PeriodStart = &sub.SubscriptionStartDate
			inv.PeriodEnd = &sub.SubscriptionEndDate
			var plan planModel.PlanModel
			if err := r.with(ctx).First(&plan, "plan_id = ?", sub.SubscriptionPlanID).Error; err == nil {
				inv.Description = plan.PlanName
			}
		}
	} else if p.PaymentFeeID != nil {
		var fee feeModel.AdditionalFeeModel
		if err := r.with(ctx).First(&fee, "fee_id = ?", *p.PaymentFeeID).Error; err == nil {
			inv.Description = fee.FeeTitle
		}
	}
	if p.PaymentCollectedBy != nil {
		var u authModel.UserModel
		if err := r.with(ctx).First(&u, "user_id = ?", *p.PaymentCollectedBy).Error; err == nil {
			inv.CollectedBy = &u.UserName
		}
	}
	return inv, nil
}
