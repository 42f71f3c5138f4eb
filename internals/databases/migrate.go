package database

import (
	"log"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	attendanceModel "librarydesk_backend/internals/features/attendance/attendance/model"
	feeModel "librarydesk_backend/internals/features/finance/fees/model"
	handoverModel "librarydesk_backend/internals/features/finance/handovers/model"
	paymentModel "librarydesk_backend/internals/features/finance/payments/model"
	branchModel "librarydesk_backend/internals/features/libraries/branches/model"
	libraryModel "librarydesk_backend/internals/features/libraries/libraries/model"
	planModel "librarydesk_backend/internals/features/libraries/plans/model"
	seatModel "librarydesk_backend/internals/features/libraries/seats/model"
	noteModel "librarydesk_backend/internals/features/students/notes/model"
	studentModel "librarydesk_backend/internals/features/students/students/model"
	subscriptionModel "librarydesk_backend/internals/features/subscriptions/subscriptions/model"
	authModel "librarydesk_backend/internals/features/users/auth/model"
)

// Models in dependency order.
func Models() []any {
	return []any{
		&libraryModel.LibraryModel{},
		&authModel.UserModel{},
		&authModel.TokenBlacklistModel{},
		&branchModel.BranchModel{},
		&seatModel.SeatModel{},
		&seatModel.LockerModel{},
		&planModel.PlanModel{},
		&studentModel.StudentModel{},
		&subscriptionModel.SubscriptionModel{},
		&feeModel.AdditionalFeeModel{},
		&paymentModel.PaymentModel{},
		&handoverModel.CashHandoverModel{},
		&noteModel.StudentNoteModel{},
		&attendanceModel.AttendanceModel{},
	}
}

// Indexes gorm tags cannot express (partial / expression indexes).
var rawIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_student_email_per_library
	   ON students (student_library_id, LOWER(student_email))
	   WHERE student_email IS NOT NULL AND student_email <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_student_phone_per_library
	   ON students (student_library_id, student_phone)
	   WHERE student_phone IS NOT NULL AND student_phone <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_branch_slug_per_library
	   ON branches (branch_library_id, LOWER(branch_slug))
	   WHERE branch_deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_subscription_student_live
	   ON subscriptions (subscription_student_id, subscription_branch_id, subscription_end_date)
	   WHERE subscription_status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_payment_collector_paid
	   ON payments (payment_library_id, payment_collected_by, payment_paid_at)
	   WHERE payment_status = 'completed'`,
	`CREATE INDEX IF NOT EXISTS idx_handover_staff_created
	   ON cash_handovers (handover_library_id, handover_staff_id, handover_created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_attendance_open_per_student
	   ON attendance (attendance_student_id)
	   WHERE attendance_check_out_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_student_library_name
	   ON students (student_library_id, LOWER(student_name))`,
}

func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return errors.Wrap(err, "enable pgcrypto")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	for _, stmt := range rawIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return errors.Wrapf(err, "index: %s", stmt)
		}
	}
	log.Println("✅ Migration finished")
	return nil
}
