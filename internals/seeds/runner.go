// Package seeds loads demo data for local development. Seeds are idempotent: an existing
// owner email skips the whole library.
package seeds

import (
	"context"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"librarydesk_backend/internals/constants"
	branchModel "librarydesk_backend/internals/features/libraries/branches/model"
	branchRepo "librarydesk_backend/internals/features/libraries/branches/repository"
	planModel "librarydesk_backend/internals/features/libraries/plans/model"
	seatModel "librarydesk_backend/internals/features/libraries/seats/model"
	authModel "librarydesk_backend/internals/features/users/auth/model"
	authRepo "librarydesk_backend/internals/features/users/auth/repository"
	authService "librarydesk_backend/internals/features/users/auth/service"
	helper "librarydesk_backend/internals/helpers"
)

type UserSeed struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type BranchSeed struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Seats   []string `json:"seats"`
	Lockers []string `json:"lockers"`
}

type PlanSeed struct {
	Name          string          `json:"name"`
	DurationDays  int             `json:"duration_days"`
	Price         decimal.Decimal `json:"price"`
	IncludeLocker bool            `json:"includes_locker"`
}

type LibrarySeed struct {
	Name     string       `json:"name"`
	Timezone string       `json:"timezone"`
	Owner    UserSeed     `json:"owner"`
	Staff    []UserSeed   `json:"staff"`
	Branches []BranchSeed `json:"branches"`
	Plans    []PlanSeed   `json:"plans"`
}

func SeedLibrariesFromJSON(ctx context.Context, db *gorm.DB, filePath string) error {
	log.Println("📥 Reading seed file:", filePath)
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}
	var libs []LibrarySeed
	if err := sonic.Unmarshal(raw, &libs); err != nil {
		return errors.Wrap(err, "decode seed file")
	}
	for _, l := range libs {
		if _, err := authRepo.FindUserByEmail(ctx, db, l.Owner.Email); err == nil {
			log.Printf("ℹ️ owner %s already exists, skipped", l.Owner.Email)
			continue
		}
		if err := seedLibrary(ctx, db, l); err != nil {
			return errors.Wrapf(err, "seed %s", l.Name)
		}
		log.Printf("✅ seeded %s", l.Name)
	}
	return nil
}

func newUser(u UserSeed, role string) (authModel.UserModel, error) {
	m := authModel.UserModel{UserName: u.Name, UserEmail: u.Email, UserRole: role, UserIsActive: true}
	err := m.SetPassword(u.Password)
	return m, err
}

func seedLibrary(ctx context.Context, db *gorm.DB, l LibrarySeed) error {
	owner, err := newUser(l.Owner, constants.RoleOwner)
	if err != nil {
		return err
	}
	lib, err := authService.CreateLibraryWithOwner(ctx, db, l.Name, l.Timezone, &owner)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range l.Staff {
			u, err := newUser(s, constants.RoleStaff)
			if err != nil {
				return err
			}
			u.UserLibraryID = lib.LibraryID
			if err := authRepo.CreateUser(ctx, tx, &u); err != nil {
				return err
			}
		}

		for _, p := range l.Plans {
			plan := planModel.PlanModel{
				PlanLibraryID: lib.LibraryID, PlanName: p.Name, PlanDurationDays: p.DurationDays,
				PlanPrice: p.Price, PlanIncludesLocker: p.IncludeLocker, PlanIsActive: true,
			}
			if err := tx.Create(&plan).Error; err != nil {
				return err
			}
		}

		for _, b := range l.Branches {
			addr := b.Address
			branch := branchModel.BranchModel{
				BranchLibraryID: lib.LibraryID,
				BranchName:      b.Name,
				BranchSlug:      helper.Slugify(b.Name, 140),
				BranchAddress:   &addr,
				BranchQRToken:   branchRepo.NewQRToken(),
				BranchIsActive:  true,
			}
			if err := tx.Create(&branch).Error; err != nil {
				return err
			}
			for _, n := range b.Seats {
				seat := seatModel.SeatModel{SeatLibraryID: lib.LibraryID, SeatBranchID: branch.BranchID, SeatNumber: n, SeatIsActive: true}
				if err := tx.Create(&seat).Error; err != nil {
					return err
				}
			}
			for _, n := range b.Lockers {
				locker := seatModel.LockerModel{LockerLibraryID: lib.LibraryID, LockerBranchID: branch.BranchID, LockerNumber: n, LockerIsActive: true}
				if err := tx.Create(&locker).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
