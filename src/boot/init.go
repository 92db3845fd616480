package boot

import (
	"log"
	"time"
	"vms/src/config"
	"vms/src/db"
	"vms/src/lib"
	"vms/src/lib/mailer"
	"vms/src/models"
	"vms/src/types"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Visit{},
		&models.VisitEvent{},
		&models.BlacklistEntry{},
		&models.Approval{},
		&models.Access{},
		&models.Invitation{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	id, err := lib.CreateCronJob(SendAccessReminders, 1*time.Hour)
	if err != nil {
		log.Printf("Error scheduling reminder job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s\n", *id)
	id, err = lib.CreateCronJob(CancelStalePendingVisits, 1*time.Hour)
	if err != nil {
		log.Printf("Error scheduling stale visits job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s\n", *id)
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// SendAccessReminders mails the creator and every guest of accesses starting
// within the next 24 hours. Each access is reminded once.
func SendAccessReminders() error {
	db := db.GetDb()
	now := time.Now()
	in24h := now.Add(24 * time.Hour)
	var accesses []models.Access
	err := db.
		Where(&models.Access{Status: types.ACCESS_ACTIVE}).
		Where("reminder_sent = ?", false).
		Where("starts_at BETWEEN ? AND ?", now, in24h).
		Preload("Creator").
		Preload("Visits").
		Preload("Invitations").
		Limit(100).
		Find(&accesses).
		Error
	if err != nil {
		log.Printf("Error retrieving accesses for reminders: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d accesses due for reminders", len(accesses))
	for _, access := range accesses {
		data := mailer.Data{
			AccessName: access.Name,
			Location:   access.Location,
			StartsAt:   access.StartsAt.Format(config.TIME_PARSE_FORMAT),
		}
		if access.Creator != nil {
			data.HostName = access.Creator.Name
			mailer.Dispatch(mailer.TemplateAccessReminderOwner, []string{access.Creator.Email}, data)
		}
		seen := map[string]bool{}
		var guests []string
		for _, v := range access.Visits {
			if v.VisitorEmail != "" && !seen[v.VisitorEmail] {
				seen[v.VisitorEmail] = true
				guests = append(guests, v.VisitorEmail)
			}
		}
		for _, inv := range access.Invitations {
			if inv.Email != "" && !seen[inv.Email] {
				seen[inv.Email] = true
				guests = append(guests, inv.Email)
			}
		}
		if len(guests) > 0 {
			mailer.Dispatch(mailer.TemplateAccessReminderGuest, guests, data)
		}
		err := db.Model(&models.Access{}).
			Where("id = ?", access.ID).
			Update("reminder_sent", true).
			Error
		if err != nil {
			log.Printf("Failed to mark reminder for access [%d]: %s\n", access.ID, err.Error())
		}
	}
	return nil
}

// CancelStalePendingVisits closes out visits whose approval never arrived and
// whose scheduled date passed more than 24 hours ago.
func CancelStalePendingVisits() {
	db := db.GetDb()
	cutoff := time.Now().Add(-24 * time.Hour)
	err := db.
		Transaction(func(tx *gorm.DB) error {
			return tx.Model(&models.Visit{}).
				Where("status = ?", types.VISIT_PENDING).
				Where("scheduled_date < ?", cutoff).
				Update("status", types.VISIT_CANCELLED).
				Error
		})
	if err != nil {
		log.Printf("Error while cancelling stale visits: %s\n", err.Error())
	}
}
