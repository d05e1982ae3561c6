package jobs

import (
	"log"
	"time"

	"pathology-lab-server/database"
	"pathology-lab-server/models"
)

// BlackoutSweepJob removes blackout windows whose end date has passed
type BlackoutSweepJob struct {
	stopChan chan bool
}

// NewBlackoutSweepJob creates a new blackout sweep job
func NewBlackoutSweepJob() *BlackoutSweepJob {
	return &BlackoutSweepJob{
		stopChan: make(chan bool),
	}
}

// Start begins the blackout sweep job
func (j *BlackoutSweepJob) Start() {
	go j.run()
	log.Println("🚀 Blackout sweep job started")
}

// Stop stops the blackout sweep job
func (j *BlackoutSweepJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Blackout sweep job stopped")
}

func (j *BlackoutSweepJob) run() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	// Sweep once at startup so a restart never carries stale windows
	j.sweepExpiredWindows()

	for {
		select {
		case <-ticker.C:
			j.sweepExpiredWindows()
		case <-j.stopChan:
			return
		}
	}
}

// sweepExpiredWindows deletes blackout windows that ended before today.
// Booking creation also checks the live set, so this is cleanup, not
// correctness.
func (j *BlackoutSweepJob) sweepExpiredWindows() {
	today := time.Now().Truncate(24 * time.Hour)

	res := database.DB.Where("end_date < ?", today).Delete(&models.BlackoutDate{})
	if res.Error != nil {
		log.Printf("❌ Error sweeping expired blackout dates: %v", res.Error)
		return
	}

	if res.RowsAffected > 0 {
		log.Printf("🧹 Swept %d expired blackout dates", res.RowsAffected)
	}
}
