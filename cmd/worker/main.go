package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kamlesh9685/Attendance-Managment/internal/attendance"
	"github.com/kamlesh9685/Attendance-Managment/internal/config"
	"github.com/kamlesh9685/Attendance-Managment/internal/queue"
	"github.com/kamlesh9685/Attendance-Managment/internal/store"
)

type attendanceEvent struct {
	RecordID  string `json:"record_id"`
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

// Worker consumes attendance events and refreshes per-student tallies in
// redis so the summary endpoint has a cheap read path. Tallies are
// recomputed from the database rather than incremented, so a re-mark of
// the same day never skews the counts.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(ctx) {
		log.Fatalf("redis not reachable at %s", cfg.RedisAddr)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:events")
	}

	repo := attendance.NewPostgresRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for attendance events...")
	for msg := range messages {
		if msg.Type != queue.TypeAttendanceMarked {
			continue
		}

		var evt attendanceEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad event payload: %v", err)
			continue
		}
		if evt.StudentID == "" {
			continue
		}

		counts, err := repo.Summary(ctx, evt.StudentID)
		if err != nil {
			log.Printf("summary recompute failed for %s: %v", evt.StudentID, err)
			continue
		}
		if err := redisClient.SetTally(ctx, evt.StudentID, counts); err != nil {
			log.Printf("tally update failed for %s: %v", evt.StudentID, err)
			continue
		}
		log.Printf("tally refreshed: student=%s record=%s", evt.StudentID, evt.RecordID)
	}

	log.Println("worker stopped")
}
