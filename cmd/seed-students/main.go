package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/database"
	"github.com/stemsi/student-dashboard/internal/logger"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/service"
)

const firstRegistration = 1000

var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda", "David", "Elizabeth",
		"William", "Sarah", "Karen", "Nancy", "Lisa", "Betty", "Margaret", "Sandra", "Ashley", "Kimberly",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
	}
)

// generate builds perGroup students for every department and year.
// Registration numbers run REG-1001, REG-1002, ... in generation order.
func generate(rng *rand.Rand, perGroup int) []model.Student {
	out := make([]model.Student, 0, len(model.Departments)*len(model.Years)*perGroup)
	counter := firstRegistration

	for _, dept := range model.Departments {
		for _, year := range model.Years {
			for i := 0; i < perGroup; i++ {
				counter++
				out = append(out, model.Student{
					ID:                 uuid.NewString(),
					Name:               firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))],
					RegistrationNumber: fmt.Sprintf("REG-%d", counter),
					Department:         string(dept),
					BloodGroup:         model.BloodGroups[rng.IntN(len(model.BloodGroups))],
					Year:               year,
					AverageMarks:       math.Round((rng.Float64()*60+40)*10) / 10,
				})
			}
		}
	}
	return out
}

func main() {
	perGroup := flag.Int("per-group", 15, "Students per department and year")
	reset := flag.Bool("reset", false, "Delete every student before seeding")
	seed := flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	studentService := service.NewStudentService(studentRepo, nil, log)

	if *reset {
		n, err := studentService.Reset(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to reset students")
		}
		fmt.Printf("Removed %d existing students.\n", n)
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(*seed, *seed>>1))
	students := generate(rng, *perGroup)

	fmt.Printf("=== Seeding %d Students (%d departments x %d years x %d) ===\n",
		len(students), len(model.Departments), len(model.Years), *perGroup)

	successCount, skipped := 0, 0
	for i := range students {
		student := &students[i]
		err := studentService.Create(ctx, student)
		switch {
		case errors.Is(err, repository.ErrConflict):
			skipped++
		case err != nil:
			fmt.Printf("Error creating student %s (%s): %v\n", student.Name, student.RegistrationNumber, err)
		default:
			successCount++
			if successCount%100 == 0 {
				fmt.Printf("Created %d students...\n", successCount)
			}
		}
	}

	if skipped > 0 {
		fmt.Printf("Skipped %d registration numbers that already exist (use -reset to start over).\n", skipped)
	}
	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, len(students))
}
