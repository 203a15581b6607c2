package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilearn/activity-backend/internal/config"
	"github.com/lumilearn/activity-backend/internal/database"
	"github.com/lumilearn/activity-backend/internal/logger"
	"github.com/lumilearn/activity-backend/internal/model"
	"github.com/lumilearn/activity-backend/internal/repository"
	"github.com/lumilearn/activity-backend/internal/service"
)

// Seeds one demo lesson with an activity per shape, plus ten demo
// student accounts (password "lumilearn").
func main() {
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
	studentService := service.NewStudentService(studentRepo)

	fmt.Println("=== Seeding Demo Students ===")

	names := []string{
		"Ava Thompson", "Ben Carter", "Chloe Nguyen", "Daniel Reyes", "Emma Walsh",
		"Felix Ortiz", "Grace Kim", "Hugo Bennett", "Isla Moore", "Jonas Petrov",
	}

	created := 0
	for i, name := range names {
		student := &model.Student{
			Username:     fmt.Sprintf("student%d", i+1),
			Name:         name,
			PasswordHash: "lumilearn",
		}
		if err := studentService.Create(ctx, student); err != nil {
			fmt.Printf("Skipping student %s: %v\n", student.Username, err)
			continue
		}
		created++
	}
	fmt.Printf("Created %d/%d students.\n", created, len(names))

	fmt.Println("=== Seeding Demo Lesson ===")

	if err := seedLesson(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed lesson content")
	}

	fmt.Println("Seed completed!")
}

func seedLesson(ctx context.Context, pool *pgxpool.Pool) error {
	var lessonID uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO lessons (name, description, sequence)
		 VALUES ('Solar System Basics', 'Planets, moons and orbits.', 1)
		 RETURNING id`,
	).Scan(&lessonID)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}

	if err := seedChoiceActivity(ctx, pool, lessonID); err != nil {
		return err
	}
	if err := seedPairActivity(ctx, pool, lessonID); err != nil {
		return err
	}
	return seedSpatialActivity(ctx, pool, lessonID)
}

func insertActivity(ctx context.Context, pool *pgxpool.Pool, lessonID uuid.UUID, name string, seq int, shape model.Shape) (uuid.UUID, error) {
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO activities (lesson_id, name, sequence, shape, status)
		 VALUES ($1, $2, $3, $4, 'published')
		 RETURNING id`,
		lessonID, name, seq, shape,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert activity %q: %w", name, err)
	}
	return id, nil
}

func insertQuestion(ctx context.Context, pool *pgxpool.Pool, activityID uuid.UUID, title string, seq, rows, cols, wallet int) (uuid.UUID, error) {
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO questions (activity_id, title, sequence, rows, cols, wallet_points)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		activityID, title, seq, rows, cols, wallet,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert question %q: %w", title, err)
	}
	return id, nil
}

func seedChoiceActivity(ctx context.Context, pool *pgxpool.Pool, lessonID uuid.UUID) error {
	activityID, err := insertActivity(ctx, pool, lessonID, "Planet Quiz", 1, model.ShapeSingleChoice)
	if err != nil {
		return err
	}

	questions := []struct {
		title   string
		options []string
		correct int
	}{
		{"Which planet is closest to the Sun?", []string{"Venus", "Mercury", "Mars", "Earth"}, 1},
		{"Which planet has the most moons?", []string{"Saturn", "Jupiter", "Neptune", "Uranus"}, 0},
		{"Which planet is known as the Red Planet?", []string{"Jupiter", "Venus", "Mars", "Mercury"}, 2},
	}

	for qi, q := range questions {
		questionID, err := insertQuestion(ctx, pool, activityID, q.title, qi+1, 0, 0, 0)
		if err != nil {
			return err
		}
		for oi, text := range q.options {
			points := 0
			if oi == q.correct {
				points = 5
			}
			_, err := pool.Exec(ctx,
				`INSERT INTO choice_options (question_id, text, is_correct, points, sequence)
				 VALUES ($1, $2, $3, $4, $5)`,
				questionID, text, oi == q.correct, points, oi+1,
			)
			if err != nil {
				return fmt.Errorf("insert choice option: %w", err)
			}
		}
	}
	return nil
}

func seedPairActivity(ctx context.Context, pool *pgxpool.Pool, lessonID uuid.UUID) error {
	activityID, err := insertActivity(ctx, pool, lessonID, "Match Planets to Facts", 2, model.ShapePairMatch)
	if err != nil {
		return err
	}

	questionID, err := insertQuestion(ctx, pool, activityID, "Match each planet to its fact", 1, 0, 0, 0)
	if err != nil {
		return err
	}

	pairs := [][2]string{
		{"Mercury", "Smallest planet"},
		{"Venus", "Hottest planet"},
		{"Earth", "Only planet with liquid oceans"},
		{"Jupiter", "Largest planet"},
	}
	for i, p := range pairs {
		_, err := pool.Exec(ctx,
			`INSERT INTO pair_options (question_id, left_text, right_text, points, sequence)
			 VALUES ($1, $2, $3, 2, $4)`,
			questionID, p[0], p[1], i+1,
		)
		if err != nil {
			return fmt.Errorf("insert pair option: %w", err)
		}
	}
	return nil
}

func seedSpatialActivity(ctx context.Context, pool *pgxpool.Pool, lessonID uuid.UUID) error {
	activityID, err := insertActivity(ctx, pool, lessonID, "Order the Inner Planets", 3, model.ShapeSpatial)
	if err != nil {
		return err
	}

	questionID, err := insertQuestion(ctx, pool, activityID, "Place the inner planets by distance from the Sun", 1, 1, 4, 12)
	if err != nil {
		return err
	}

	for col := 1; col <= 4; col++ {
		_, err := pool.Exec(ctx,
			`INSERT INTO spatial_cells (question_id, position, label, sequence)
			 VALUES ($1, $2, $3, $4)`,
			questionID, model.CellPosition(col, 1), fmt.Sprintf("Position %d", col), col,
		)
		if err != nil {
			return fmt.Errorf("insert spatial cell: %w", err)
		}
	}

	tiles := []struct {
		text     string
		position string
	}{
		{"Mercury", model.CellPosition(1, 1)},
		{"Venus", model.CellPosition(2, 1)},
		{"Earth", model.CellPosition(3, 1)},
		{"Mars", model.CellPosition(4, 1)},
	}
	for i, t := range tiles {
		_, err := pool.Exec(ctx,
			`INSERT INTO spatial_tiles (question_id, text, points, correct_positions, sequence)
			 VALUES ($1, $2, 3, $3, $4)`,
			questionID, t.text, []string{t.position}, i+1,
		)
		if err != nil {
			return fmt.Errorf("insert spatial tile: %w", err)
		}
	}
	return nil
}
