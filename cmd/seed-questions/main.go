package main

import (
	"context"
	"fmt"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/database"
	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/examhall/examhall-backend/internal/service"
)

// perTopicPerTier controls how many questions each (topic, difficulty)
// pair receives. Shaped so stratified generation at the default 40/40/20
// split always has enough of every tier.
const perTopicPerTier = 8

var topics = []string{"networking", "databases", "operating-systems", "security", "algorithms"}

var tierPoints = map[model.Difficulty]float64{
	model.DifficultyEasy:   1,
	model.DifficultyMedium: 2,
	model.DifficultyHard:   3,
}

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

	questionRepo := repository.NewQuestionRepository(pool)
	questionService := service.NewQuestionService(questionRepo, log)

	total := len(topics) * 3 * perTopicPerTier
	fmt.Printf("=== Seeding %d Questions ===\n", total)

	successCount := 0
	for _, topic := range topics {
		for _, difficulty := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
			for i := 1; i <= perTopicPerTier; i++ {
				req := &model.CreateQuestionRequest{
					QuestionText: fmt.Sprintf("[%s/%s] Sample question %d: which option is correct?", topic, difficulty, i),
					Topic:        topic,
					Options: []string{
						"The correct option",
						"A plausible distractor",
						"Another distractor",
						"A clearly wrong option",
					},
					CorrectOption: 0,
					Difficulty:    string(difficulty),
					Points:        tierPoints[difficulty],
				}

				if _, err := questionService.Create(ctx, req); err != nil {
					fmt.Printf("Error creating question (%s/%s #%d): %v\n", topic, difficulty, i, err)
					continue
				}
				successCount++
			}
		}
		fmt.Printf("Seeded topic %q\n", topic)
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", successCount, total)
}
