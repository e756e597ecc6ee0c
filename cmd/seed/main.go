package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/ujianku/practice-exam-backend/internal/config"
	"github.com/ujianku/practice-exam-backend/internal/model"
)

// seedFile is the JSON document the seeder consumes: the experiment roster
// and the question set for one run.
type seedFile struct {
	Users     []model.User     `json:"users"`
	Questions []model.Question `json:"questions"`
}

func main() {
	var path string
	flag.StringVar(&path, "file", "seed.json", "Path to the seed JSON file")
	flag.Parse()

	cfg := config.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Read seed file: %v", err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("Parse seed file: %v", err)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Connect: %v", err)
	}
	defer conn.Close(ctx)

	for _, u := range seed.Users {
		_, err := conn.Exec(ctx,
			`INSERT INTO users (id, name, experimental_code)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE
			 SET name = EXCLUDED.name, experimental_code = EXCLUDED.experimental_code`,
			u.ID, u.Name, u.ExperimentalCode,
		)
		if err != nil {
			log.Fatalf("Seed user %s: %v", u.ID, err)
		}
	}

	for _, q := range seed.Questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			log.Fatalf("Encode options for question %d: %v", q.ID, err)
		}
		_, err = conn.Exec(ctx,
			`INSERT INTO questions (id, question, options, correct_answer, attachment)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE
			 SET question = EXCLUDED.question, options = EXCLUDED.options,
			     correct_answer = EXCLUDED.correct_answer, attachment = EXCLUDED.attachment`,
			q.ID, q.Question, options, q.CorrectAnswer, q.Attachment,
		)
		if err != nil {
			log.Fatalf("Seed question %d: %v", q.ID, err)
		}
	}

	fmt.Printf("Seeded %d users and %d questions\n", len(seed.Users), len(seed.Questions))
}
