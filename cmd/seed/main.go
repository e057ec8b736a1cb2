package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"bookbff/internal/author"
	"bookbff/internal/book"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	baseURL     string
	authorCount int
	booksEach   int
	seedTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate a running API with sample authors and books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		ctx, cancel := context.WithTimeout(cmd.Context(), seedTimeout)
		defer cancel()

		s := &seeder{
			client: &http.Client{Timeout: 5 * time.Second},
			base:   strings.TrimRight(baseURL, "/"),
		}

		logger.Info("seeding", "authors", authorCount, "books_per_author", booksEach, "base_url", s.base)
		books := 0
		for i := 0; i < authorCount; i++ {
			var a author.View
			if err := s.post(ctx, "/api/v1/authors", randomAuthor(), &a); err != nil {
				return fmt.Errorf("create author %d: %w", i+1, err)
			}
			for j := 0; j < booksEach; j++ {
				var b book.View
				if err := s.post(ctx, "/api/v1/books", randomBook(a.ID.String()), &b); err != nil {
					return fmt.Errorf("create book for author %s: %w", a.ID, err)
				}
				books++
			}
		}
		logger.Info("seeding done", "authors", authorCount, "books", books)
		return nil
	},
}

type seeder struct {
	client *http.Client
	base   string
}

func (s *seeder) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var (
	firstNames = []string{"Ada", "Alan", "Barbara", "Donald", "Edsger", "Grace", "Ken", "Rob"}
	lastNames  = []string{"Lovelace", "Turing", "Liskov", "Knuth", "Dijkstra", "Hopper", "Thompson", "Pike"}
	languages  = []string{"en", "es", "fr", "de", "it", "pt"}
	words      = []string{"Systems", "Patterns", "Concurrency", "Networks", "Compilers", "Practice", "Design"}
)

func randomAuthor() map[string]string {
	return map[string]string{
		"firstName": firstNames[rand.Intn(len(firstNames))],
		"lastName":  lastNames[rand.Intn(len(lastNames))],
		"address":   fmt.Sprintf("%d Main Street", 1+rand.Intn(500)),
		"language":  languages[rand.Intn(len(languages))],
	}
}

func randomBook(authorID string) map[string]any {
	return map[string]any{
		"title":    fmt.Sprintf("%s in %s", words[rand.Intn(len(words))], words[rand.Intn(len(words))]),
		"authorId": authorID,
		"pages":    100 + rand.Intn(800),
	}
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "API base URL")
	rootCmd.Flags().IntVar(&authorCount, "authors", 10, "number of authors to create")
	rootCmd.Flags().IntVar(&booksEach, "books-per-author", 3, "books created for each author")
	rootCmd.Flags().DurationVar(&seedTimeout, "timeout", time.Minute, "overall deadline")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
