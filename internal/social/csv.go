package social

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WritePosts writes posts.csv into dir. An empty slice still
// produces a header-only file.
func WritePosts(dir string, posts []Post) error {
	rows := [][]string{{"subreddit", "id", "title", "score", "num_comments", "url"}}
	for _, p := range posts {
		rows = append(rows, []string{
			p.Subreddit, p.ID, p.Title,
			strconv.Itoa(p.Score), strconv.Itoa(p.NumComments), p.URL,
		})
	}
	return writeCSV(filepath.Join(dir, "posts.csv"), rows)
}

// WriteComments writes comments.csv into dir.
func WriteComments(dir string, comments []Comment) error {
	rows := [][]string{{"post_id", "body", "score"}}
	for _, c := range comments {
		rows = append(rows, []string{c.PostID, c.Body, strconv.Itoa(c.Score)})
	}
	return writeCSV(filepath.Join(dir, "comments.csv"), rows)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
